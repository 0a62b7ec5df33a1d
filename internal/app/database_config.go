package app

import (
	"strings"

	"github.com/hireloop/hireloop/internal/database"
)

// ConnectionConfig converts DatabaseConfig into the database package representation,
// folding the driver-specific host settings into the common shape.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	cfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:   c.Path,
		DSN:    c.DSN,
	}

	var hostCfg DBAuthConfig
	switch cfg.Driver {
	case "postgres", "postgresql":
		hostCfg = c.Postgres
	case "mysql":
		hostCfg = c.MySQL
	default:
		return cfg
	}

	if hostCfg.Enabled {
		cfg.Host = hostCfg.Host
		cfg.Port = hostCfg.Port
		cfg.Name = hostCfg.Database
		cfg.User = hostCfg.Username
		cfg.Password = hostCfg.Password
	}
	return cfg
}
