package app

import (
	"strings"

	"github.com/hireloop/hireloop/internal/cache"
)

// RedisClientConfig maps the cache section onto the redis client's settings.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	redis := c.Redis
	return cache.RedisConfig{
		Address:  strings.TrimSpace(redis.Address),
		Username: strings.TrimSpace(redis.Username),
		Password: redis.Password,
		DB:       redis.DB,
		TLS:      redis.TLS,
		Timeout:  redis.Timeout,
	}
}
