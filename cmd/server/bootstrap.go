package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"

	"github.com/hireloop/hireloop/internal/api"
	"github.com/hireloop/hireloop/internal/app"
	"github.com/hireloop/hireloop/internal/app/maintenance"
	iauth "github.com/hireloop/hireloop/internal/auth"
	"github.com/hireloop/hireloop/internal/cache"
	"github.com/hireloop/hireloop/internal/database"
	"github.com/hireloop/hireloop/internal/delivery"
	"github.com/hireloop/hireloop/internal/middleware"
	"github.com/hireloop/hireloop/internal/realtime"
	"github.com/hireloop/hireloop/internal/services"
	"github.com/hireloop/hireloop/pkg/logger"
	"github.com/hireloop/hireloop/pkg/mail"
)

const drainTimeout = 30 * time.Second

// runtimeStack bundles long-lived components used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Redis     cache.Store
	Hub       *realtime.Hub
	Queue     *delivery.OfflineQueue
	Reaper    *maintenance.Reaper
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, cache, delivery pipeline,
// services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	memoryStore := cache.NewMemoryStore()
	var listStore cache.ListStore = memoryStore
	var counterStore cache.Store = memoryStore

	if cfg.Cache.Redis.Enabled {
		client, redisErr := cache.NewRedisClient(cfg.Cache.RedisClientConfig())
		if redisErr != nil {
			log.Warn("redis unavailable; falling back to in-memory cache", zap.Error(redisErr))
		} else {
			stack.Redis = client
			listStore = client
			counterStore = client
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	stack.Hub = realtime.NewHub()

	stack.Queue = delivery.NewOfflineQueue(listStore, stack.Hub,
		delivery.WithQueueLimit(cfg.Notifications.OfflineQueue.Limit),
		delivery.WithQueueTTL(cfg.Notifications.OfflineQueue.TTL),
	)

	queue := stack.Queue
	stack.Hub.OnConnect(func(userID string) {
		go func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			defer cancel()
			if _, err := queue.Drain(drainCtx, userID); err != nil {
				log.Warn("offline queue drain failed",
					zap.String("user_id", userID), zap.Error(err))
			}
		}()
	})

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}

	router, err := delivery.NewRouter(stack.DB, stack.Hub, stack.Hub, stack.Queue,
		delivery.WithMailer(mailer))
	if err != nil {
		return nil, fmt.Errorf("initialise delivery router: %w", err)
	}

	prefSvc, err := services.NewPreferenceService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise preference service: %w", err)
	}

	templateSvc, err := services.NewTemplateService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise template service: %w", err)
	}

	notificationSvc, err := services.NewNotificationService(stack.DB, prefSvc, templateSvc, router, stack.Hub)
	if err != nil {
		return nil, fmt.Errorf("initialise notification service: %w", err)
	}

	if cfg.Notifications.Reaper.Enabled {
		stack.Reaper, err = maintenance.NewReaper(stack.DB,
			maintenance.WithSchedule(cfg.Notifications.Reaper.Schedule),
			maintenance.WithBatchSize(cfg.Notifications.Reaper.BatchSize),
		)
		if err != nil {
			return nil, fmt.Errorf("initialise expiration reaper: %w", err)
		}
		if err := stack.Reaper.Start(); err != nil {
			return nil, fmt.Errorf("start expiration reaper: %w", err)
		}
	}

	stack.RateStore = middleware.NewRateStore(counterStore)

	stack.Router, err = api.NewRouter(cfg, api.Dependencies{
		DB:            stack.DB,
		JWT:           jwtSvc,
		Hub:           stack.Hub,
		Notifications: notificationSvc,
		Preferences:   prefSvc,
		RateStore:     stack.RateStore,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Reaper != nil {
		stopCtx := s.Reaper.Stop()
		if stopCtx != nil {
			ctx = stopCtx
		}
		if _, err := s.Reaper.RunOnce(ctx); err != nil {
			log.Warn("expiration sweep on shutdown failed", zap.Error(err))
		}
	}

	if rc, ok := s.Redis.(*cache.RedisClient); ok && rc != nil {
		if err := rc.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
