package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"brandcraft/internal/ratelimit"
	"brandcraft/internal/util"
	"brandcraft/pkg/adapt"
	"brandcraft/pkg/cache"
	"brandcraft/pkg/compliance"
	"brandcraft/pkg/domain"
	"brandcraft/pkg/engage"
	"brandcraft/pkg/governor"
	"brandcraft/pkg/imagesource"
	"brandcraft/pkg/notify"
	"brandcraft/pkg/platform"
	"brandcraft/pkg/queue"
	"brandcraft/pkg/storage"
	"brandcraft/pkg/store"
	"brandcraft/pkg/workflow"
	"brandcraft/services/content/internal/app"
	"brandcraft/services/content/internal/config"
	"brandcraft/services/content/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	dataStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init postgres store: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})

	registry := platform.NewRegistry()
	if cfg.PlatformSpecPath != "" {
		if err := registry.LoadFile(cfg.PlatformSpecPath); err != nil {
			log.Fatalf("failed to load platform specs: %v", err)
		}
	}

	gov, err := governor.New(governor.Config{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		UsageLog:      dataStore,
		Limits: governor.Limits{
			BucketCapacity:  cfg.GovernorRatePerMinute,
			RefillPerSecond: float64(cfg.GovernorRatePerMinute) / 60,
			DailyQuota:      cfg.GovernorDailyQuota,
			DailyCostLimit:  cfg.GovernorDailyCostLimit,
		},
	})
	if err != nil {
		log.Fatalf("failed to init governor: %v", err)
	}

	assets, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("failed to init asset store: %v", err)
	}
	images := imagesource.NewSourcer(imagesource.NewClient(cfg.FreepikBaseURL, cfg.FreepikAPIKey, gov), assets)

	jobQueue, err := queue.NewRedisJobQueue(queue.RedisQueueConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		Stream:   cfg.QueueStream,
		Group:    cfg.QueueGroup,
	})
	if err != nil {
		log.Fatalf("failed to init job queue: %v", err)
	}

	profiles := cache.NewProfileCache(redisClient, profileLoader{dataStore}, cfg.ProfileCacheTTL)
	events := notify.NewPublisher(redisClient, cfg.EventsChannel, logger)

	core, err := app.New(app.Config{
		Store:     dataStore,
		Profiles:  profiles,
		Queue:     jobQueue,
		Adapter:   adapt.New(adapt.Config{}, registry, images, logger),
		Validator: compliance.New(compliance.DefaultConfig(), registry),
		Predictor: engage.New(registry),
		Workflow:  workflow.New(),
		Registry:  registry,
		Usage:     gov,
		Events:    events,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	ctx := context.Background()
	jobQueue.Start(ctx, cfg.WorkerConcurrency, core.ProcessJob)
	go escalationLoop(ctx, core, cfg.EscalationSweepInterval, logger)

	submitLimiter, err := ratelimit.NewRedisFixedWindowLimiter(
		cfg.RedisAddr, cfg.RedisPassword, "brandcraft:submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow)
	if err != nil {
		log.Fatalf("failed to init rate limiter: %v", err)
	}

	httpServer := server.New(server.Config{
		App:           core,
		SubmitLimiter: submitLimiter,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("content server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}

// profileLoader adapts the store to the cache's loader interface.
type profileLoader struct {
	store *store.GormStore
}

func (l profileLoader) GetBrandProfile(_ context.Context, id string) (domain.BrandProfile, bool, error) {
	return l.store.GetBrandProfile(id)
}

func escalationLoop(ctx context.Context, core *app.App, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := core.SweepEscalations(ctx); err != nil {
				logger.Warn("escalation sweep failed", "error", err)
			}
		}
	}
}
