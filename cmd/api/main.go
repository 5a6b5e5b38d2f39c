package main

import (
	"context"
	"log"

	"resume-intake/config"
	"resume-intake/internal/handler"
	"resume-intake/internal/metrics"
	"resume-intake/internal/middleware"
	"resume-intake/internal/redis"
	"resume-intake/internal/repository"
	"resume-intake/internal/server"
	"resume-intake/internal/services"
	"resume-intake/internal/storage"
	"resume-intake/pkg/database"
	"resume-intake/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	l := logger.New(cfg.LogMode)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	if cfg.SessionSecret == "" {
		l.Warnf("SESSION_SECRET is not set")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := repository.InitSchema(db); err != nil {
		l.Fatalf("Failed to apply schema: %v", err)
	}

	ctx := context.Background()
	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		l.Fatalf("Failed to configure %s storage: %v", cfg.Storage.Driver, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observer, err := metrics.NewPrometheusObserver("resume_intake", registry)
	if err != nil {
		l.Fatalf("Failed to register metrics: %v", err)
	}

	optimizer := services.NewUploadOptimizer(blobs, services.OptimizerConfig{
		CompressionThreshold:   cfg.Upload.CompressionThreshold,
		MinSavingsRatio:        cfg.Upload.MinSavingsRatio,
		MaxAttempts:            cfg.Upload.MaxAttempts,
		BackoffUnit:            cfg.Upload.BackoffUnit,
		AttemptTimeout:         cfg.Upload.AttemptTimeout,
		DeclareContentEncoding: cfg.Upload.DeclareContentEncoding,
	}, observer, l)

	submissions := services.NewSubmissionService(
		repository.NewSubmissionRepository(db),
		blobs,
		optimizer,
		observer,
		l,
		services.SubmissionConfig{MaxBytes: cfg.Upload.MaxBytes, Timeout: cfg.Upload.Timeout},
	)

	checks := map[string]handler.Check{
		"database": func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
		"storage":  blobs.HealthCheck,
	}

	deps := server.Dependencies{Gatherer: registry}
	if cfg.Redis.Host != "" {
		rdb := redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		var limiter middleware.UploadLimiter = redis.NewRateLimiter(rdb, redis.RateLimitConfig{
			UploadLimit:  cfg.Redis.UploadLimit,
			UploadWindow: cfg.Redis.UploadWindow,
		})
		deps.Limiter = limiter
		checks["redis"] = func(ctx context.Context) error { return redis.HealthCheck(ctx, rdb) }
		l.Logger.Info("upload rate limiting enabled",
			zap.Int("limit", cfg.Redis.UploadLimit),
			zap.Duration("window", cfg.Redis.UploadWindow),
		)
	} else {
		l.Warnf("REDIS_HOST is not set, upload rate limiting disabled")
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Submission: handler.NewSubmissionHandler(submissions),
		Health:     handler.NewHealthHandler(checks),
	}, deps)

	l.Logger.Info("resume intake ready",
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("bucket", cfg.Storage.Bucket),
		zap.Int64("max_upload_bytes", cfg.Upload.MaxBytes),
	)

	if err := srv.Start(); err != nil {
		l.Errorf("Server stopped with error: %v", err)
	}
}
