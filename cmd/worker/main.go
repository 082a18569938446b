package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/haidang029kg/ytb-api/config"
	"github.com/haidang029kg/ytb-api/internal/worker"
	"github.com/haidang029kg/ytb-api/pkg/queue"
	"github.com/haidang029kg/ytb-api/pkg/redis"
	"github.com/haidang029kg/ytb-api/pkg/storage"
)

// Standalone storage cleanup worker. The API server runs the same processor
// in-process; this binary exists for deployments that scale cleanup
// independently.
func main() {
	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("connect redis", zap.Error(err))
	}
	defer rdb.Close()

	gateway, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		Bucket:               cfg.AWS.Bucket,
		PresignExpireSeconds: cfg.AWS.PresignExpireSeconds,
	}, logger)
	if err != nil {
		logger.Fatal("init s3", zap.Error(err))
	}

	jobs := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewCleanupProcessor(jobs, gateway, logger)
	if err := processor.Run(ctx); err != nil {
		logger.Error("worker exited", zap.Error(err))
	}
}
