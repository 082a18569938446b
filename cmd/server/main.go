package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/haidang029kg/ytb-api/config"
	"github.com/haidang029kg/ytb-api/internal/auth"
	"github.com/haidang029kg/ytb-api/internal/middleware"
	"github.com/haidang029kg/ytb-api/internal/realtime"
	"github.com/haidang029kg/ytb-api/internal/signals"
	"github.com/haidang029kg/ytb-api/internal/transcoder"
	"github.com/haidang029kg/ytb-api/internal/videos"
	"github.com/haidang029kg/ytb-api/internal/worker"
	"github.com/haidang029kg/ytb-api/pkg/database"
	"github.com/haidang029kg/ytb-api/pkg/queue"
	"github.com/haidang029kg/ytb-api/pkg/redis"
	"github.com/haidang029kg/ytb-api/pkg/response"
	"github.com/haidang029kg/ytb-api/pkg/storage"
)

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func main() {
	logger, err := newLogger()
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

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

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

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	registry := signals.NewRegistry(logger)
	registry.On(signals.EventRegistration, "confirmation_link", auth.ConfirmationLinkHook(jwtService, cfg.Server.PublicBaseURL, logger))
	registry.On(signals.EventRegistration, "welcome", auth.WelcomeHook(logger))
	registry.On(signals.EventRegistrationComplete, "introduction", auth.IntroductionHook(logger))

	userRepo := auth.NewRepository(pool)
	videoRepo := videos.NewRepository(pool)

	dispatcher := transcoder.NewClient(cfg.Transcoder.BaseURL, time.Duration(cfg.Transcoder.TimeoutSeconds)*time.Second, logger)
	bus := realtime.NewPubSub(rdb.Client, logger)
	coordinator := videos.NewCoordinator(videoRepo, gateway, dispatcher, bus, cfg.Server.PublicBaseURL, cfg.Transcoder.Qualities, logger)

	jobs := queue.NewQueue(rdb.Client, logger)

	authHandler := auth.NewHandler(userRepo, jwtService, registry, logger)
	videoHandler := videos.NewHandler(videoRepo, coordinator, gateway, jobs, logger)
	webhookHandler := videos.NewWebhookHandler(coordinator, cfg.Transcoder.WebhookSecret, logger)

	hub := realtime.NewHub(logger)
	go hub.Run(ctx, bus)

	cleanup := worker.NewCleanupProcessor(jobs, gateway, logger)
	go func() {
		if err := cleanup.Run(ctx); err != nil {
			logger.Error("cleanup worker exited", zap.Error(err))
		}
	}()

	validateToken := func(token string) (int64, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return 0, err
		}
		return claims.UserID, nil
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/registration/confirm", authHandler.Confirm)
		authGroup.GET("/me", middleware.JWT(jwtService), authHandler.Me)
	}

	videoGroup := router.Group("/videos")
	{
		videoGroup.GET("", videoHandler.ListPublished)
		videoGroup.GET("/:id", videoHandler.GetByID)
		videoGroup.POST("/:id/processing-webhook", webhookHandler.Handle)

		protected := videoGroup.Group("", middleware.JWT(jwtService))
		{
			protected.POST("", videoHandler.Create)
			protected.GET("/my", videoHandler.ListMine)
			protected.GET("/presigned-upload-url", videoHandler.PresignedUploadURL)
			protected.PATCH("/:id", videoHandler.Update)
			protected.PATCH("/:id/upload-complete", videoHandler.UploadComplete)
			protected.POST("/:id/like", videoHandler.Like)
			protected.POST("/:id/dislike", videoHandler.Dislike)
			protected.POST("/:id/thumbnail", videoHandler.UploadThumbnail)
			protected.DELETE("/:id", videoHandler.Delete)
		}
	}

	router.GET("/ws", realtime.ServeWS(hub, validateToken, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}
