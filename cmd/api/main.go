package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/lingopal-app/lingopal/internal/api"
	"github.com/lingopal-app/lingopal/internal/auth"
	"github.com/lingopal-app/lingopal/internal/coins"
	"github.com/lingopal-app/lingopal/internal/config"
	"github.com/lingopal-app/lingopal/internal/database"
	"github.com/lingopal-app/lingopal/internal/events"
	"github.com/lingopal-app/lingopal/internal/history"
	"github.com/lingopal-app/lingopal/internal/learning"
	"github.com/lingopal-app/lingopal/internal/middleware"
	"github.com/lingopal-app/lingopal/internal/ratelimit"
	iredis "github.com/lingopal-app/lingopal/internal/redis"
	"github.com/lingopal-app/lingopal/internal/server"
	"github.com/lingopal-app/lingopal/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	ctx := context.Background()

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.DB.DSN(), "migrations"); err != nil {
		slog.Error("migrating database", "error", err)
		os.Exit(1)
	}

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS (optional)
	var natsClient *events.Client
	var publisher *events.Publisher
	if cfg.NATS.Enabled {
		natsClient, err = events.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		publisher = events.NewPublisher(natsClient.JetStream())
	}

	// Auth
	jwtManager := auth.NewJWTManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	authSvc := auth.NewService(jwtManager, redisClient)
	userRepo := users.NewRepository(pool)
	userSvc := users.NewService(userRepo)
	authHandler := auth.NewHandler(authSvc, userSvc)

	// Translation history
	historyRepo := history.NewRepository(pool)
	historySvc := history.NewService(historyRepo)
	historyHandler := history.NewHandler(historySvc)

	// Coins
	coinStore := coins.NewStore(pool)
	coinSvc := coins.NewService(coinStore, publisher)
	coinHandler := coins.NewHandler(coinSvc)

	// Learning content
	learningRepo := learning.NewRepository(pool)
	learningSvc := learning.NewService(learningRepo, historySvc, coinSvc, learning.NewLocalGenerator())
	learningHandler := learning.NewHandler(learningSvc)

	// Per-user guard on the generation endpoints
	guard := ratelimit.NewGuard(redisClient, cfg.RateLimit.GenerateMaxRequests, cfg.RateLimit.GenerateWindow)

	// Per-IP limiter on the public auth endpoints
	authLimiter := middleware.NewRateLimiter(redisClient, cfg.RateLimit.AuthMaxRequests, cfg.RateLimit.AuthWindowSec)

	router := api.NewRouter(pool, natsClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		AuthRateLimiter:    authLimiter.Middleware,
	}, api.HandlerSet{
		Register: authHandler.Register,
		Login:    authHandler.Login,
		Refresh:  authHandler.Refresh,
		Logout:   authHandler.Logout,

		CreateHistoryRecord: historyHandler.Create,

		Eligibility:        learningHandler.Eligibility,
		GetSheet:           learningHandler.GetSheet,
		RegenerateSheet:    learningHandler.RegenerateSheet,
		GetWordBank:        learningHandler.GetWordBank,
		RegenerateWordBank: learningHandler.RegenerateWordBank,
		GetQuiz:            learningHandler.GetQuiz,
		RegenerateQuiz:     learningHandler.RegenerateQuiz,
		SubmitAttempt:      learningHandler.SubmitAttempt,

		AwardCoins: coinHandler.Award,
		CoinStats:  coinHandler.Stats,

		AuthMiddleware:  auth.Middleware(authSvc),
		GenerationGuard: guard.Middleware,
	})

	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
