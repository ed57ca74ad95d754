package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/felix-chat/felix/internal/api"
	"github.com/felix-chat/felix/internal/audit"
	"github.com/felix-chat/felix/internal/chat"
	"github.com/felix-chat/felix/internal/config"
	"github.com/felix-chat/felix/internal/database"
	"github.com/felix-chat/felix/internal/events"
	"github.com/felix-chat/felix/internal/history"
	"github.com/felix-chat/felix/internal/llm"
	"github.com/felix-chat/felix/internal/middleware"
	"github.com/felix-chat/felix/internal/profile"
	"github.com/felix-chat/felix/internal/quota"
	iredis "github.com/felix-chat/felix/internal/redis"
	"github.com/felix-chat/felix/internal/search"
	"github.com/felix-chat/felix/internal/server"
	"github.com/felix-chat/felix/internal/tts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath); err != nil {
		slog.Error("running migrations", "error", err)
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
	var auditPub events.AuditPublisher = events.NopPublisher{}
	if cfg.NATS.Enabled {
		natsClient, err = events.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		auditPub = events.NewPublisher(natsClient.JetStream())
	}

	// Stores
	histStore := history.NewPostgresStore(pool)
	profileStore := profile.NewPostgresStore(pool)
	queryStore := search.NewRedisRecentQueryStore(redisClient, cfg.Pipeline.DupQueryWindow*2)
	ttsUsageStore := quota.NewPostgresTTSUsageStore(pool)
	auditRepo := audit.NewRepository(pool)

	// Providers
	completion := llm.NewOpenAIClient(cfg.Completion)
	var searchProvider search.Provider
	if cfg.Search.APIKey != "" {
		searchProvider = search.NewSerperProvider(cfg.Search.APIKey, cfg.Search.BaseURL, cfg.Search.Timeout)
	}
	ttsProvider := tts.NewElevenLabsProvider(cfg.TTS)

	// Pipeline
	guard := search.NewGuard(queryStore, cfg.Pipeline.DupQueryWindow, 4096)
	limiter := quota.NewRateLimiter(redisClient, cfg.Pipeline.RateLimitMax, cfg.Pipeline.RateLimitWindow)
	assembler := chat.NewAssembler(histStore, profileStore, guard, searchProvider, chat.Options{
		HistoryLimit:      cfg.Pipeline.HistoryLimit,
		TokenBudget:       cfg.Pipeline.TokenBudget,
		ReplyTokenReserve: cfg.Pipeline.ReplyTokenReserve,
		EnableProfile:     cfg.Pipeline.EnableProfile,
		EnableSearch:      cfg.Pipeline.EnableSearch,
	})
	chatSvc := chat.NewService(assembler, completion, histStore, limiter, auditPub, cfg.Pipeline.EnableTone)
	chatHandler := chat.NewHandler(chatSvc)

	// TTS
	audioFiles, err := tts.NewFileStore(cfg.TTS.AudioDir)
	if err != nil {
		slog.Error("creating audio file store", "error", err)
		os.Exit(1)
	}
	ttsTracker := quota.NewTTSTracker(ttsUsageStore, cfg.TTS.DailyCharLimit)
	ttsHandler := tts.NewHandler(ttsProvider, ttsTracker, audioFiles, auditPub)

	// Audit
	auditHandler := audit.NewHandler(auditRepo)
	if natsClient != nil {
		consumer := audit.NewConsumer(auditRepo, natsClient)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("audit consumer stopped", "error", err)
			}
		}()
	}

	// Per-IP limiter in front of the synthesis endpoint.
	ttsIPLimiter := middleware.NewRateLimiter(redisClient, 10, 60)

	router := api.NewRouter(pool, redisClient, natsClient, api.RouterConfig{
		TTSRateLimiter: ttsIPLimiter.Middleware,
	}, api.HandlerSet{
		Chat:        chatHandler.Chat,
		History:     chatHandler.History,
		Synthesize:  ttsHandler.Synthesize,
		StreamAudio: ttsHandler.StreamAudio,
		ListAudit:   auditHandler.List,
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
