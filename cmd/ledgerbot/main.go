package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"ledgerbot/internal/amqp"
	"ledgerbot/internal/auth"
	"ledgerbot/internal/bot"
	"ledgerbot/internal/cache"
	"ledgerbot/internal/classify"
	"ledgerbot/internal/config"
	"ledgerbot/internal/core"
	"ledgerbot/internal/dispatch"
	"ledgerbot/internal/log"
	"ledgerbot/internal/oracle"
	"ledgerbot/internal/ratelimit"
	"ledgerbot/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting ledgerbot", log.FieldOperation, log.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	if cfg.TelegramToken == "" {
		logger.Error("TELEGRAM_BOT_TOKEN is required")
		os.Exit(1)
	}
	if cfg.GeminiAPIKey == "" {
		logger.Error("GEMINI_API_KEY is required")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gemini, err := oracle.NewGemini(ctx, oracle.Config{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		StrictOnly: cfg.OracleStrictJSON,
	})
	if err != nil {
		logger.Error("Failed to initialize Gemini client", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Gemini client initialized", log.FieldModel, gemini.Model())

	// Ledger events drive the sheet export; without a broker the worker's
	// periodic pending scan still picks rows up.
	var events dispatch.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
			os.Exit(1)
		}
		defer amqpClient.Close()
		events = amqpClient
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error("Failed to initialize Telegram client", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Telegram client initialized", "bot", api.Self.UserName)

	userCache := cache.NewTTLCache[*core.User](cfg.UserCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(userCache)
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	limiter := ratelimit.NewLimiter(ratelimit.Config{MessagesPerMinute: cfg.MessagesPerMinute})
	defer limiter.Stop()

	handler := bot.New(api, bot.Deps{
		Users:       repo,
		Classifier:  classify.NewClassifier(gemini),
		Dispatcher:  dispatch.New(repo, events, logger),
		Gate:        auth.NewGate(cfg.SecretWord),
		Limiter:     limiter,
		UserCache:   userCache,
		Logger:      logger,
		PollTimeout: cfg.PollTimeout,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return handler.Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot stopped", log.FieldError, err.Error())
		os.Exit(1)
	}

	logger.Info("Shutdown complete", log.FieldOperation, log.OpShutdown)
}
