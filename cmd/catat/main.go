package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"catat/internal/amqp"
	"catat/internal/backend"
	"catat/internal/bot"
	"catat/internal/cache"
	"catat/internal/cli"
	"catat/internal/core"
	apphttp "catat/internal/http"
	applog "catat/internal/log"
	"catat/internal/middleware/ratelimit"
	"catat/internal/middleware/trace"
	"catat/internal/services"
	"catat/internal/wizard"
)

const cacheSweepInterval = time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting catat", applog.FieldOperation, applog.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	caches := cache.NewManager()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	store, err := backend.NewFactory(logger, caches).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Cleanup()
	logger.Info("Backend initialized", "backend", cfg.DataBackend)

	caches.StartCleanup(ctx, cacheSweepInterval)
	defer caches.Stop()

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			logger.Warn("AMQP unavailable, expense events disabled", applog.FieldError, err)
		} else {
			publisher = client
			logger.Info("AMQP publisher connected", "exchange", cfg.AMQPExchange)
		}
	}

	expenses := services.NewExpenseService(store.Store, publisher)
	defer expenses.Close()
	summaries := services.NewSummaryService(store.Store)

	loc := cfg.Location()
	formatter := core.NewAmountFormatter(cfg.AmountLocale, cfg.CurrencySymbol)
	sessions := wizard.NewSessions()
	w := wizard.New(store.Store, expenses, wizard.WithLocation(loc), wizard.WithFormatter(formatter))
	router := bot.NewRouter(w, sessions, store.Store, summaries, bot.WithLocation(loc), bot.WithFormatter(formatter))

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		Burst:             cfg.RateLimitBurst,
	})
	defer limiter.Stop()
	tracer := trace.NewTracer(logger)

	telegram, err := bot.NewTelegram(bot.TelegramConfig{
		Token:       cfg.TelegramToken,
		PollTimeout: cfg.TelegramPollTimeout,
	}, router, tracer, limiter, logger)
	if err != nil {
		logger.Error("Failed to initialize Telegram bot", applog.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return telegram.Run(gctx) })
	if cfg.OpsPort != "" {
		ops := apphttp.NewServer(":"+cfg.OpsPort, apphttp.Deps{
			Backend:  cfg.DataBackend,
			Ready:    telegram.Ready,
			Tracer:   tracer,
			Sessions: sessions,
			Limiter:  limiter,
		}, logger)
		g.Go(func() error { return ops.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Shutdown with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
