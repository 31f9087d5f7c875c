package main

import (
	"context"
	"errors"
	"os"

	"catat/internal/amqp"
	"catat/internal/cli"
	"catat/internal/config"
	applog "catat/internal/log"
	"catat/internal/storage"
	"catat/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting catat-mirror", applog.FieldOperation, applog.OpStartup)

	cfg := config.Load()
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.MirrorDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.MirrorDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	mirror := worker.NewMirrorWorker(repo, logger)
	err = client.ConsumeExpenseRecorded(ctx, cfg.AMQPQueue, mirror.HandleExpenseRecorded)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
