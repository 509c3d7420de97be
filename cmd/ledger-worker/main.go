package main

import (
	"os"
	"time"

	"conti/internal/amqp"
	"conti/internal/cli"
	"conti/internal/log"
	"conti/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(log.ComponentWorker, cfg)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the ledger worker")
		os.Exit(1)
	}

	logger.Info("Starting ledger-worker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	store := cli.OpenStore(ctx, logger, cfg)
	defer store.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	audit := worker.NewAuditWorker(store, logger)

	if err := audit.Run(ctx, client); err != nil {
		logger.Error("Message consumption failed", "error", err)
		client.Close()
		store.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Ledger worker stopped")
}
