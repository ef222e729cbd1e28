package main

import (
	"context"
	"net/http"
	"os"

	"rewards/internal/amqp"
	"rewards/internal/cli"
	apphttp "rewards/internal/http"
	"rewards/internal/log"
	"rewards/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitBackend(context.Background(), logger, cfg)

	// With a broker and the sqlite backend, purchases are queued and the worker owns the writes.
	var ingest *services.IngestService
	var amqpClient *amqp.Client
	switch {
	case cfg.QueueIngest():
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, writing purchases directly", log.FieldError, err.Error())
		} else {
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			ingest = services.NewIngestService(nil, amqpClient, "http")
		}
	case cfg.AMQPURL != "":
		logger.Warn("AMQP_URL is ignored by the server: the ingest worker writes to SQLite, not the selected backend",
			log.FieldBackend, cfg.DataBackend)
	}
	if ingest == nil {
		ingest = services.NewIngestService(res.Writer, nil, "http")
	}

	opts := apphttp.Options{
		Rewards:        services.NewRewardService(res.Source, logger.WithComponent(log.ComponentRewards)),
		Ready:          res,
		Logger:         logger.WithComponent(log.ComponentHTTP),
		MetricsEnabled: cfg.MetricsEnabled,
		RateLimitRPM:   cfg.RateLimitRPM,
	}
	if ingest.Enabled() {
		opts.Ingest = ingest
	}
	srv := apphttp.NewServer(":"+cfg.Port, opts)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		if amqpClient != nil {
			amqpClient.Close()
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting rewards server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"ingest", opts.Ingest != nil,
		"metrics", cfg.MetricsEnabled)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
