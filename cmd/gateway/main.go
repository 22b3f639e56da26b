package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"ProductService/internal/config"
	"ProductService/internal/gateway"
	"ProductService/pkg/kit"
)

const service = "gateway"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("%s failed: %v", service, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadGateway(config.Sources{})
	if err != nil {
		return err
	}

	logger, err := kit.NewLogger(service, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Debug("configuration loaded", zap.String("config", cfg.String()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	h, err := gateway.NewHandler(
		gateway.Deps{
			ProductURL:     cfg.Product.URL,
			AllowedOrigins: cfg.CORS.AllowedOrigins(),
		},
		gateway.HTTPDeps{
			Log:            logger,
			Service:        service,
			Registry:       reg,
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsToken:   cfg.Metrics.Token,
		},
	)
	if err != nil {
		return fmt.Errorf("init gateway handler: %w", err)
	}

	if err := kit.RunHTTPServer(ctx, cfg.Server(), h, logger); err != nil {
		return fmt.Errorf("http server stopped: %w", err)
	}
	logger.Info("stopped gracefully")
	return nil
}
