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
	"ProductService/internal/product"
	"ProductService/pkg/kit"
)

const service = "product"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("%s service failed: %v", service, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadProduct(config.Sources{})
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
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	s := &product.Server{
		Store: product.NewInstrumentedStore(store, reg),
		Log:   logger,
	}

	h := product.NewHandler(s, product.HTTPDeps{
		Log:            logger,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})

	if err := kit.RunHTTPServer(ctx, cfg.Server(), h, logger); err != nil {
		return fmt.Errorf("http server stopped: %w", err)
	}
	logger.Info("stopped gracefully")
	return nil
}

func openStore(ctx context.Context, cfg *config.Product, logger *zap.Logger) (product.Store, func(), error) {
	if cfg.Store.Driver == config.DriverMemory {
		logger.Warn("using in-memory store, products are lost on restart")
		return product.NewMemStore(), func() {}, nil
	}

	if cfg.Database.Migrate {
		if err := product.Migrate(cfg.Database.URL); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations applied")
	}

	db, err := product.OpenDB(ctx, cfg.Database.URL, cfg.Database.Timeout)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to database")

	return product.NewPostgresStore(db), func() { _ = db.Close() }, nil
}
