package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"MockShop/internal/config"
	"MockShop/internal/mockapi"
	"MockShop/pkg/kit"
)

func main() {
	service := "mockapi"

	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("config", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, closeStore, err := mockapi.NewServer(ctx, cfg, log)
	if err != nil {
		log.Fatal("product store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("close product store", zap.Error(err))
		}
	}()

	var reg *prometheus.Registry
	if cfg.MetricsToken != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	h := mockapi.NewHandler(s, mockapi.DepsFromConfig(cfg, service, log, reg))

	log.Info("mock api configured",
		zap.String("base_path", cfg.BasePath),
		zap.String("store", cfg.StoreBackend),
		zap.Duration("delay", cfg.ResponseDelay),
		zap.Bool("metrics", reg != nil),
	)

	if err := kit.RunHTTPServer(ctx, ":"+cfg.Port, h, log); err != nil {
		log.Error("http server stopped", zap.Error(err))
	}
}
