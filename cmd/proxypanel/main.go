// Package main запускает HTTP-сервер панели администратора.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/proxypanel/internal/auth"
	"github.com/mmeshcher/proxypanel/internal/backend"
	"github.com/mmeshcher/proxypanel/internal/config"
	"github.com/mmeshcher/proxypanel/internal/gateway"
	"github.com/mmeshcher/proxypanel/internal/handler"
	"github.com/mmeshcher/proxypanel/internal/service"
)

const dailyCheckInterval = time.Hour

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		sugar.Fatalw("data source initialization error", "mode", cfg.Mode(), "error", err.Error())
	}

	svc := service.NewService(source, logger)
	defer svc.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gw := gateway.New(source,
		gateway.WithTimeout(cfg.RequestTimeout),
		gateway.WithLogger(logger),
		gateway.WithRegisterer(registry),
	)

	if cfg.AuthSecret == "" {
		sugar.Warn("AUTH_SECRET is not set, tokens will not survive a restart")
	}
	tokens := auth.NewTokenManager(cfg.AuthSecret, auth.DefaultTTL)

	h := handler.NewHandler(svc, gw, tokens, logger,
		handler.WithMetrics(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})),
	)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Фоновая проверка согласованности дневной статистики
	g.Go(func() error {
		svc.WatchDailyStats(ctx, dailyCheckInterval)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting proxy panel server", "addr", cfg.RunAddress, "mode", cfg.Mode())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
