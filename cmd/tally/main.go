package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/cli"
	apphttp "tally/internal/http"
	applog "tally/internal/log"
	"tally/internal/metrics"
	"tally/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info"))
	logger := cli.SetupLogger(cfg.LogLevel)

	repo := cli.InitStore(logger.WithComponent(applog.ComponentStorage), cfg.DBPath)
	defer repo.Close()

	ledger := services.NewLedger(repo)
	agg := services.NewAggregator(repo)
	collector := metrics.NewCollector("tally")

	srv := apphttp.NewServer(":"+cfg.Port, ledger, agg, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DBName:             filepath.Base(cfg.DBPath),
		Logger:             logger.WithComponent(applog.ComponentHTTP),
		Collector:          collector,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting tally server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			"db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
