// Command web serves the forecasting data API consumed by the dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fincast/internal/config"
	"fincast/internal/dataset"
	"fincast/internal/infrastructure"
	"fincast/internal/services"
	transport "fincast/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile = flag.String("config", "config.yaml", "path to YAML config file")
		enriched   = flag.String("enriched", "", "override path to the enriched observations CSV")
		links      = flag.String("links", "", "override path to the impact links CSV")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *enriched != "" {
		cfg.Paths.EnrichedData = *enriched
	}
	if *links != "" {
		cfg.Paths.ImpactLinks = *links
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := dataset.LoadEnriched(cfg.Paths.EnrichedData)
	if err != nil {
		return fmt.Errorf("load enriched data: %w", err)
	}
	impactLinks, err := dataset.LoadImpactLinks(cfg.Paths.ImpactLinks)
	if err != nil {
		return fmt.Errorf("load impact links: %w", err)
	}

	logger.InfoContext(ctx, "dataset loaded",
		"observations", len(data.Observations),
		"events", len(data.Events),
		"impact_links", len(impactLinks),
	)

	service := services.NewForecastService(ctx, data, impactLinks, logger,
		services.WithConcurrency(cfg.Forecast.Concurrency),
		services.WithTarget(cfg.Forecast.TargetValue, cfg.Forecast.TargetYear),
	)

	handler := transport.NewForecastHandler(service, cfg.Forecast.Years(), logger)
	router := transport.NewRouter(cfg, handler, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "server starting",
			slog.Int("port", cfg.Server.Port),
			slog.String("version", transport.Version),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
