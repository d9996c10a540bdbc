package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/om2468/stats-insights/internal/api/handlers"
	"github.com/om2468/stats-insights/internal/api/middleware"
	"github.com/om2468/stats-insights/internal/config"
	"github.com/om2468/stats-insights/internal/logger"
	"github.com/om2468/stats-insights/internal/source"
)

func main() {
	var (
		addr       = flag.String("addr", "", "listen address (overrides config)")
		db         = flag.String("db", "", "path or gs:// URI of the .duckdb source (optional; can be uploaded later)")
		table      = flag.String("table", "", "table name inside the source (overrides config)")
		configPath = flag.String("config", "", "path to a YAML config file")
	)
	flag.Parse()

	log := logger.New()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load config")
		}
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *table != "" {
		cfg.TableName = *table
	}
	cfg.Normalize()

	ctx := context.Background()

	dash := handlers.NewDashboard(cfg, logger.For(log, "dashboard"))
	defer dash.Close()

	if *db != "" {
		path, cleanup, err := source.Resolve(ctx, *db)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to resolve data source")
		}
		defer cleanup()

		if err := dash.UseSource(ctx, path, false); err != nil {
			log.Fatal().Err(err).Str("source", *db).Msg("Failed to attach data source")
		}
	} else {
		log.Warn().Msg("No data source configured - upload one via POST /api/source")
	}

	handler := middleware.RequestID(
		middleware.CORS(
			middleware.Logger(log)(
				middleware.Recovery(log)(dash.Routes()))))

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("Dashboard API listening")
		errChan <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}
}
