package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulcova-api/internal/api"
	"github.com/pulcova-api/internal/config"
	"github.com/pulcova-api/internal/database"
	"github.com/pulcova-api/internal/metrics"
	"github.com/pulcova-api/internal/notifier"
	"github.com/pulcova-api/internal/repository"
	"github.com/pulcova-api/internal/service"
	"github.com/pulcova-api/pkg/logger"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "json")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting Pulcova API server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Server.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db)

	// Initialize notifiers
	set, err := notifier.NewSet(cfg.Notifier, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize notifiers")
	}
	defer set.Close()

	dispatcher := notifier.NewDispatcher(set.Visitor, cfg.Notifier.Workers, cfg.Notifier.Timeout, log)
	dispatcher.Start(context.Background())
	log.Info().Str("driver", cfg.Notifier.Driver).Int("workers", cfg.Notifier.Workers).Msg("Notification routing ready")

	// Initialize services
	services := service.NewServices(repos, service.Notifiers{Owner: set.Owner, Visitor: dispatcher}, cfg, log)

	// Periodic content gauges
	scheduler, err := startGaugeRefresh(services.Catalog, cfg.Metrics.RefreshSpec, log)
	if err != nil {
		log.Fatal().Err(err).Str("spec", cfg.Metrics.RefreshSpec).Msg("Failed to schedule gauge refresh")
	}

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop background work after the last request has been served
	<-scheduler.Stop().Done()
	dispatcher.Stop()

	log.Info().Msg("Server exited gracefully")
}

// startGaugeRefresh publishes the visible content counts now and on every cron tick
func startGaugeRefresh(catalog service.CatalogService, spec string, log zerolog.Logger) (*cron.Cron, error) {
	refresh := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		counts, err := catalog.VisibleCounts(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to refresh content gauges")
			return
		}
		for kind, n := range counts {
			metrics.UpdateVisibleContent(string(kind), n)
		}
		log.Debug().Interface("counts", counts).Msg("Content gauges refreshed")
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, refresh); err != nil {
		return nil, err
	}
	refresh()
	c.Start()
	return c, nil
}
