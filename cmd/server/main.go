package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/typegraph-io/typegraph/internal/entities"
	graphpostgres "github.com/typegraph-io/typegraph/internal/graph/postgres"
	"github.com/typegraph-io/typegraph/internal/handlers"
	"github.com/typegraph-io/typegraph/internal/infrastructure/config"
	"github.com/typegraph-io/typegraph/internal/infrastructure/database"
	"github.com/typegraph-io/typegraph/internal/infrastructure/logger"
	"github.com/typegraph-io/typegraph/internal/infrastructure/metrics"
	"github.com/typegraph-io/typegraph/internal/services"
	"github.com/typegraph-io/typegraph/internal/store"
	"github.com/typegraph-io/typegraph/internal/typeregistry"
	"github.com/typegraph-io/typegraph/pkg/cache"
	"github.com/typegraph-io/typegraph/pkg/cache/memorycache"
)

const defaultEnv = "dev"

func main() {
	// Get environment from ENV variable or use default
	env := os.Getenv("ENV")
	if env == "" {
		env = defaultEnv
	}

	// Initialize configuration
	if err := config.InitConfig(env); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(env == "dev")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// Connect to database
	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		zlog.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	zlog.Infow("connected to database",
		"user", cfg.Database.User,
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Database)

	// Initialize the graph store and the type registry
	graphStore := graphpostgres.NewStore(pg.DB)
	registry := typeregistry.New()
	defStore := store.NewStructDefStore(graphStore, registry, zlog)

	// Warm the registry with every definition already persisted, so the
	// codec resolves cross-type relationships from the first request on.
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 30*time.Second)
	existing, err := defStore.GetAll(warmCtx)
	cancelWarm()
	if err != nil {
		zlog.Fatalf("Failed to load persisted definitions: %v", err)
	}
	for _, def := range existing {
		if err := registry.RegisterStructDef(def, entities.TypeCategoryStruct); err != nil {
			zlog.Fatalf("Failed to register persisted definition %s: %v", def.Name, err)
		}
	}
	zlog.Infow("registry warmed", "definitions", len(existing))

	// Initialize cache and metrics
	var defCache cache.Cache
	if cfg.Cache.Enabled {
		defCache, err = memorycache.New(&memorycache.Config{
			MaxEntries:    cfg.Cache.MaxEntries,
			DefaultTTL:    time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
			EnableMetrics: true,
		})
		if err != nil {
			zlog.Fatalf("Failed to create cache: %v", err)
		}
		defer defCache.Close()
	}

	collector := metrics.NewCollector()
	exporter := metrics.NewPrometheusExporter(collector)

	cacheTTL := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
	catalogService := services.NewCatalogService(defStore, registry, defCache, cacheTTL, collector, exporter, zlog)

	// API server
	mux := http.NewServeMux()
	handlers.NewCatalogHandler(catalogService, zlog).RegisterRoutes(mux)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.HealthCheck(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	apiServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Metrics server; gauges refresh per scrape
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exporter.Update()
		promhttp.Handler().ServeHTTP(w, r)
	}))
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler: metricsMux,
	}

	serverErrors := make(chan error, 2)
	go func() {
		zlog.Infow("API server listening", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("API server error: %w", err)
		}
	}()
	go func() {
		zlog.Infow("metrics server listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-serverErrors:
		zlog.Fatalf("Server error: %v", err)
	case sig := <-sigChan:
		zlog.Infow("received signal, shutting down", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			zlog.Errorw("API server shutdown failed", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			zlog.Errorw("metrics server shutdown failed", "error", err)
		}
		if err := pg.Close(); err != nil {
			zlog.Errorw("error closing database connection", "error", err)
		}

		zlog.Info("shutdown complete")
	}
}
