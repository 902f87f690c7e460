package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"retailense/internal/cache"
	"retailense/internal/config"
	"retailense/internal/middleware"
	"retailense/internal/observability"
	"retailense/internal/server"
	"retailense/internal/services"
	"retailense/internal/ui/templates"
)

const (
	renderTimeout  = 10 * time.Second
	csvLoadTimeout = 2 * time.Minute
	pingTimeout    = 3 * time.Second
	cacheMaxAge    = "public, max-age=300"
)

func newDashboardPage(dashboard *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		opts := dashboard.Options()
		props := templates.Props{
			Countries: opts.Countries,
			MinDate:   opts.MinDate,
			MaxDate:   opts.MaxDate,
			StartDate: opts.Defaults.StartDate,
			EndDate:   opts.Defaults.EndDate,
			Selected:  opts.Defaults.Countries,
			TopN:      opts.Defaults.TopN,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(props).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// newReportCache picks the memoization backend. An unreachable Redis falls
// back to the in-process store.
func newReportCache(cfg config.CacheConfig, logger *slog.Logger) (cache.Store, func(context.Context) error) {
	noop := func(context.Context) error { return nil }
	if cfg.Backend != "redis" {
		return cache.NewMemory(), noop
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-memory report cache", "addr", cfg.RedisAddr, "error", err)
		client.Close()
		return cache.NewMemory(), noop
	}

	logger.Info("using redis report cache", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return cache.NewRedis(client, logger), func(context.Context) error { return client.Close() }
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"address", cfg.Address(),
		"dataset", cfg.Dataset.CSVFile,
		"cache_backend", cfg.Cache.Backend,
	)

	reportCache, closeCache := newReportCache(cfg.Cache, logger)

	dashboard := services.NewDashboard(services.Settings{
		Cache:            reportCache,
		Logger:           logger,
		SnapshotDir:      cfg.Dataset.SnapshotDir,
		DefaultCountries: cfg.Dashboard.DefaultCountries,
		DefaultTopN:      cfg.Dashboard.TopN,
	})

	ctx, cancel := context.WithTimeout(context.Background(), csvLoadTimeout)
	defer cancel()

	start := time.Now()
	if err := dashboard.LoadFromCSV(ctx, cfg.Dataset.CSVFile); err != nil {
		logger.Error("failed to load dataset", "file", cfg.Dataset.CSVFile, "error", err)
		os.Exit(1)
	}
	duration := time.Since(start)
	logger.Info("dataset loaded successfully", "records", dashboard.RecordCount(), "duration", duration)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: newDashboardPage(dashboard),
	}

	srv := server.NewServer(dashboard, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("report cache", func(ctx context.Context) error {
		logger.Info("closing report cache")
		return closeCache(ctx)
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
