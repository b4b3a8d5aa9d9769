package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/gridwatch/searchsync/internal/config"
	"github.com/gridwatch/searchsync/internal/db"
	dbPostgres "github.com/gridwatch/searchsync/internal/db/postgres"
	dbRedis "github.com/gridwatch/searchsync/internal/db/redis"
	"github.com/gridwatch/searchsync/internal/domain/entity"
	logpkg "github.com/gridwatch/searchsync/internal/logger"
	"github.com/gridwatch/searchsync/internal/metrics"
	auditrepo "github.com/gridwatch/searchsync/internal/repository/audit"
	entityrepo "github.com/gridwatch/searchsync/internal/repository/entity"
	indexrepo "github.com/gridwatch/searchsync/internal/repository/index"
	notifyrepo "github.com/gridwatch/searchsync/internal/repository/notify"
	chiTransport "github.com/gridwatch/searchsync/internal/transport/chi"
	healthuc "github.com/gridwatch/searchsync/internal/usecase/health"
	monitoruc "github.com/gridwatch/searchsync/internal/usecase/monitor"
	projectuc "github.com/gridwatch/searchsync/internal/usecase/project"
	searchuc "github.com/gridwatch/searchsync/internal/usecase/search"
	syncuc "github.com/gridwatch/searchsync/internal/usecase/sync"
	"github.com/gridwatch/searchsync/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchsync",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("index_disabled", cfg.Index.Disabled),
	)

	ctx := context.Background()

	// Index store (Redis). When the index is disabled the whole search
	// subsystem degrades to a clean no-op instead of failing startup.
	var store db.Store
	if !cfg.Index.Disabled {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Index.Addrs,
			Password: cfg.Index.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create index store", zap.Error(err))
		}
		defer store.Close()

		readiness := time.Duration(cfg.Index.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Index store not ready", zap.Error(err))
		}
		logger.Info("Connected to index store")
	}

	// Primary store (Postgres), read-only from this service.
	pool, err := dbPostgres.NewPool(ctx, dbPostgres.Config{
		URL:            cfg.Primary.URL,
		MaxConnections: cfg.Primary.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to primary store", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("Connected to primary store")

	metrics.RegisterPipelineMetrics()

	entities := entityrepo.New(pool)
	projector := projectuc.New(entities, logger)

	auditor := auditrepo.New(pool)

	var idx *indexrepo.Repo
	var healthSvc *healthuc.Service
	var notifier searchuc.Notifier
	if store != nil {
		idx = indexrepo.New(store)
		if err := idx.EnsureIndexes(ctx); err != nil {
			logger.Fatal("Failed to create search indexes", zap.Error(err))
		}
		healthSvc = healthuc.New(store, entities)
		notifier = notifyrepo.New(store)
	} else {
		healthSvc = healthuc.New(nil, entities)
	}

	syncSvc := syncuc.New(entities, idx, projector, syncuc.Config{
		Workers:   cfg.Sync.Workers,
		QueueSize: cfg.Sync.QueueSize,
		Disabled:  cfg.Index.Disabled,
	}, logger)

	monitorSvc := monitoruc.New(cfg.Monitor.Capacity)

	searchSvc := searchuc.New(idx, monitorSvc, weightsFromConfig(cfg.Search.Weights), logger).
		WithSideEffects(auditor, notifier).
		WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize).
		WithTypeTimeout(time.Duration(cfg.Search.TypeTimeoutMS) * time.Millisecond).
		WithDisabled(cfg.Index.Disabled)

	if cfg.Sync.ResyncOnStart && !cfg.Index.Disabled {
		// A resync can take minutes on a large corpus; never hold up startup.
		go func() {
			n := syncSvc.ResyncAll(context.Background())
			logger.Info("Startup resync finished", zap.Int("indexed", n))
		}()
	}

	server := chiTransport.NewServer(searchSvc, syncSvc, monitorSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.Tokens))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Drain queued index writes before releasing the stores.
	syncSvc.Close()

	logger.Info("Server stopped gracefully")
}

// weightsFromConfig overlays configured per-type weights onto the defaults.
func weightsFromConfig(raw map[string]float64) searchuc.Weights {
	weights := searchuc.DefaultWeights()
	for name, w := range raw {
		t, err := entity.Parse(name)
		if err != nil {
			continue
		}
		weights[t] = w
	}
	return weights
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
