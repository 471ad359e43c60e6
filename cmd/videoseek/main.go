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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/videoseek/internal/config"
	"github.com/kailas-cloud/videoseek/internal/db"
	dbRedis "github.com/kailas-cloud/videoseek/internal/db/redis"
	"github.com/kailas-cloud/videoseek/internal/domain"
	logpkg "github.com/kailas-cloud/videoseek/internal/logger"
	"github.com/kailas-cloud/videoseek/internal/metrics"
	"github.com/kailas-cloud/videoseek/internal/repository/catalog"
	"github.com/kailas-cloud/videoseek/internal/sas"
	chiTransport "github.com/kailas-cloud/videoseek/internal/transport/chi"
	"github.com/kailas-cloud/videoseek/internal/transport/indexer"
	healthuc "github.com/kailas-cloud/videoseek/internal/usecase/health"
	playbackuc "github.com/kailas-cloud/videoseek/internal/usecase/playback"
	searchuc "github.com/kailas-cloud/videoseek/internal/usecase/search"
	sessionuc "github.com/kailas-cloud/videoseek/internal/usecase/session"
	"github.com/kailas-cloud/videoseek/internal/version"
)

func main() {
	// Local development: pull credentials from .env if present.
	// Real deployments inject environment variables directly.
	_ = godotenv.Load()

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

	logger.Info("Starting videoseek API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_name", cfg.Indexer.IndexName),
		zap.Bool("catalog_cache", len(cfg.Cache.Addrs) > 0),
	)

	// Catalog cache is optional: empty addrs runs without it and every
	// playback miss pays a full catalog listing.
	var store db.Store
	if len(cfg.Cache.Addrs) > 0 {
		redisStore, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer redisStore.Close()

		ctx := context.Background()
		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := redisStore.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to catalog cache", zap.Strings("addrs", cfg.Cache.Addrs))
		store = redisStore
	}

	// Register retrieval metrics explicitly (no init())
	metrics.RegisterRetrievalMetrics()

	indexClient := indexer.NewClient(&indexer.Config{
		Endpoint:        cfg.Indexer.Endpoint,
		IndexName:       cfg.Indexer.IndexName,
		APIVersion:      cfg.Indexer.APIVersion,
		SubscriptionKey: cfg.Indexer.SubscriptionKey,
		RequestTimeout:  time.Duration(cfg.Indexer.RequestTimeoutSec) * time.Second,
		Logger:          logger,
	})

	catalogTTL := time.Duration(cfg.Cache.CatalogTTLSec) * time.Second
	var resolver *catalog.Resolver
	if store != nil {
		resolver = catalog.New(indexClient, store, catalogTTL, logger)
	} else {
		resolver = catalog.New(indexClient, nil, catalogTTL, logger)
	}

	signer := sas.NewSigner(sas.Credentials{
		AccountName: cfg.Storage.AccountName,
		AccountKey:  cfg.Storage.AccountKey,
	}, cfg.Storage.ContainerName)

	// Create use case services
	searchSvc := searchuc.New(indexClient)
	playbackSvc := playbackuc.New(resolver, signer, time.Duration(cfg.Storage.SASTTLSec)*time.Second)
	sessionSvc := sessionuc.New(domain.ModeVision)

	// Pass nil interface (not typed nil pointer!) if the cache is disabled.
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(cachePinger, indexClient)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, playbackSvc, sessionSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
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

	logger.Info("Server stopped gracefully")
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

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
