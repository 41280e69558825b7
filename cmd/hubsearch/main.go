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

	"github.com/digital-hub-ai/hubsearch/internal/config"
	"github.com/digital-hub-ai/hubsearch/internal/db"
	dbMemory "github.com/digital-hub-ai/hubsearch/internal/db/memory"
	dbRedis "github.com/digital-hub-ai/hubsearch/internal/db/redis"
	"github.com/digital-hub-ai/hubsearch/internal/domain"
	logpkg "github.com/digital-hub-ai/hubsearch/internal/logger"
	"github.com/digital-hub-ai/hubsearch/internal/metrics"
	analyticsrepo "github.com/digital-hub-ai/hubsearch/internal/repository/analytics"
	collectionrepo "github.com/digital-hub-ai/hubsearch/internal/repository/collection"
	"github.com/digital-hub-ai/hubsearch/internal/repository/embcache"
	"github.com/digital-hub-ai/hubsearch/internal/repository/profilestore"
	"github.com/digital-hub-ai/hubsearch/internal/repository/resultcache"
	chiTransport "github.com/digital-hub-ai/hubsearch/internal/transport/chi"
	openaiEmb "github.com/digital-hub-ai/hubsearch/internal/transport/openai"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/clusterize"
	healthuc "github.com/digital-hub-ai/hubsearch/internal/usecase/health"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/personalize"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/rerank"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/scoring"
	searchuc "github.com/digital-hub-ai/hubsearch/internal/usecase/search"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/understand"
	"github.com/digital-hub-ai/hubsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting hubsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("content_dir", cfg.Collection.ContentDir),
	)

	// Create cache store based on driver
	var store db.Store
	switch cfg.Store.Driver {
	case "memory":
		store = dbMemory.NewStore()
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Store.Addrs,
			Password: cfg.Store.Password,
		})
	default:
		logger.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	// Embedder chain: OpenAI -> Cached. Take the first vectorizer config.
	var vecCfg config.VectorizerConfig
	var provName string
	for _, vc := range cfg.Embedding.Vectorizers {
		vecCfg = vc
		provName = vc.Provider
		break
	}
	provCfg := cfg.Embedding.Providers[provName]

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   provName,
		Logger:     logger,
	})
	embedder := embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	logger.Info("Embedder created",
		zap.String("provider", provName),
		zap.String("model", vecCfg.Model),
		zap.Int("dimensions", vecCfg.Dimensions),
	)

	// Repositories
	loader := collectionrepo.NewLoader(cfg.Collection.ContentDir)
	collRepo := collectionrepo.NewRepo(loader, time.Duration(cfg.Collection.RefreshTTLSec)*time.Second)
	profiles := profilestore.New()
	cache := resultcache.New(store, time.Duration(cfg.Search.CacheTTLSec)*time.Second)
	recorder := analyticsrepo.NewRecorder(store)

	// Pipeline stage services
	scoringSvc, err := scoring.NewService(embedder, scoring.Config{
		MinSimilarity:    cfg.Search.MinSimilarity,
		MinEmbedQueryLen: cfg.Search.MinEmbedQueryLen,
		FuzzyBlend:       cfg.Search.FuzzyBlend,
		ChunkSize:        cfg.Search.EmbedChunkSize,
		Workers:          cfg.Search.EmbedWorkers,
	})
	if err != nil {
		logger.Fatal("Failed to create scoring service", zap.Error(err))
	}
	defer scoringSvc.Release()

	searchSvc := searchuc.NewService(
		understand.NewService(),
		scoringSvc,
		personalize.NewService(personalize.Config{DiversityCeiling: cfg.Search.DiversityCeiling}),
		rerank.NewService(cfg.Search.Weights),
		clusterize.NewService(clusterize.Config{
			MaxClusters:        cfg.Search.MaxClusters,
			FeatureSubclusters: cfg.Search.FeatureSubcluster,
		}),
		collRepo,
		profiles,
		cache,
		recorder,
	)
	healthSvc := healthuc.New(collRepo, store, newEmbeddingHealthChecker(base))

	// Warm the collection before accepting traffic
	if n, err := collRepo.Len(logpkg.ContextWithLogger(ctx, logger)); err != nil {
		logger.Warn("Initial collection load failed", zap.Error(err))
	} else {
		logger.Info("Collection loaded", zap.Int("documents", n))
	}

	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware())
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

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
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
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
