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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/assess"
	"github.com/marketmind/researchd/internal/config"
	dbRedis "github.com/marketmind/researchd/internal/db/redis"
	"github.com/marketmind/researchd/internal/domain"
	"github.com/marketmind/researchd/internal/gather"
	"github.com/marketmind/researchd/internal/index/lexical"
	"github.com/marketmind/researchd/internal/indexer"
	logpkg "github.com/marketmind/researchd/internal/logger"
	"github.com/marketmind/researchd/internal/memory"
	"github.com/marketmind/researchd/internal/metrics"
	"github.com/marketmind/researchd/internal/pipeline"
	"github.com/marketmind/researchd/internal/retriever"
	"github.com/marketmind/researchd/internal/router"
	chiTransport "github.com/marketmind/researchd/internal/transport/chi"
	"github.com/marketmind/researchd/internal/transport/marketdata"
	openaiTransport "github.com/marketmind/researchd/internal/transport/openai"
	"github.com/marketmind/researchd/internal/transport/websearch"
	"github.com/marketmind/researchd/internal/version"
)

func main() {
	// .env is optional; config env substitution picks the values up.
	_ = godotenv.Load()

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

	logger.Info("Starting researchd API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:     cfg.Database.Addrs,
		Username:  cfg.Database.Username,
		Password:  cfg.Database.Password,
		DB:        cfg.Database.DB,
		KeyPrefix: cfg.Database.KeyPrefix,
	})
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Vector store not ready", zap.Error(err))
	}
	logger.Info("Connected to vector store")

	// Register research metrics explicitly (no init())
	metrics.RegisterResearchMetrics()

	embedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:  cfg.Generation.APIKey,
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
		Logger:  logger,
	})
	logger.Info("Providers created",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("generation_model", cfg.Generation.Model),
	)

	// Pass nil interface (not typed nil pointer!) when reranking is off.
	// Go gotcha: (*Reranker)(nil) wrapped in domain.Reranker != nil.
	var rerank domain.Reranker
	if cfg.Rerank.Enabled {
		rerank = openaiTransport.NewReranker(&openaiTransport.RerankerConfig{
			APIKey:  cfg.Generation.APIKey,
			BaseURL: cfg.Generation.BaseURL,
			Model:   cfg.Rerank.Model,
			Logger:  logger,
		})
	}

	lex := lexical.New()
	ix := indexer.New(lex, store, embedder, cfg.Retrieval.Collection, cfg.Embedding.Dimensions, logger)
	if err := ix.Init(ctx); err != nil {
		logger.Fatal("Failed to initialize document collection", zap.Error(err))
	}
	if n, err := ix.RebuildLexical(ctx); err != nil {
		logger.Warn("Lexical index rebuild incomplete", zap.Error(err))
	} else {
		logger.Info("Lexical index rebuilt", zap.Int("documents", n))
	}

	retr := retriever.New(lex, store, embedder, generator, rerank, retriever.Config{
		RRFK:       cfg.Retrieval.RRFK,
		PoolFactor: cfg.Retrieval.PoolFactor,
		Collection: cfg.Retrieval.Collection,
	}, logger)

	memCfg := memory.DefaultConfig(cfg.Embedding.Dimensions)
	memCfg.MinSimilarity = cfg.Memory.MinSimilarity
	memCfg.FreshTTL = time.Duration(cfg.Memory.FreshTTLHours) * time.Hour
	mem := memory.New(store, embedder, memCfg, logger)
	if err := mem.Init(ctx); err != nil {
		logger.Fatal("Failed to initialize memory store", zap.Error(err))
	}

	market := marketdata.NewClient(marketdata.Config{
		BaseURL: cfg.MarketData.BaseURL,
		APIKey:  cfg.MarketData.APIKey,
	}, logger)
	web := websearch.NewClient(websearch.Config{
		BaseURL: cfg.WebSearch.BaseURL,
	}, logger)

	gatherer := gather.New(retr, mem, market, web, gather.Config{
		RetrieveK:   cfg.Retrieval.K,
		MemoryK:     cfg.Gather.MemoryK,
		WebK:        cfg.Gather.WebK,
		MinEvidence: cfg.Gather.MinEvidence,
	}, logger)

	engine := assess.New(assess.Thresholds{
		TolerancePct:   cfg.Assess.TolerancePct,
		SignificantPct: cfg.Assess.SignificantPct,
	}, logger)

	synth := openaiTransport.NewSynthesizer(generator)

	pipe := pipeline.New(router.New(logger), gatherer, engine, mem, synth, pipeline.Config{
		QuickTimeout: time.Duration(cfg.Pipeline.QuickTimeoutSec) * time.Second,
		DeepTimeout:  time.Duration(cfg.Pipeline.DeepTimeoutSec) * time.Second,
	}, logger)

	server := chiTransport.NewServer(pipe, ix, mem, store, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", server.Routes())

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

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
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
