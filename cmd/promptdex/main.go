package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/config"
	"github.com/kailas-cloud/promptdex/internal/db"
	dbPostgres "github.com/kailas-cloud/promptdex/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/promptdex/internal/db/redis"
	"github.com/kailas-cloud/promptdex/internal/domain"
	domrec "github.com/kailas-cloud/promptdex/internal/domain/recommend"
	domvec "github.com/kailas-cloud/promptdex/internal/domain/vector"
	logpkg "github.com/kailas-cloud/promptdex/internal/logger"
	"github.com/kailas-cloud/promptdex/internal/metrics"
	"github.com/kailas-cloud/promptdex/internal/repository/cache"
	"github.com/kailas-cloud/promptdex/internal/repository/embcache"
	interactionrepo "github.com/kailas-cloud/promptdex/internal/repository/interaction"
	promptrepo "github.com/kailas-cloud/promptdex/internal/repository/prompt"
	vectorrepo "github.com/kailas-cloud/promptdex/internal/repository/vector"
	chiTransport "github.com/kailas-cloud/promptdex/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/promptdex/internal/transport/openai"
	authoringuc "github.com/kailas-cloud/promptdex/internal/usecase/authoring"
	embeddinguc "github.com/kailas-cloud/promptdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/promptdex/internal/usecase/health"
	"github.com/kailas-cloud/promptdex/internal/usecase/memoize"
	promptuc "github.com/kailas-cloud/promptdex/internal/usecase/prompt"
	recommenduc "github.com/kailas-cloud/promptdex/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/promptdex/internal/usecase/search"
	"github.com/kailas-cloud/promptdex/internal/version"
)

func main() {
	backfill := flag.Bool("backfill", false, "embed prompts that have no embedding, then exit")
	reindex := flag.Bool("reindex", false, "copy stored embeddings into the vector index, then exit")
	flag.Parse()

	// Load configuration based on ENV
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

	logger.Info("Starting promptdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.String("vector_driver", cfg.Vector.Driver),
	)

	ctx := context.Background()
	vecCfg := cfg.Embedding.Vectorizer

	// Relational store: prompts, interactions, embeddings
	readyCtx, cancelReady := context.WithTimeout(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second)
	pg, err := dbPostgres.NewStore(readyCtx, dbPostgres.Config{
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    time.Duration(cfg.Database.ConnMaxLifetimeSec) * time.Second,
		Dimensions:         vecCfg.Dimensions,
		HNSWM:              cfg.Vector.HNSWM,
		HNSWEFConstruction: cfg.Vector.HNSWEFConstruct,
		Migrate:            cfg.Database.Migrate,
	})
	cancelReady()
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = pg.Close() }()
	logger.Info("Connected to database")

	// Key-value store: result cache, embedding cache and optionally the vector index
	var kv *dbRedis.Store
	if cfg.Cache.Driver == "redis" || cfg.Cache.Driver == "valkey" {
		kv, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer kv.Close()
		if err := kv.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Cache.Addrs))
	}
	resultCache := buildCache(cfg.Cache, kv)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()
	metrics.RegisterHTTPMetrics()

	// Build embedder chain (composition root)
	provName := vecCfg.Provider
	provCfg := cfg.Embedding.Providers[provName]
	embedTTL := time.Duration(cfg.Embedding.CacheTTLSec) * time.Second
	docEmbedder := buildEmbedder(provName, provCfg, vecCfg, vecCfg.DocumentInstruction, resultCache, embedTTL, logger)
	queryEmbedder := buildEmbedder(provName, provCfg, vecCfg, vecCfg.QueryInstruction, resultCache, embedTTL, logger)
	logger.Info("Embedders created",
		zap.String("provider", provName),
		zap.String("model", vecCfg.Model),
		zap.Int("dimensions", vecCfg.Dimensions),
	)

	// Repositories
	prompts := promptrepo.New(pg)
	interactions := interactionrepo.New(pg)

	var (
		index       nearestIndex
		indexWriter promptuc.IndexWriter
	)
	switch cfg.Vector.Driver {
	case "redis":
		ri := vectorrepo.NewRedisIndex(kv, vectorrepo.RedisIndexConfig{
			Prefix:         cfg.Vector.IndexPrefix,
			Dimensions:     vecCfg.Dimensions,
			Algorithm:      db.VectorHNSW,
			M:              cfg.Vector.HNSWM,
			EFConstruction: cfg.Vector.HNSWEFConstruct,
		})
		if err := ri.EnsureIndex(ctx); err != nil {
			logger.Fatal("Failed to create vector index", zap.Error(err))
		}
		index, indexWriter = ri, ri
	default:
		index = vectorrepo.NewPGVector(pg)
	}

	// Use cases
	memo := memoize.New(resultCache, logger)

	promptSvc := promptuc.New(prompts, docEmbedder, indexWriter, memo, logger)
	searchSvc := searchuc.New(prompts, prompts, index, queryEmbedder, memo, searchuc.Config{
		MinSimilarity:     cfg.Search.MinSimilarity,
		RRFK:              cfg.Search.RRFK,
		SemanticOverfetch: cfg.Search.SemanticOverfetch,
		KeywordFallback:   cfg.Search.HybridKeywordFallback,
		CacheTTL:          time.Duration(cfg.Search.CacheTTLSec) * time.Second,
	}, logger)
	recommendSvc := recommenduc.New(interactions, prompts, index, memo, recommenduc.Config{
		ProfileInteractions: cfg.Recommend.ProfileInteractions,
		MinSimilarity:       cfg.Recommend.MinSimilarity,
		MaxLimit:            cfg.Recommend.MaxLimit,
		ProfileTTL:          time.Duration(cfg.Recommend.ProfileTTLSec) * time.Second,
		RecommendationsTTL:  time.Duration(cfg.Recommend.RecommendationsTTLSec) * time.Second,
		SimilarTTL:          time.Duration(cfg.Recommend.SimilarTTLSec) * time.Second,
		TrendingTTL:         time.Duration(cfg.Recommend.TrendingTTLSec) * time.Second,
		FallbackWindow:      domrec.Week,
	}, logger)

	// Maintenance modes run once and exit.
	if *backfill || *reindex {
		runMaintenance(ctx, promptSvc, *backfill, *reindex, logger)
		return
	}

	// Pass a nil interface (not a typed nil pointer) when authoring is disabled.
	var authoring chiTransport.Authoring
	if cfg.Completion.Provider != "" {
		compProv := cfg.Embedding.Providers[cfg.Completion.Provider]
		completer := openaiTransport.NewCompleter(&openaiTransport.Config{
			APIKey:   compProv.APIKey,
			BaseURL:  compProv.BaseURL,
			Model:    cfg.Completion.Model,
			Provider: cfg.Completion.Provider,
			Logger:   logger,
		})
		authoring = authoringuc.New(completer, authoringuc.Config{
			MaxTokens:   cfg.Completion.MaxTokens,
			Temperature: cfg.Completion.Temperature,
		}, logger)
		logger.Info("Authoring enabled", zap.String("model", cfg.Completion.Model))
	}

	healthSvc := healthuc.New(pg, memo, newEmbeddingHealthChecker(docEmbedder), logger)

	server := chiTransport.NewServer(chiTransport.Services{
		Search:    searchSvc,
		Recommend: recommendSvc,
		Prompts:   promptSvc,
		Authoring: authoring,
		Health:    healthSvc,
	}, chiTransport.Limits{
		SearchDefault:    cfg.Search.DefaultLimit,
		SearchMax:        cfg.Search.MaxLimit,
		RecommendDefault: cfg.Recommend.DefaultLimit,
	}, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.RecovererMiddleware(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.Handler(server, chiTransport.RouterOptions{
		BaseRouter:  r,
		Middlewares: []func(http.Handler) http.Handler{chiTransport.IdentityMiddleware()},
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// nearestIndex is what the engines need from either vector backend.
type nearestIndex interface {
	Nearest(ctx context.Context, q domvec.NearestQuery) ([]domvec.Neighbor, error)
}

// kvCache is the cache contract shared by memoization and the embedding cache.
type kvCache interface {
	memoize.Cache
}

func buildCache(cfg config.CacheConfig, kv *dbRedis.Store) kvCache {
	if kv != nil {
		return cache.NewRedis(kv)
	}
	return cache.NewMemory(cfg.Capacity, time.Duration(cfg.MaxTTLSec)*time.Second)
}

func runMaintenance(ctx context.Context, svc *promptuc.Service, backfill, reindex bool, logger *zap.Logger) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if backfill {
		n, err := svc.Backfill(ctx, 100)
		if err != nil {
			logger.Fatal("Backfill failed", zap.Int("embedded", n), zap.Error(err))
		}
		logger.Info("Backfill finished", zap.Int("embedded", n))
	}
	if reindex {
		n, err := svc.Reindex(ctx, 500)
		if err != nil {
			logger.Fatal("Reindex failed", zap.Int("indexed", n), zap.Error(err))
		}
		logger.Info("Reindex finished", zap.Int("indexed", n))
	}
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

// buildEmbedder assembles the decorator chain: OpenAI -> Instrumented -> Cached -> Instruction.
// Instrumentation sits below the cache so hits do not count as provider usage.
func buildEmbedder(
	provName string,
	provCfg config.ProviderConfig,
	vecCfg config.VectorizerConfig,
	instruction string,
	store kvCache,
	ttl time.Duration,
	logger *zap.Logger,
) domain.Embedder {
	// Base provider (with transport metrics built-in)
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   provName,
		Logger:     logger,
	})

	domCfg := domain.DefaultVectorConfig()
	domCfg.Model = vecCfg.Model
	domCfg.Dimensions = vecCfg.Dimensions
	domCfg.MaxInputChars = vecCfg.MaxInputChars

	var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(base, provName, domCfg, logger)
	embedder = embcache.New(embedder, store, vecCfg.Model, ttl, metrics.EmbeddingCacheTotal, logger)

	// Instruction prefix (outermost, so the cache key includes the instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}
