package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/config"
	"github.com/kailas-cloud/rankdex/internal/db"
	dbRedis "github.com/kailas-cloud/rankdex/internal/db/redis"
	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/engine"
	logpkg "github.com/kailas-cloud/rankdex/internal/logger"
	"github.com/kailas-cloud/rankdex/internal/metrics"
	"github.com/kailas-cloud/rankdex/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/rankdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/rankdex/internal/transport/openai"
	"github.com/kailas-cloud/rankdex/internal/transport/rerank"
	"github.com/kailas-cloud/rankdex/internal/version"
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

	logger.Info("Starting rankdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Engine.Dimensions),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	// Optional embedding cache store. No addresses means every embedding
	// call hits the provider directly.
	var store db.Store
	if len(cfg.Cache.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		if err := store.WaitForReady(ctx, 30*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	docEmbedder := buildEmbedder(cfg, cfg.Embedding.DocumentInstruction, store, logger)
	queryEmbedder := buildEmbedder(cfg, cfg.Embedding.QueryInstruction, store, logger)

	// Optional reranker. An empty base_url disables the stage.
	var reranker domain.Reranker
	if cfg.Rerank.BaseURL != "" {
		reranker = rerank.NewClient(&rerank.Config{
			BaseURL: cfg.Rerank.BaseURL,
			APIKey:  cfg.Rerank.APIKey,
			Model:   cfg.Rerank.Model,
			Timeout: time.Duration(cfg.Rerank.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		logger.Info("Reranker enabled",
			zap.String("base_url", cfg.Rerank.BaseURL),
			zap.String("model", cfg.Rerank.Model),
		)
	}

	eng, err := engine.New(engine.Config{
		Dimensions:    cfg.Engine.Dimensions,
		DefaultTopK:   cfg.Engine.DefaultTopK,
		BM25TopK:      cfg.Engine.BM25TopK,
		EmbeddingTopK: cfg.Engine.EmbeddingTopK,
		FinalRerankK:  cfg.Engine.FinalRerankK,
	}, docEmbedder, reranker, logger)
	if err != nil {
		logger.Fatal("Failed to create engine", zap.Error(err))
	}
	eng.WithQueryEmbedder(queryEmbedder)

	if err := eng.SetWeights(domain.FusionWeights{
		BM25:      cfg.Engine.BM25Weight,
		Embedding: cfg.Engine.EmbeddingWeight,
	}); err != nil {
		logger.Fatal("Invalid fusion weights", zap.Error(err))
	}

	if cfg.Storage.LoadOnStart {
		if err := eng.Load(cfg.Storage.SnapshotPath); err != nil {
			// A missing snapshot on first boot is normal.
			logger.Warn("Could not load snapshot, starting empty",
				zap.String("path", cfg.Storage.SnapshotPath),
				zap.Error(err),
			)
		} else {
			metrics.DocumentsIndexed.Set(float64(eng.Len()))
		}
	}

	server := chiTransport.NewServer(eng, cfg.Storage.SnapshotPath, logger)
	r := server.Router()

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

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction.
func buildEmbedder(cfg config.Config, instruction string, store db.Store, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		MaxChars:   cfg.Embedding.MaxChars,
		Provider:   "openai",
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil {
		ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
		embedder = embcache.New(base, store, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	// Instruction prefix (outermost — cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}
