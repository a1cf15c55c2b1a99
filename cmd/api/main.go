package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"golang.org/x/time/rate"

	"earnings-ai/internal/budget"
	"earnings-ai/internal/config"
	"earnings-ai/internal/guidance"
	"earnings-ai/internal/handlers"
	"earnings-ai/internal/http"
	"earnings-ai/internal/ingest"
	"earnings-ai/internal/llm"
	"earnings-ai/internal/qa"
	"earnings-ai/internal/retrieve"
	"earnings-ai/internal/storage"
	"earnings-ai/internal/store"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API ingests earnings-call transcripts and financial filings, answers
// questions about them with citation-grounded bullets, and extracts structured
// metrics, guidance, and buyback activity from the ingested text.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Earnings AI API
//   description: |
//     Question answering and fact extraction over ingested earnings documents.
//     Ingest page text or markdown, then query for cited answers or pull
//     structured metrics, guidance, and buyback data.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize persistence when a database path is configured. Without one
	// the service runs from the in-memory caches alone.
	var docStore storage.DocumentStore
	var guidanceStore storage.GuidanceStore
	if cfg.DBEnabled {
		db, err := storage.New(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer func() {
			_ = db.Close()
		}()

		if err := storage.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		slog.Info("Database initialized", "path", cfg.DBPath)

		docStore = storage.NewDocumentRepo(db)
		guidanceStore = storage.NewGuidanceRepo(db)
	} else {
		slog.Warn("Persistence disabled, documents will not survive a restart")
	}

	// Model clients share one rate limiter so chat and guidance calls draw
	// from the same allowance; embeddings get their own.
	observer := llm.NewLogObserver()
	chatLimiter := rate.NewLimiter(rate.Limit(2), 4)
	embedLimiter := rate.NewLimiter(rate.Limit(5), 10)
	chatClient := llm.NewClient(cfg.OpenAIAPIKey, cfg.ChatModel, chatLimiter, observer)
	guidanceClient := llm.NewClient(cfg.OpenAIAPIKey, cfg.GuidanceModel, chatLimiter, observer)
	embedder := llm.NewEmbeddingsClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel, embedLimiter, observer)
	if chatClient.Enabled() {
		slog.Info("Model clients configured", "chat_model", cfg.ChatModel, "embedding_model", cfg.EmbeddingModel)
	} else {
		slog.Warn("No API key configured, running with deterministic fallbacks only")
	}

	// In-memory caches and the process budget guard
	docs := store.NewDocumentCache()
	guidanceCache := store.NewGuidanceCache()
	guard := budget.NewGuard(map[string]int{
		budget.OpQuery:           cfg.MaxQueries,
		budget.OpGuidanceRebuild: cfg.MaxRebuilds,
	})

	// Ingestion, retrieval, and answer synthesis
	pipeline := ingest.NewPipeline(embedder, docs, docStore, cfg.ChunkTargetChars, cfg.ChunkOverlapChars, cfg.IngestConcurrency, logger)
	retriever := retrieve.NewRetriever(embedder)
	synthesizer := qa.NewSynthesizer(chatClient, logger)
	enricher := guidance.NewEnricher(guidanceClient, docs, guidanceCache, docStore, guidanceStore, guard, cfg.GuidanceMaxChunks, logger)
	resolver := handlers.NewDocResolver(docs, docStore)

	// Create router with dependencies
	deps := &http.Deps{
		Query:       handlers.NewQueryHandler(guard, resolver, retriever, synthesizer),
		Documents:   handlers.NewDocumentsHandler(pipeline, resolver),
		Extract:     handlers.NewExtractHandler(resolver, enricher),
		Health:      handlers.NewHealthHandler(docs, chatClient, guard),
		CORSOrigins: cfg.CORSOrigins,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("Budget configuration", "max_queries", cfg.MaxQueries, "max_guidance_rebuilds", cfg.MaxRebuilds)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
