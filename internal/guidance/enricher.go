// Package guidance builds normalized forward-guidance entries for ingested
// documents. Enrichment is a cascade: cached results first, then a language
// model over a small set of candidate chunks, then a deterministic heuristic
// fallback so the output schema is stable with or without a model credential.
package guidance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"earnings-ai/internal/budget"
	"earnings-ai/internal/extract"
	"earnings-ai/internal/llm"
	"earnings-ai/internal/model"
	"earnings-ai/internal/storage"
	"earnings-ai/internal/store"
)

// DefaultMaxChunks caps how many candidate chunks go into the model prompt.
const DefaultMaxChunks = 12

var candidateKeywords = []string{"guidance", "outlook", "expect", "forecast", "target", "range"}

// Enricher produces and caches guidance entries per document.
type Enricher struct {
	chat          llm.ChatClient
	docs          *store.DocumentCache
	cache         *store.GuidanceCache
	docStore      storage.DocumentStore
	guidanceStore storage.GuidanceStore
	guard         *budget.Guard
	maxChunks     int
	logger        *slog.Logger
}

// NewEnricher creates an Enricher. docStore and guidanceStore may be nil when
// running without a database; guard may be nil to disable rebuild budgeting.
func NewEnricher(
	chat llm.ChatClient,
	docs *store.DocumentCache,
	cache *store.GuidanceCache,
	docStore storage.DocumentStore,
	guidanceStore storage.GuidanceStore,
	guard *budget.Guard,
	maxChunks int,
	logger *slog.Logger,
) *Enricher {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		chat:          chat,
		docs:          docs,
		cache:         cache,
		docStore:      docStore,
		guidanceStore: guidanceStore,
		guard:         guard,
		maxChunks:     maxChunks,
		logger:        logger,
	}
}

// Get returns guidance entries for a document, enriching on first access.
func (e *Enricher) Get(ctx context.Context, docID string) ([]model.GuidanceEntry, error) {
	if cached, ok := e.cache.Get(docID); ok && len(cached) > 0 {
		return cached, nil
	}
	return e.Enrich(ctx, docID, false)
}

// Enrich runs the enrichment cascade for a document. With force set, caches
// are bypassed and the rebuild budget is consumed; without it, a non-empty
// cached or persisted result is returned as-is.
func (e *Enricher) Enrich(ctx context.Context, docID string, force bool) ([]model.GuidanceEntry, error) {
	if force && e.guard != nil {
		if err := e.guard.Take(budget.OpGuidanceRebuild); err != nil {
			return nil, err
		}
	}

	doc := e.lookupDoc(ctx, docID)
	if doc == nil {
		return nil, fmt.Errorf("document %s: %w", docID, storage.ErrNotFound)
	}

	if !force {
		if cached, ok := e.cache.Get(docID); ok && len(cached) > 0 {
			return cached, nil
		}
		if e.guidanceStore != nil {
			persisted, err := e.guidanceStore.LoadGuidance(ctx, docID)
			if err != nil {
				e.logger.WarnContext(ctx, "guidance load failed", "doc_id", docID, "error", err)
			} else if len(persisted) > 0 {
				e.cache.Put(docID, persisted)
				return persisted, nil
			}
		}
	}

	if len(doc.Chunks) == 0 {
		return []model.GuidanceEntry{}, nil
	}

	candidates := candidateChunks(doc.Chunks, e.maxChunks)

	var entries []model.GuidanceEntry
	if e.chat != nil && e.chat.Enabled() {
		entries = e.runModel(ctx, candidates, doc.Meta)
	}
	if len(entries) == 0 {
		entries = heuristicFallback(candidates)
	}

	e.cache.Put(docID, entries)
	if e.guidanceStore != nil {
		if err := e.guidanceStore.SaveGuidance(ctx, docID, entries); err != nil {
			e.logger.WarnContext(ctx, "guidance persist failed", "doc_id", docID, "error", err)
		}
	}
	return entries, nil
}

func (e *Enricher) lookupDoc(ctx context.Context, docID string) *model.Document {
	if doc, ok := e.docs.Get(docID); ok {
		return doc
	}
	if e.docStore == nil {
		return nil
	}
	doc, err := e.docStore.LoadDocument(ctx, docID)
	if err != nil {
		return nil
	}
	e.docs.Put(doc)
	return doc
}

// candidateChunks picks chunks containing forward-looking keywords, up to
// limit. When nothing matches, the first chunks are used instead so the
// cascade always has material to work with.
func candidateChunks(chunks []model.Chunk, limit int) []model.Chunk {
	var selected []model.Chunk
	for _, c := range chunks {
		if len(selected) >= limit {
			break
		}
		text := strings.ToLower(c.Text)
		for _, kw := range candidateKeywords {
			if strings.Contains(text, kw) {
				selected = append(selected, c)
				break
			}
		}
	}
	if len(selected) == 0 {
		if len(chunks) > limit {
			chunks = chunks[:limit]
		}
		selected = chunks
	}
	return selected
}

func (e *Enricher) runModel(ctx context.Context, candidates []model.Chunk, meta model.DocumentMeta) []model.GuidanceEntry {
	prompt := buildPrompt(candidates, meta)
	raw, err := e.chat.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		e.logger.WarnContext(ctx, "guidance model call failed", "error", err)
		return nil
	}

	labelMap := make(map[string]model.Chunk, len(candidates))
	for i, c := range candidates {
		labelMap[chunkLabel(i)] = c
	}

	var entries []model.GuidanceEntry
	for _, item := range extractJSON(raw) {
		entry, ok := sanitizeEntry(item)
		if !ok {
			continue
		}
		attachCitation(&entry, labelMap)
		entry.ID = uuid.New().String()
		entry.Source = model.SourceModel
		entries = append(entries, entry)
	}
	return entries
}

// heuristicFallback converts pattern-detected guidance ranges into the same
// normalized entry schema the model path produces, tagged with low
// confidence and heuristic provenance.
func heuristicFallback(candidates []model.Chunk) []model.GuidanceEntry {
	ranges := extract.Guidance(candidates)
	entries := make([]model.GuidanceEntry, 0, len(ranges))
	for _, r := range ranges {
		entries = append(entries, model.GuidanceEntry{
			ID:         uuid.New().String(),
			Metric:     r.Type,
			Period:     r.Period,
			ValueLow:   model.Float64Ptr(r.Low),
			ValueHigh:  model.Float64Ptr(r.High),
			Unit:       r.Unit,
			Confidence: "low",
			Source:     model.SourceHeuristic,
			Citations:  r.Citations,
		})
	}
	return entries
}
