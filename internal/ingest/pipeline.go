// Package ingest turns source documents (pre-extracted pages or markdown)
// into chunked, embedded, cached and persisted documents ready for querying.
package ingest

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"earnings-ai/internal/chunker"
	"earnings-ai/internal/model"
	"earnings-ai/internal/storage"
	"earnings-ai/internal/store"
)

// DefaultConcurrency bounds how many batch items are ingested in parallel.
const DefaultConcurrency = 6

// ErrNoContent is returned when a document yields no chunks.
var ErrNoContent = errors.New("document produced no chunks")

// Embedder is the embedding dependency of the pipeline.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) [][]float32
}

// Pipeline orchestrates ingestion: chunk, embed, cache, persist.
type Pipeline struct {
	embedder     Embedder
	docs         *store.DocumentCache
	docStore     storage.DocumentStore
	targetChars  int
	overlapChars int
	sem          *semaphore.Weighted
	logger       *slog.Logger
}

// NewPipeline creates a Pipeline. docStore may be nil when running without a
// database; persistence is then skipped. concurrency caps parallel batch
// ingestion.
func NewPipeline(embedder Embedder, docs *store.DocumentCache, docStore storage.DocumentStore, targetChars, overlapChars, concurrency int, logger *slog.Logger) *Pipeline {
	if targetChars <= 0 {
		targetChars = chunker.DefaultTargetChars
	}
	if overlapChars < 0 {
		overlapChars = chunker.DefaultOverlapChars
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		embedder:     embedder,
		docs:         docs,
		docStore:     docStore,
		targetChars:  targetChars,
		overlapChars: overlapChars,
		sem:          semaphore.NewWeighted(int64(concurrency)),
		logger:       logger,
	}
}

// IngestPages ingests a document given as pre-extracted pages. The returned
// document is already cached; persistence failures are logged, not fatal,
// since the in-memory copy is immediately queryable.
func (p *Pipeline) IngestPages(ctx context.Context, pages []model.Page, meta model.DocumentMeta) (*model.Document, error) {
	chunks := chunker.ChunkPages(pages, p.targetChars, p.overlapChars)
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings := p.embedder.EmbedTexts(ctx, texts)
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	meta.ContentHash = contentHash(pages)
	meta.PageCount = len(pages)
	if meta.ByteSize == 0 {
		for _, pg := range pages {
			meta.ByteSize += int64(len(pg.Text))
		}
	}
	meta.IngestStatus = "ingested"

	doc := &model.Document{
		ID:         uuid.New().String(),
		Chunks:     chunks,
		Embeddings: embeddings,
		Meta:       meta,
	}
	p.docs.Put(doc)

	if p.docStore != nil {
		if err := p.docStore.SaveDocument(ctx, doc); err != nil {
			p.logger.WarnContext(ctx, "document persist failed", "doc_id", doc.ID, "error", err)
		}
	}

	p.logger.InfoContext(ctx, "ingested document",
		"doc_id", doc.ID, "pages", len(pages), "chunks", len(chunks), "ticker", meta.Ticker)
	return doc, nil
}

// IngestMarkdown ingests markdown content, deriving pages from its structure.
func (p *Pipeline) IngestMarkdown(ctx context.Context, content []byte, meta model.DocumentMeta) (*model.Document, error) {
	pages := PagesFromMarkdown(content)
	meta.ByteSize = int64(len(content))
	return p.IngestPages(ctx, pages, meta)
}

// BatchItem is one document in a batch ingest request. Either Pages or
// Markdown is set.
type BatchItem struct {
	Meta     model.DocumentMeta
	Pages    []model.Page
	Markdown []byte
}

// BatchResult reports the outcome of one batch item.
type BatchResult struct {
	Ticker     string `json:"ticker,omitempty"`
	Filename   string `json:"filename,omitempty"`
	OK         bool   `json:"ok"`
	DocID      string `json:"doc_id,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// IngestBatch ingests a set of documents concurrently, bounded by the
// pipeline's concurrency limit. Per-item failures are reported in the result,
// never aborting the rest of the batch. Results keep input order.
func (p *Pipeline) IngestBatch(ctx context.Context, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		results[i] = BatchResult{Ticker: item.Meta.Ticker, Filename: item.Meta.Filename}

		if err := p.sem.Acquire(ctx, 1); err != nil {
			results[i].Error = err.Error()
			continue
		}

		wg.Add(1)
		go func(i int, item BatchItem) {
			defer wg.Done()
			defer p.sem.Release(1)

			var doc *model.Document
			var err error
			if item.Markdown != nil {
				doc, err = p.IngestMarkdown(ctx, item.Markdown, item.Meta)
			} else {
				doc, err = p.IngestPages(ctx, item.Pages, item.Meta)
			}
			if err != nil {
				results[i].Error = err.Error()
				return
			}
			results[i].OK = true
			results[i].DocID = doc.ID
			results[i].ChunkCount = len(doc.Chunks)
		}(i, item)
	}
	wg.Wait()

	return results
}

// contentHash fingerprints the page text so re-ingests of identical content
// are detectable.
func contentHash(pages []model.Page) string {
	h := sha256.New()
	for _, pg := range pages {
		h.Write([]byte(pg.Text))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
