package retrieve

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"earnings-ai/internal/contextutil"
	"earnings-ai/internal/index"
	"earnings-ai/internal/model"
)

// ErrInsufficientContext signals that retrieval produced no evidence at all.
// Callers render it as an explicit "insufficient" result, not a failure.
var ErrInsufficientContext = errors.New("insufficient context")

const (
	topKPerVariant = 6
	maxMerged      = 8
	maxEvidence    = 10
)

// Embedder is the embedding boundary the retriever depends on.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) [][]float32
}

// Retriever turns a question plus a document's chunk/embedding data into a
// bounded, ordered evidence set.
type Retriever struct {
	embedder Embedder
}

// NewRetriever creates a Retriever.
func NewRetriever(embedder Embedder) *Retriever {
	return &Retriever{embedder: embedder}
}

type scoredChunk struct {
	chunk model.Chunk
	pos   int
	score float64
}

// Evidence retrieves the evidence chunks for a question against one document.
// It expands the question, embeds all variants in one batch, searches the
// document index per variant, merges by best score per chunk, and widens the
// result with positionally adjacent chunks for continuity.
func (r *Retriever) Evidence(ctx context.Context, question string, doc *model.Document) ([]model.Chunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	ix, err := index.New(doc.Embeddings, doc.Chunks)
	if err != nil {
		return nil, fmt.Errorf("building index for doc %s: %w", doc.ID, err)
	}

	pos := make(map[string]int, len(doc.Chunks))
	for i, c := range doc.Chunks {
		pos[c.ID] = i
	}

	variants := ExpandQuery(question)
	qvecs := r.embedder.EmbedTexts(ctx, variants)

	best := make(map[string]scoredChunk)
	for _, qv := range qvecs {
		for _, res := range ix.Search(qv, topKPerVariant) {
			prev, ok := best[res.Chunk.ID]
			if !ok || res.Score > prev.score {
				best[res.Chunk.ID] = scoredChunk{chunk: res.Chunk, pos: pos[res.Chunk.ID], score: res.Score}
			}
		}
	}

	merged := make([]scoredChunk, 0, len(best))
	for _, s := range best {
		merged = append(merged, s)
	}
	sort.Slice(merged, func(a, b int) bool {
		if merged[a].score != merged[b].score {
			return merged[a].score > merged[b].score
		}
		return merged[a].pos < merged[b].pos
	})
	if len(merged) > maxMerged {
		merged = merged[:maxMerged]
	}

	if len(merged) == 0 {
		return nil, ErrInsufficientContext
	}

	logger.InfoContext(ctx, "retrieval merged",
		"doc_id", doc.ID,
		"variants", len(variants),
		"merged", len(merged),
		"top_score", merged[0].score,
	)

	return widenWithNeighbors(doc.Chunks, merged, maxEvidence), nil
}

// widenWithNeighbors adds each selected chunk's immediate predecessor and
// successor, preserving selection order and skipping duplicates, until the
// evidence limit is reached.
func widenWithNeighbors(chunks []model.Chunk, selected []scoredChunk, limit int) []model.Chunk {
	seen := make(map[string]bool, limit)
	out := make([]model.Chunk, 0, limit)
	add := func(i int) bool {
		if i < 0 || i >= len(chunks) {
			return false
		}
		id := chunks[i].ID
		if seen[id] {
			return false
		}
		seen[id] = true
		out = append(out, chunks[i])
		return len(out) >= limit
	}

	for _, s := range selected {
		for _, j := range []int{s.pos - 1, s.pos, s.pos + 1} {
			if add(j) {
				return out
			}
		}
	}
	return out
}
