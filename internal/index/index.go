// Package index implements the per-document vector index: cosine similarity
// search over a document's embedding matrix.
package index

import (
	"fmt"
	"math"
	"sort"

	"earnings-ai/internal/model"
)

const normEpsilon = 1e-8

// Result pairs a chunk with its similarity to the query.
type Result struct {
	Chunk model.Chunk
	Score float64
}

// Index holds a document's chunk list and embedding matrix, aligned by index.
type Index struct {
	chunks []model.Chunk
	embs   [][]float32
	norms  []float64
}

// New builds an index. The embedding matrix must have exactly one row per
// chunk.
func New(embeddings [][]float32, chunks []model.Chunk) (*Index, error) {
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedding rows (%d) do not match chunk count (%d)", len(embeddings), len(chunks))
	}
	norms := make([]float64, len(embeddings))
	for i, row := range embeddings {
		norms[i] = l2(row) + normEpsilon
	}
	return &Index{chunks: chunks, embs: embeddings, norms: norms}, nil
}

// Search returns the k chunks most similar to the query vector, descending by
// cosine similarity. Ties keep original chunk order.
func (ix *Index) Search(query []float32, k int) []Result {
	if k <= 0 || len(ix.chunks) == 0 {
		return nil
	}
	qnorm := l2(query) + normEpsilon

	results := make([]Result, len(ix.chunks))
	for i, row := range ix.embs {
		results[i] = Result{
			Chunk: ix.chunks[i],
			Score: dot(row, query) / (ix.norms[i] * qnorm),
		}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if k < len(results) {
		results = results[:k]
	}
	return results
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func l2(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
