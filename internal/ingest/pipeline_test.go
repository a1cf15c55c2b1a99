package ingest

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"earnings-ai/internal/model"
	"earnings-ai/internal/store"
)

// stubEmbedder returns fixed-dimension vectors and counts calls.
type stubEmbedder struct {
	dim   int
	calls atomic.Int64
}

func (s *stubEmbedder) EmbedTexts(_ context.Context, texts []string) [][]float32 {
	s.calls.Add(1)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, s.dim)
		out[i][0] = 1
	}
	return out
}

func testPages() []model.Page {
	return []model.Page{
		{Number: 1, Text: "RESULTS OF OPERATIONS\n\nQ3 2024 revenue was $100 million, up 12% year over year."},
		{Number: 2, Text: "OUTLOOK\n\nWe expect revenue of $110 to $120 million for Q4 2024."},
	}
}

func TestIngestPages(t *testing.T) {
	docs := store.NewDocumentCache()
	p := NewPipeline(&stubEmbedder{dim: 8}, docs, nil, 0, 0, 0, nil)

	doc, err := p.IngestPages(context.Background(), testPages(), model.DocumentMeta{
		Filename: "q3.pdf",
		Ticker:   "ACME",
	})
	if err != nil {
		t.Fatalf("IngestPages() error = %v", err)
	}
	if doc.ID == "" {
		t.Error("doc id not assigned")
	}
	if len(doc.Chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	if len(doc.Embeddings) != len(doc.Chunks) {
		t.Errorf("embeddings %d != chunks %d", len(doc.Embeddings), len(doc.Chunks))
	}
	if doc.Meta.PageCount != 2 || doc.Meta.ContentHash == "" {
		t.Errorf("meta = %+v", doc.Meta)
	}
	if doc.Meta.IngestStatus != "ingested" {
		t.Errorf("ingest_status = %q", doc.Meta.IngestStatus)
	}

	cached, ok := docs.Get(doc.ID)
	if !ok || cached.ID != doc.ID {
		t.Error("document not cached after ingest")
	}
}

func TestIngestPages_EmptyDocument(t *testing.T) {
	p := NewPipeline(&stubEmbedder{dim: 8}, store.NewDocumentCache(), nil, 0, 0, 0, nil)

	if _, err := p.IngestPages(context.Background(), nil, model.DocumentMeta{}); err != ErrNoContent {
		t.Fatalf("error = %v, want ErrNoContent", err)
	}
}

func TestIngestPages_SameContentSameHash(t *testing.T) {
	p := NewPipeline(&stubEmbedder{dim: 8}, store.NewDocumentCache(), nil, 0, 0, 0, nil)
	ctx := context.Background()

	a, err := p.IngestPages(ctx, testPages(), model.DocumentMeta{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.IngestPages(ctx, testPages(), model.DocumentMeta{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Meta.ContentHash != b.Meta.ContentHash {
		t.Error("identical content produced different hashes")
	}
	if a.ID == b.ID {
		t.Error("re-ingest should mint a new document id")
	}
}

func TestIngestMarkdown(t *testing.T) {
	p := NewPipeline(&stubEmbedder{dim: 8}, store.NewDocumentCache(), nil, 0, 0, 0, nil)

	md := []byte("# Earnings Release\n\nQ3 2024 revenue was $100 million.\n\n---\n\n# Outlook\n\nWe expect growth.")
	doc, err := p.IngestMarkdown(context.Background(), md, model.DocumentMeta{Filename: "release.md"})
	if err != nil {
		t.Fatalf("IngestMarkdown() error = %v", err)
	}
	if doc.Meta.PageCount != 2 {
		t.Errorf("page_count = %d, want 2 (thematic break)", doc.Meta.PageCount)
	}
	if doc.Meta.ByteSize != int64(len(md)) {
		t.Errorf("byte_size = %d, want %d", doc.Meta.ByteSize, len(md))
	}
}

func TestIngestBatch(t *testing.T) {
	emb := &stubEmbedder{dim: 8}
	p := NewPipeline(emb, store.NewDocumentCache(), nil, 0, 0, 2, nil)

	items := []BatchItem{
		{Meta: model.DocumentMeta{Ticker: "AAA"}, Pages: testPages()},
		{Meta: model.DocumentMeta{Ticker: "BBB"}, Pages: nil},
		{Meta: model.DocumentMeta{Ticker: "CCC"}, Markdown: []byte("# Report\n\nRevenue was $5 million.")},
	}
	results := p.IngestBatch(context.Background(), items)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	if !results[0].OK || results[0].Ticker != "AAA" || results[0].DocID == "" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].OK || results[1].Error == "" {
		t.Errorf("results[1] = %+v, want failure for empty pages", results[1])
	}
	if !results[2].OK || results[2].ChunkCount == 0 {
		t.Errorf("results[2] = %+v", results[2])
	}
}

func TestPagesFromMarkdown(t *testing.T) {
	md := []byte(`# Press Release

First page paragraph.

Second paragraph on the same page.

---

# Financial Tables

| Metric | Value |
| ------ | ----- |
| Revenue | $100M |
`)
	pages := PagesFromMarkdown(md)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if pages[0].Number != 1 || pages[1].Number != 2 {
		t.Errorf("page numbers = %d, %d", pages[0].Number, pages[1].Number)
	}
	if !strings.Contains(pages[0].Text, "First page paragraph.") {
		t.Errorf("page 1 = %q", pages[0].Text)
	}
	if !strings.Contains(pages[0].Text, "\n\n") {
		t.Error("blocks should be blank-line separated for the chunker")
	}
	if !strings.Contains(pages[1].Text, "Revenue | $100M") {
		t.Errorf("table not rendered: %q", pages[1].Text)
	}
}

func TestPagesFromMarkdown_H1StartsNewPage(t *testing.T) {
	md := []byte("# First Section\n\nBody one.\n\n# Second Section\n\nBody two.")
	pages := PagesFromMarkdown(md)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2 (H1 break)", len(pages))
	}
	if !strings.Contains(pages[1].Text, "Second Section") {
		t.Errorf("page 2 = %q", pages[1].Text)
	}
}

func TestPagesFromMarkdown_Empty(t *testing.T) {
	if pages := PagesFromMarkdown(nil); pages != nil {
		t.Errorf("got %v, want nil", pages)
	}
}
