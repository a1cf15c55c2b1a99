package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"earnings-ai/internal/ingest"
	"earnings-ai/internal/model"
	"earnings-ai/internal/store"
)

type stubEmbedder struct{ dim int }

func (s *stubEmbedder) EmbedTexts(_ context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, s.dim)
		out[i][0] = 1
	}
	return out
}

func newDocumentsTestServer(t *testing.T) (*httptest.Server, *store.DocumentCache) {
	t.Helper()
	docs := store.NewDocumentCache()
	pipeline := ingest.NewPipeline(&stubEmbedder{dim: 8}, docs, nil, 0, 0, 0, nil)
	h := NewDocumentsHandler(pipeline, NewDocResolver(docs, nil))

	r := chi.NewRouter()
	r.Post("/api/documents", h.Ingest)
	r.Post("/api/documents/batch", h.IngestBatch)
	r.Get("/api/documents", h.List)
	r.Get("/api/documents/{id}", h.Get)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, docs
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func TestDocumentsHandler_IngestPages(t *testing.T) {
	srv, docs := newDocumentsTestServer(t)

	resp := postJSON(t, srv.URL+"/api/documents", IngestRequest{
		Filename: "q3.pdf",
		Ticker:   "ACME",
		Pages: []model.Page{
			{Number: 1, Text: "Q3 2024 revenue was $100 million."},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var out IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.DocID == "" || out.ChunkCount == 0 || out.PageCount != 1 {
		t.Errorf("response = %+v", out)
	}
	if _, ok := docs.Get(out.DocID); !ok {
		t.Error("document not queryable after ingest")
	}
}

func TestDocumentsHandler_IngestMarkdown(t *testing.T) {
	srv, _ := newDocumentsTestServer(t)

	resp := postJSON(t, srv.URL+"/api/documents", IngestRequest{
		Filename: "release.md",
		Markdown: "# Earnings\n\nRevenue was $100 million.\n\n---\n\n# Outlook\n\nWe expect growth.",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var out IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.PageCount != 2 {
		t.Errorf("page_count = %d, want 2", out.PageCount)
	}
}

func TestDocumentsHandler_IngestRejectsEmpty(t *testing.T) {
	srv, _ := newDocumentsTestServer(t)

	resp := postJSON(t, srv.URL+"/api/documents", IngestRequest{Filename: "empty.pdf"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDocumentsHandler_Get(t *testing.T) {
	srv, docs := newDocumentsTestServer(t)
	docs.Put(&model.Document{
		ID:     "doc-1",
		Chunks: []model.Chunk{{ID: "c1", Text: "text", PageStart: 1, PageEnd: 1}},
		Meta:   model.DocumentMeta{Ticker: "ACME"},
	})

	resp, err := http.Get(srv.URL + "/api/documents/doc-1")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out DocumentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.DocID != "doc-1" || out.ChunkCount != 1 || out.Meta.Ticker != "ACME" {
		t.Errorf("response = %+v", out)
	}
}

func TestDocumentsHandler_List(t *testing.T) {
	srv, docs := newDocumentsTestServer(t)
	docs.Put(&model.Document{ID: "doc-b", Chunks: []model.Chunk{{ID: "c1", Text: "t", PageStart: 1, PageEnd: 1}}})
	docs.Put(&model.Document{ID: "doc-a", Chunks: []model.Chunk{{ID: "c2", Text: "t", PageStart: 1, PageEnd: 1}}})

	resp, err := http.Get(srv.URL + "/api/documents")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 || len(out.Documents) != 2 {
		t.Fatalf("response = %+v", out)
	}
	if out.Documents[0] != "doc-a" || out.Documents[1] != "doc-b" {
		t.Errorf("documents = %v, want sorted [doc-a doc-b]", out.Documents)
	}
}

func TestDocumentsHandler_GetUnknown(t *testing.T) {
	srv, _ := newDocumentsTestServer(t)

	resp, err := http.Get(srv.URL + "/api/documents/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDocumentsHandler_Batch(t *testing.T) {
	srv, _ := newDocumentsTestServer(t)

	resp := postJSON(t, srv.URL+"/api/documents/batch", BatchRequest{
		Items: []IngestRequest{
			{Ticker: "AAA", Pages: []model.Page{{Number: 1, Text: "Revenue was $10 million."}}},
			{Ticker: "BBB"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out BatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Requested != 2 || out.Success != 1 {
		t.Errorf("summary = %+v", out)
	}
	if !out.Items[0].OK || out.Items[1].OK {
		t.Errorf("items = %+v", out.Items)
	}
	if out.Items[1].Error == "" {
		t.Error("failed item should carry an error message")
	}
}
