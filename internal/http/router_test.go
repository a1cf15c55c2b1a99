package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"earnings-ai/internal/budget"
	"earnings-ai/internal/guidance"
	"earnings-ai/internal/handlers"
	"earnings-ai/internal/ingest"
	"earnings-ai/internal/model"
	"earnings-ai/internal/qa"
	"earnings-ai/internal/retrieve"
	"earnings-ai/internal/store"
)

type stubEmbedder struct{}

func (stubEmbedder) EmbedTexts(_ context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, 8)
		out[i][0] = 1
	}
	return out
}

type disabledChat struct{}

func (disabledChat) Enabled() bool { return false }

func (disabledChat) Complete(context.Context, string, string) (string, error) { return "", nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	docs := store.NewDocumentCache()
	cache := store.NewGuidanceCache()
	guard := budget.NewGuard(nil)
	resolver := handlers.NewDocResolver(docs, nil)
	embedder := stubEmbedder{}

	pipeline := ingest.NewPipeline(embedder, docs, nil, 0, 0, 0, nil)
	retriever := retrieve.NewRetriever(embedder)
	synth := qa.NewSynthesizer(disabledChat{}, nil)
	enricher := guidance.NewEnricher(disabledChat{}, docs, cache, nil, nil, guard, 0, nil)

	router := NewRouter(&Deps{
		Query:     handlers.NewQueryHandler(guard, resolver, retriever, synth),
		Documents: handlers.NewDocumentsHandler(pipeline, resolver),
		Extract:   handlers.NewExtractHandler(resolver, enricher),
		Health:    handlers.NewHealthHandler(docs, disabledChat{}, guard),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestRouter_Healthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Status != "healthy" {
		t.Errorf("status = %q", out.Status)
	}
}

func TestRouter_IngestThenQuery(t *testing.T) {
	srv := newTestServer(t)

	ingestBody, _ := json.Marshal(handlers.IngestRequest{
		Filename: "q3.pdf",
		Pages: []model.Page{
			{Number: 1, Text: "Q3 2024 revenue was $100 million, up 12% year over year."},
		},
	})
	resp, err := http.Post(srv.URL+"/api/documents", "application/json", bytes.NewReader(ingestBody))
	if err != nil {
		t.Fatal(err)
	}
	var ingested handlers.IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&ingested); err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || ingested.DocID == "" {
		t.Fatalf("ingest status = %d, doc_id = %q", resp.StatusCode, ingested.DocID)
	}

	queryBody, _ := json.Marshal(handlers.QueryRequest{
		DocID:    ingested.DocID,
		Question: "What was revenue in Q3 2024?",
	})
	resp, err = http.Post(srv.URL+"/api/query", "application/json", bytes.NewReader(queryBody))
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("query status = %d", resp.StatusCode)
	}
	var answer handlers.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		t.Fatal(err)
	}
	if len(answer.Bullets) == 0 {
		t.Fatal("no bullets returned")
	}
	if answer.Bullets[0].Text != "Revenue: 100 USD_millions (Q3 2024)" {
		t.Errorf("bullet = %q", answer.Bullets[0].Text)
	}
}

func TestRouter_UnknownDocIs404(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(handlers.DocRequest{DocID: "nope"})
	resp, err := http.Post(srv.URL+"/api/metrics", "application/json", bytes.NewReader(body))
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

func TestRouter_CORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/query", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("no CORS allow-origin header on preflight")
	}
}
