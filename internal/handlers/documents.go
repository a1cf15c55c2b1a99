package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"earnings-ai/internal/contextutil"
	"earnings-ai/internal/ingest"
	"earnings-ai/internal/model"
)

// DocumentsHandler handles document ingestion and lookup.
type DocumentsHandler struct {
	pipeline *ingest.Pipeline
	resolver *DocResolver
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(pipeline *ingest.Pipeline, resolver *DocResolver) *DocumentsHandler {
	return &DocumentsHandler{pipeline: pipeline, resolver: resolver}
}

// IngestRequest represents one document to ingest. Exactly one of Pages or
// Markdown must be provided.
//
// swagger:model IngestRequest
type IngestRequest struct {
	Filename  string       `json:"filename,omitempty"`
	Ticker    string       `json:"ticker,omitempty"`
	Company   string       `json:"company,omitempty"`
	SourceURL string       `json:"source_url,omitempty"`
	Pages     []model.Page `json:"pages,omitempty"`
	Markdown  string       `json:"markdown,omitempty"`
}

func (r *IngestRequest) meta() model.DocumentMeta {
	return model.DocumentMeta{
		Filename:  r.Filename,
		Ticker:    r.Ticker,
		Company:   r.Company,
		SourceURL: r.SourceURL,
	}
}

// IngestResponse reports the outcome of an ingest.
//
// swagger:model IngestResponse
type IngestResponse struct {
	DocID      string `json:"doc_id"`
	ChunkCount int    `json:"chunk_count"`
	PageCount  int    `json:"page_count"`
}

// Ingest handles POST /api/documents.
func (h *DocumentsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Pages) == 0 && req.Markdown == "" {
		writeError(w, http.StatusBadRequest, "Either pages or markdown is required")
		return
	}

	var doc *model.Document
	var err error
	if req.Markdown != "" {
		doc, err = h.pipeline.IngestMarkdown(ctx, []byte(req.Markdown), req.meta())
	} else {
		doc, err = h.pipeline.IngestPages(ctx, req.Pages, req.meta())
	}
	if err != nil {
		if errors.Is(err, ingest.ErrNoContent) {
			writeError(w, http.StatusBadRequest, "Document has no extractable content")
			return
		}
		logger.ErrorContext(ctx, "ingest failed", "filename", req.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process document")
		return
	}

	writeJSON(w, http.StatusCreated, IngestResponse{
		DocID:      doc.ID,
		ChunkCount: len(doc.Chunks),
		PageCount:  doc.Meta.PageCount,
	})
}

// DocumentResponse describes an ingested document without its chunk bodies.
//
// swagger:model DocumentResponse
type DocumentResponse struct {
	DocID      string             `json:"doc_id"`
	ChunkCount int                `json:"chunk_count"`
	Meta       model.DocumentMeta `json:"meta"`
}

// Get handles GET /api/documents/{id}.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, ok := h.resolver.Resolve(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown doc_id")
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponse{
		DocID:      doc.ID,
		ChunkCount: len(doc.Chunks),
		Meta:       doc.Meta,
	})
}

// ListResponse enumerates the documents available in memory.
//
// swagger:model ListResponse
type ListResponse struct {
	Documents []string `json:"documents"`
	Count     int      `json:"count"`
}

// List handles GET /api/documents: the ids of all cached documents. Documents
// persisted but not yet loaded into memory do not appear until first access.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ids := h.resolver.docs.IDs()
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, ListResponse{Documents: ids, Count: len(ids)})
}

// BatchRequest is a set of documents to ingest concurrently.
//
// swagger:model BatchRequest
type BatchRequest struct {
	Items []IngestRequest `json:"items"`
}

// BatchResponse summarizes a batch ingest.
//
// swagger:model BatchResponse
type BatchResponse struct {
	Requested int                  `json:"requested"`
	Success   int                  `json:"success"`
	Items     []ingest.BatchResult `json:"items"`
}

// IngestBatch handles POST /api/documents/batch. Per-item failures are
// reported in the result items, never failing the whole batch.
func (h *DocumentsHandler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items is required")
		return
	}

	items := make([]ingest.BatchItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = ingest.BatchItem{Meta: item.meta(), Pages: item.Pages}
		if item.Markdown != "" {
			items[i].Markdown = []byte(item.Markdown)
		}
	}

	results := h.pipeline.IngestBatch(r.Context(), items)
	success := 0
	for _, res := range results {
		if res.OK {
			success++
		}
	}
	writeJSON(w, http.StatusOK, BatchResponse{
		Requested: len(results),
		Success:   success,
		Items:     results,
	})
}
