package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"earnings-ai/internal/budget"
	"earnings-ai/internal/contextutil"
	"earnings-ai/internal/extract"
	"earnings-ai/internal/guidance"
	"earnings-ai/internal/model"
	"earnings-ai/internal/storage"
)

// ExtractHandler serves the deterministic extraction surfaces (metrics,
// series, buybacks) and the guidance enrichment endpoints.
type ExtractHandler struct {
	resolver *DocResolver
	enricher *guidance.Enricher
}

// NewExtractHandler creates a new ExtractHandler.
func NewExtractHandler(resolver *DocResolver, enricher *guidance.Enricher) *ExtractHandler {
	return &ExtractHandler{resolver: resolver, enricher: enricher}
}

// DocRequest addresses one ingested document.
//
// swagger:model DocRequest
type DocRequest struct {
	DocID string `json:"doc_id"`
}

func (h *ExtractHandler) resolveDocRequest(w http.ResponseWriter, r *http.Request) (*model.Document, bool) {
	var req DocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if req.DocID == "" {
		writeError(w, http.StatusBadRequest, "doc_id is required")
		return nil, false
	}
	doc, ok := h.resolver.Resolve(r.Context(), req.DocID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown doc_id")
		return nil, false
	}
	return doc, true
}

// Metrics handles POST /api/metrics: core metrics across the whole document.
func (h *ExtractHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.resolveDocRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"metrics": extract.CoreMetrics(doc.Chunks),
	})
}

// SeriesRequest addresses a document plus the metrics to chart.
//
// swagger:model SeriesRequest
type SeriesRequest struct {
	DocID   string   `json:"doc_id"`
	Metrics []string `json:"metrics"`
}

// Series handles POST /api/series: per-period value sequences for charting.
func (h *ExtractHandler) Series(w http.ResponseWriter, r *http.Request) {
	var req SeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.DocID == "" {
		writeError(w, http.StatusBadRequest, "doc_id is required")
		return
	}
	doc, ok := h.resolver.Resolve(r.Context(), req.DocID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown doc_id")
		return
	}
	metrics := req.Metrics
	if len(metrics) == 0 {
		metrics = extract.CoreMetricOrder
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"series": extract.SeriesForMetrics(doc.Chunks, metrics),
	})
}

// Buybacks handles POST /api/buybacks.
func (h *ExtractHandler) Buybacks(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.resolveDocRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"buybacks": extract.Buybacks(doc.Chunks),
	})
}

// Guidance handles POST /api/guidance: cached or freshly enriched entries.
func (h *ExtractHandler) Guidance(w http.ResponseWriter, r *http.Request) {
	h.serveGuidance(w, r, false)
}

// GuidanceRebuild handles POST /api/guidance/rebuild: forced re-enrichment,
// subject to the rebuild budget.
func (h *ExtractHandler) GuidanceRebuild(w http.ResponseWriter, r *http.Request) {
	h.serveGuidance(w, r, true)
}

func (h *ExtractHandler) serveGuidance(w http.ResponseWriter, r *http.Request, force bool) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req DocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.DocID == "" {
		writeError(w, http.StatusBadRequest, "doc_id is required")
		return
	}

	var entries []model.GuidanceEntry
	var err error
	if force {
		entries, err = h.enricher.Enrich(ctx, req.DocID, true)
	} else {
		entries, err = h.enricher.Get(ctx, req.DocID)
	}
	if err != nil {
		switch {
		case errors.Is(err, budget.ErrExceeded):
			writeError(w, http.StatusTooManyRequests, "Budget exceeded for guidance rebuilds")
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "Unknown doc_id")
		default:
			logger.ErrorContext(ctx, "guidance enrichment failed", "doc_id", req.DocID, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to build guidance")
		}
		return
	}
	if entries == nil {
		entries = []model.GuidanceEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"guidance": entries})
}
