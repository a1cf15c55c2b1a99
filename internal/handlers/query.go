package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"earnings-ai/internal/budget"
	"earnings-ai/internal/contextutil"
	"earnings-ai/internal/extract"
	"earnings-ai/internal/model"
	"earnings-ai/internal/qa"
	"earnings-ai/internal/retrieve"
)

// EvidenceRetriever is the retrieval boundary of the query handler.
type EvidenceRetriever interface {
	Evidence(ctx context.Context, question string, doc *model.Document) ([]model.Chunk, error)
}

// QueryHandler handles question answering over an ingested document.
type QueryHandler struct {
	guard     *budget.Guard
	resolver  *DocResolver
	retriever EvidenceRetriever
	synth     *qa.Synthesizer
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(guard *budget.Guard, resolver *DocResolver, retriever EvidenceRetriever, synth *qa.Synthesizer) *QueryHandler {
	return &QueryHandler{
		guard:     guard,
		resolver:  resolver,
		retriever: retriever,
		synth:     synth,
	}
}

// QueryRequest represents the HTTP request payload for document questions.
//
// swagger:model QueryRequest
type QueryRequest struct {
	DocID    string `json:"doc_id"`
	Question string `json:"question"`
}

// QueryResponse represents the HTTP response payload for document questions.
// Every bullet carries citations; an unanswerable question yields the single
// "Insufficient context." bullet with none.
//
// swagger:model QueryResponse
type QueryResponse struct {
	Bullets []model.AnswerBullet    `json:"bullets"`
	Chart   map[string]model.Series `json:"chart"`
}

// ServeHTTP answers a question about one ingested document.
//
// swagger:route POST /api/query queryDocument
//
// # Ask a question about a document
//
// Retrieves relevant chunks, routes metric questions through the
// deterministic extractors, and synthesizes cited answer bullets.
//
// responses:
//
//	'200':
//	  description: Answer bullets with citations and an optional chart
//	  schema:
//	    "$ref": "#/definitions/QueryResponse"
//	'400':
//	  description: Missing doc_id or question
//	'404':
//	  description: Unknown doc_id
//	'429':
//	  description: Query budget exceeded
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.DocID == "" {
		writeError(w, http.StatusBadRequest, "doc_id is required")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	if err := h.guard.Take(budget.OpQuery); err != nil {
		logger.WarnContext(ctx, "query budget exceeded", "doc_id", req.DocID)
		writeError(w, http.StatusTooManyRequests, "Budget exceeded for queries")
		return
	}

	doc, ok := h.resolver.Resolve(ctx, req.DocID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown doc_id")
		return
	}

	evidence, err := h.retriever.Evidence(ctx, req.Question, doc)
	if err != nil {
		if errors.Is(err, retrieve.ErrInsufficientContext) {
			writeJSON(w, http.StatusOK, insufficientResponse())
			return
		}
		logger.ErrorContext(ctx, "retrieval failed", "doc_id", req.DocID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process query")
		return
	}

	// Metric questions go to the extractors first; the model only sees
	// questions the extractors can't answer.
	var bullets []model.AnswerBullet
	if qa.MetricIntent(req.Question) {
		bullets = qa.MetricBullets(extract.CoreMetrics(evidence))
	}
	if len(bullets) == 0 {
		bullets = h.synth.Answer(ctx, req.Question, evidence)
	}
	if len(bullets) == 0 {
		writeJSON(w, http.StatusOK, insufficientResponse())
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Bullets: bullets,
		Chart:   extract.SeriesForMetrics(evidence, extract.CoreMetricOrder),
	})
}

func insufficientResponse() QueryResponse {
	return QueryResponse{
		Bullets: []model.AnswerBullet{{Text: qa.InsufficientContext, Citations: []model.Citation{}}},
		Chart:   map[string]model.Series{},
	}
}
