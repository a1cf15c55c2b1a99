package handlers

import (
	"net/http"
	"time"

	"earnings-ai/internal/budget"
	"earnings-ai/internal/llm"
	"earnings-ai/internal/store"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	docs  *store.DocumentCache
	chat  llm.ChatClient
	guard *budget.Guard
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(docs *store.DocumentCache, chat llm.ChatClient, guard *budget.Guard) *HealthHandler {
	return &HealthHandler{docs: docs, chat: chat, guard: guard}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Checks    map[string]any `json:"checks"`
}

// ServeHTTP handles GET /api/healthz. The service is healthy as long as the
// process runs; the model check is informational since every model-backed
// path has a deterministic fallback.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	modelStatus := "disabled"
	if h.chat != nil && h.chat.Enabled() {
		modelStatus = "enabled"
	}

	checks := map[string]any{
		"documents": h.docs.Len(),
		"model":     modelStatus,
	}
	if h.guard != nil {
		checks["budget_used"] = map[string]int64{
			budget.OpQuery:           h.guard.Used(budget.OpQuery),
			budget.OpGuidanceRebuild: h.guard.Used(budget.OpGuidanceRebuild),
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}
