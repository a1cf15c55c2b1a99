package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"earnings-ai/internal/contextutil"
)

func TestLoggerMiddleware_InjectsLogger(t *testing.T) {
	var got *slog.Logger
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = contextutil.LoggerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	LoggerMiddleware(inner).ServeHTTP(rec, req)

	if got == nil {
		t.Fatal("no logger in request context")
	}
	if got == slog.Default() {
		t.Error("context logger should carry request attributes, not be the bare default")
	}
}
