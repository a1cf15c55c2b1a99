// Package handlers implements the HTTP endpoints of the earnings document
// API: ingestion, querying, and the extraction surfaces (metrics, series,
// guidance, buybacks).
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"earnings-ai/internal/model"
	"earnings-ai/internal/storage"
	"earnings-ai/internal/store"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// DocResolver looks up ingested documents by id, warming the in-memory cache
// from durable storage on a miss.
type DocResolver struct {
	docs     *store.DocumentCache
	docStore storage.DocumentStore
}

// NewDocResolver creates a DocResolver. docStore may be nil when running
// without a database.
func NewDocResolver(docs *store.DocumentCache, docStore storage.DocumentStore) *DocResolver {
	return &DocResolver{docs: docs, docStore: docStore}
}

// Resolve returns the document for id, or false if it is unknown.
func (d *DocResolver) Resolve(ctx context.Context, id string) (*model.Document, bool) {
	if doc, ok := d.docs.Get(id); ok {
		return doc, true
	}
	if d.docStore == nil {
		return nil, false
	}
	doc, err := d.docStore.LoadDocument(ctx, id)
	if err != nil {
		return nil, false
	}
	d.docs.Put(doc)
	return doc, true
}
