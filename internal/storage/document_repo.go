package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_stores.go -package=mocks earnings-ai/internal/storage DocumentStore,GuidanceStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"earnings-ai/internal/model"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for document persistence.
type DocumentStore interface {
	// SaveDocument persists a document with its chunks and embeddings.
	// Idempotent for the given document id: existing rows are replaced.
	SaveDocument(ctx context.Context, doc *model.Document) error
	// LoadDocument loads a document's chunks and embeddings.
	// Returns nil and ErrNotFound if the document has no chunks on record.
	LoadDocument(ctx context.Context, id string) (*model.Document, error)
}

// DocumentRepo provides methods for document persistence.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// SaveDocument persists document metadata, chunks and embeddings in one
// transaction. Existing rows for the same id are deleted first, so re-ingests
// replace cleanly. The embedding matrix must be aligned 1:1 with the chunks.
func (r *DocumentRepo) SaveDocument(ctx context.Context, doc *model.Document) error {
	if doc == nil || doc.ID == "" {
		return errors.New("document id is required")
	}
	if len(doc.Embeddings) != len(doc.Chunks) {
		return fmt.Errorf("embeddings/chunks length mismatch: %d vs %d", len(doc.Embeddings), len(doc.Chunks))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE doc_id = ?", doc.ID); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", doc.ID); err != nil {
		return fmt.Errorf("failed to clear document: %w", err)
	}

	m := doc.Meta
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, filename, ticker, company, source_url, content_hash, page_count, byte_size, ingest_status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, m.Filename, m.Ticker, m.Company, m.SourceURL, m.ContentHash, m.PageCount, m.ByteSize, m.IngestStatus, m.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (id, doc_id, section, page_start, page_end, text, embedding) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i, c := range doc.Chunks {
		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}
		emb, err := json.Marshal(doc.Embeddings[i])
		if err != nil {
			return fmt.Errorf("failed to encode embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, id, doc.ID, c.Section, c.PageStart, c.PageEnd, c.Text, string(emb)); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// LoadDocument loads a document's metadata, chunks and embeddings. Chunks
// come back in the same deterministic order they are indexed in: page_start
// ascending, then id.
func (r *DocumentRepo) LoadDocument(ctx context.Context, id string) (*model.Document, error) {
	doc := &model.Document{ID: id}

	err := r.db.QueryRowContext(ctx,
		`SELECT filename, ticker, company, source_url, content_hash, page_count, byte_size, ingest_status, error
		 FROM documents WHERE id = ?`, id,
	).Scan(&doc.Meta.Filename, &doc.Meta.Ticker, &doc.Meta.Company, &doc.Meta.SourceURL,
		&doc.Meta.ContentHash, &doc.Meta.PageCount, &doc.Meta.ByteSize, &doc.Meta.IngestStatus, &doc.Meta.Error)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, section, page_start, page_end, text, embedding FROM chunks WHERE doc_id = ? ORDER BY page_start ASC, id ASC", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var c model.Chunk
		var embJSON string
		if err := rows.Scan(&c.ID, &c.Section, &c.PageStart, &c.PageEnd, &c.Text, &embJSON); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		var emb []float32
		if err := json.Unmarshal([]byte(embJSON), &emb); err != nil {
			return nil, fmt.Errorf("failed to decode embedding: %w", err)
		}
		doc.Chunks = append(doc.Chunks, c)
		doc.Embeddings = append(doc.Embeddings, emb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	if len(doc.Chunks) == 0 {
		return nil, ErrNotFound
	}
	return doc, nil
}
