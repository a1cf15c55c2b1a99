package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"earnings-ai/internal/model"
)

// GuidanceStore defines the interface for durable guidance insight storage.
type GuidanceStore interface {
	// SaveGuidance replaces the stored guidance set for a document.
	SaveGuidance(ctx context.Context, docID string, entries []model.GuidanceEntry) error
	// LoadGuidance loads the stored guidance set for a document. An empty
	// slice with a nil error means enrichment ran and found nothing; there is
	// no distinct not-found case because an absent set is an empty set.
	LoadGuidance(ctx context.Context, docID string) ([]model.GuidanceEntry, error)
}

// GuidanceRepo provides methods for guidance insight persistence.
// It implements the GuidanceStore interface.
type GuidanceRepo struct {
	db *sql.DB
}

// NewGuidanceRepo creates a new GuidanceRepo.
func NewGuidanceRepo(db *sql.DB) *GuidanceRepo {
	return &GuidanceRepo{db: db}
}

// SaveGuidance deletes any existing rows for the document and inserts the
// given entries fresh, all in one transaction.
func (r *GuidanceRepo) SaveGuidance(ctx context.Context, docID string, entries []model.GuidanceEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM guidance_insights WHERE doc_id = ?", docID); err != nil {
		return fmt.Errorf("failed to clear guidance: %w", err)
	}

	for _, e := range entries {
		id := e.ID
		if id == "" {
			id = uuid.New().String()
		}
		citations, err := json.Marshal(e.Citations)
		if err != nil {
			return fmt.Errorf("failed to encode citations: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO guidance_insights (id, doc_id, metric, period, value_low, value_high, value_point, unit, outlook_note, confidence, source, source_chunk, citations)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, docID, e.Metric, e.Period, e.ValueLow, e.ValueHigh, e.ValuePoint,
			e.Unit, e.OutlookNote, e.Confidence, e.Source, e.SourceChunk, string(citations),
		)
		if err != nil {
			return fmt.Errorf("failed to insert guidance entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// LoadGuidance loads guidance entries for a document, newest first.
func (r *GuidanceRepo) LoadGuidance(ctx context.Context, docID string) ([]model.GuidanceEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, metric, period, value_low, value_high, value_point, unit, outlook_note, confidence, source, source_chunk, citations
		 FROM guidance_insights WHERE doc_id = ? ORDER BY created_at DESC, id ASC`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query guidance: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []model.GuidanceEntry{}
	for rows.Next() {
		var e model.GuidanceEntry
		var citationsJSON string
		err := rows.Scan(&e.ID, &e.Metric, &e.Period, &e.ValueLow, &e.ValueHigh, &e.ValuePoint,
			&e.Unit, &e.OutlookNote, &e.Confidence, &e.Source, &e.SourceChunk, &citationsJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guidance entry: %w", err)
		}
		if citationsJSON != "" {
			if err := json.Unmarshal([]byte(citationsJSON), &e.Citations); err != nil {
				return nil, fmt.Errorf("failed to decode citations: %w", err)
			}
		}
		if e.Citations == nil {
			e.Citations = []model.Citation{}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate guidance: %w", err)
	}
	return out, nil
}
