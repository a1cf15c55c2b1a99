// Package model holds the shared data types of the earnings document pipeline:
// chunks, citations, answer bullets and the extracted financial facts.
package model

import "unicode/utf8"

// Unit values used by the extractors. Money amounts are normalized to USD
// millions except per-share figures, which stay in absolute USD.
const (
	UnitUSDMillions = "USD_millions"
	UnitUSD         = "USD"
	UnitPercent     = "percent"
)

// Provenance tags for guidance entries.
const (
	SourceModel     = "openai"
	SourceHeuristic = "heuristic"
)

// Page is one page of pre-extracted plain text from a source document.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Chunk is the atomic retrievable unit: a bounded, section-tagged slice of a
// document's text. Chunks are created once at ingestion time and are immutable
// afterwards.
type Chunk struct {
	// ID is a stable identifier, unique within the document.
	ID string `json:"id"`
	// Text is the chunk body. Never empty.
	Text string `json:"text"`
	// Section is the active section heading when the chunk was built, or empty
	// if no heading had been seen yet.
	Section string `json:"section,omitempty"`
	// PageStart and PageEnd are the inclusive page bounds of the chunk.
	// PageStart <= PageEnd always holds.
	PageStart int `json:"page_start"`
	PageEnd   int `json:"page_end"`
}

// Citation binds a claim to evidence: the section, page and a short verbatim
// snippet of the chunk the claim was drawn from.
type Citation struct {
	Section string `json:"section,omitempty"`
	Page    int    `json:"page"`
	Snippet string `json:"snippet"`
}

// SnippetLen is the maximum citation snippet length in bytes.
const SnippetLen = 160

// Cite builds a Citation from a chunk, truncating the snippet.
func Cite(c Chunk) Citation {
	return Citation{
		Section: c.Section,
		Page:    c.PageStart,
		Snippet: Snippet(c.Text, SnippetLen),
	}
}

// Snippet truncates s to at most n bytes without splitting a rune, so the
// result is always valid UTF-8 and verbatim source text.
func Snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// AnswerBullet is one line of a synthesized answer with its citations.
type AnswerBullet struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}

// ExtractedMetric is a named financial fact pulled out of a chunk set.
type ExtractedMetric struct {
	Name      string     `json:"name"`
	Value     float64    `json:"value"`
	Unit      string     `json:"unit"`
	Period    string     `json:"period,omitempty"`
	Citations []Citation `json:"citations"`
}

// GuidanceEntry is a normalized forward-looking guidance item. Either a
// low/high range or a single point value is set; nil means absent.
type GuidanceEntry struct {
	ID          string     `json:"id"`
	Metric      string     `json:"metric,omitempty"`
	Period      string     `json:"period,omitempty"`
	ValueLow    *float64   `json:"value_low"`
	ValueHigh   *float64   `json:"value_high"`
	ValuePoint  *float64   `json:"value_point"`
	Unit        string     `json:"unit,omitempty"`
	OutlookNote string     `json:"outlook_note,omitempty"`
	// Confidence is one of "low", "medium", "high".
	Confidence string `json:"confidence,omitempty"`
	// Source records which path produced the entry: SourceModel or
	// SourceHeuristic.
	Source string `json:"source"`
	// SourceChunk is the prompt chunk label (C1, C2, ...) the model cited, if
	// the entry came from the model path.
	SourceChunk string     `json:"source_chunk,omitempty"`
	Citations   []Citation `json:"citations"`
}

// BuybackEntry is a share-repurchase fact: authorized and/or executed amounts.
type BuybackEntry struct {
	Period              string     `json:"period,omitempty"`
	AuthorizationAmount *float64   `json:"authorization_amount,omitempty"`
	RepurchasedAmount   *float64   `json:"repurchased_amount,omitempty"`
	Unit                string     `json:"unit,omitempty"`
	Citations           []Citation `json:"citations"`
}

// Series is a small labeled value sequence for charting a metric over periods.
type Series struct {
	Labels    []string   `json:"labels"`
	Values    []float64  `json:"values"`
	Citations []Citation `json:"citations"`
}

// DocumentMeta is the free-form provenance metadata attached to an ingested
// document.
type DocumentMeta struct {
	Filename     string `json:"filename,omitempty"`
	Ticker       string `json:"ticker,omitempty"`
	Company      string `json:"company,omitempty"`
	SourceURL    string `json:"source_url,omitempty"`
	ContentHash  string `json:"content_hash,omitempty"`
	PageCount    int    `json:"page_count,omitempty"`
	ByteSize     int64  `json:"byte_size,omitempty"`
	IngestStatus string `json:"ingest_status,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Document is the unit of ingestion: an ordered chunk sequence plus the
// embedding matrix aligned 1:1 by index with it.
type Document struct {
	ID         string
	Chunks     []Chunk
	Embeddings [][]float32
	Meta       DocumentMeta
}

// Float64Ptr returns a pointer to v. Convenience for optional numeric fields.
func Float64Ptr(v float64) *float64 { return &v }
