package guidance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"earnings-ai/internal/model"
)

const systemPrompt = "You are an expert financial analyst focused on quarterly earnings guidance. " +
	"Given chunks from an earnings call or filing, extract structured forward guidance. " +
	"Respond ONLY with valid JSON containing a list of guidance items."

func chunkLabel(i int) string {
	return fmt.Sprintf("C%d", i+1)
}

// buildPrompt formats candidate chunks into a single labeled prompt. The
// model is asked to cite chunk labels so citations can be attached afterward.
func buildPrompt(chunks []model.Chunk, meta model.DocumentMeta) string {
	lines := []string{
		"You will receive a set of text excerpts from an earnings document.",
		"Each excerpt is labeled C1, C2, etc. Always cite the chunk id in your JSON output.",
		"Output format (JSON array):",
		"[",
		"  {",
		`    "chunk_id": "C1",`,
		`    "metric": "revenue",`,
		`    "period": "Q3 FY24",`,
		`    "value_low": 12000,`,
		`    "value_high": 12300,`,
		`    "value_point": null,`,
		`    "unit": "USD_millions",`,
		`    "outlook_note": "Margins expected to remain flat.",`,
		`    "confidence": "medium"`,
		"  }",
		"]",
		"If no guidance is found, return an empty JSON array [].",
	}
	if meta.Ticker != "" || meta.Company != "" {
		ticker := strings.ToUpper(meta.Ticker)
		if ticker == "" {
			ticker = "N/A"
		}
		company := meta.Company
		if company == "" {
			company = "N/A"
		}
		lines = append(lines, fmt.Sprintf("Document context: ticker=%s, company=%s.", ticker, company))
	}
	lines = append(lines, "\nChunks:")
	for i, c := range chunks {
		section := c.Section
		if section == "" {
			section = "Unknown section"
		}
		lines = append(lines, fmt.Sprintf("[%s | page %d-%d | %s]\n%s",
			chunkLabel(i), c.PageStart, c.PageEnd, section, strings.TrimSpace(c.Text)))
	}
	return strings.Join(lines, "\n")
}

// extractJSON pulls a JSON array out of a raw model reply. Tries a direct
// parse first, then the span between the first "[" and the last "]", which
// recovers arrays wrapped in prose or markdown fences. Anything unparseable
// yields an empty result rather than an error.
func extractJSON(raw string) []map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if out, ok := parseArray(raw); ok {
		return out
	}
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start != -1 && end > start {
		if out, ok := parseArray(raw[start : end+1]); ok {
			return out
		}
	}
	return nil
}

func parseArray(s string) ([]map[string]any, bool) {
	var items []any
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, false
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, true
}

// sanitizeEntry converts one raw model item into a GuidanceEntry, coercing
// numeric fields and dropping malformed values. An entry with no range, no
// point value and no outlook note carries no information and is rejected.
func sanitizeEntry(raw map[string]any) (model.GuidanceEntry, bool) {
	e := model.GuidanceEntry{
		SourceChunk: asString(raw["chunk_id"]),
		Metric:      asString(raw["metric"]),
		Period:      asString(raw["period"]),
		ValueLow:    toFloat(raw["value_low"]),
		ValueHigh:   toFloat(raw["value_high"]),
		ValuePoint:  toFloat(raw["value_point"]),
		Unit:        asString(raw["unit"]),
		OutlookNote: asString(raw["outlook_note"]),
		Confidence:  asString(raw["confidence"]),
	}
	if !hasValue(e.ValueLow) && !hasValue(e.ValueHigh) && !hasValue(e.ValuePoint) && e.OutlookNote == "" {
		return model.GuidanceEntry{}, false
	}
	return e, true
}

func hasValue(p *float64) bool {
	return p != nil && *p != 0
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func toFloat(v any) *float64 {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		return &x
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

// attachCitation binds an entry to the chunk whose label the model cited.
// Entries citing an unknown label keep an empty citation list.
func attachCitation(e *model.GuidanceEntry, labelMap map[string]model.Chunk) {
	e.Citations = []model.Citation{}
	if c, ok := labelMap[e.SourceChunk]; ok {
		e.Citations = append(e.Citations, model.Cite(c))
	}
}
