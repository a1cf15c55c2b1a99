// Package qa turns retrieved evidence into short cited answer bullets.
// Metric-intent questions are answered directly from the deterministic
// extractors; everything else goes through the chat model with a strict
// citation-bearing prompt, falling back to a single quoted bullet when no
// model is available.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"earnings-ai/internal/extract"
	"earnings-ai/internal/llm"
	"earnings-ai/internal/model"
)

// InsufficientContext is the canonical no-answer marker, returned to clients
// as the single bullet of an unanswerable question.
const InsufficientContext = "Insufficient context."

const answerSystemPrompt = "You are an earnings research assistant. Answer in <=5 concise bullets. " +
	"Each bullet MUST include at least one citation in the form [Section, p.X]. " +
	"Only use the supplied context. If the context is insufficient, reply exactly: Insufficient context."

const (
	maxBullets      = 5
	contextSnippet  = 1200
	fallbackTextLen = 180
	citationSnippet = 120
)

var metricIntentKeywords = []string{
	"revenue", "gross margin", "operating margin", "eps", "earnings per share",
	"cfo", "operating cash flow", "capex", "capital expenditures", "free cash flow", "fcf",
	"guidance", "outlook", "forecast", "buyback", "repurchase",
}

// MetricIntent reports whether a question asks about a known financial
// metric, which routes it to the extractors instead of the chat model.
func MetricIntent(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range metricIntentKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// MetricBullets renders extracted metrics as answer bullets in canonical
// metric order, capped at five.
func MetricBullets(metrics map[string]model.ExtractedMetric) []model.AnswerBullet {
	var bullets []model.AnswerBullet
	for _, name := range extract.CoreMetricOrder {
		m, ok := metrics[name]
		if !ok {
			continue
		}
		text := fmt.Sprintf("%s: %s", metricTitle(name), strconv.FormatFloat(m.Value, 'f', -1, 64))
		if m.Unit != "" {
			text += " " + m.Unit
		}
		if m.Period != "" {
			text += fmt.Sprintf(" (%s)", m.Period)
		}
		bullets = append(bullets, model.AnswerBullet{Text: text, Citations: m.Citations})
		if len(bullets) >= maxBullets {
			break
		}
	}
	return bullets
}

// metricTitle renders a snake_case metric name as a display title, e.g.
// "gross_margin" becomes "Gross Margin".
func metricTitle(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Synthesizer produces cited answer bullets from evidence chunks.
type Synthesizer struct {
	chat   llm.ChatClient
	logger *slog.Logger
}

// NewSynthesizer creates a Synthesizer. chat may be nil or disabled, in which
// case every answer takes the deterministic fallback path.
func NewSynthesizer(chat llm.ChatClient, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{chat: chat, logger: logger}
}

// Answer synthesizes bullets for a question over the given evidence. A nil
// result means the context was insufficient; callers surface that with the
// InsufficientContext marker.
func (s *Synthesizer) Answer(ctx context.Context, question string, evidence []model.Chunk) []model.AnswerBullet {
	if len(evidence) == 0 {
		return nil
	}
	if s.chat == nil || !s.chat.Enabled() {
		return fallbackAnswer(evidence)
	}

	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextPrompt(evidence), question)
	raw, err := s.chat.Complete(ctx, answerSystemPrompt, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "answer synthesis failed", "error", err)
		return fallbackAnswer(evidence)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(strings.ToLower(raw), "insufficient context") {
		return nil
	}
	return postprocess(raw, evidence[0])
}

// contextPrompt labels each evidence chunk so the model can cite pages and
// sections, bounding each chunk's contribution to the prompt.
func contextPrompt(chunks []model.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for i, c := range chunks {
		section := c.Section
		if section == "" {
			section = "N/A"
		}
		parts = append(parts, fmt.Sprintf("[ctx%d | p.%d-%d | %s]\n%s",
			i+1, c.PageStart, c.PageEnd, section, model.Snippet(c.Text, contextSnippet)))
	}
	return strings.Join(parts, "\n\n")
}

// fallbackAnswer quotes the lead of the top evidence chunk as a single
// cited bullet. Deterministic: no model involved.
func fallbackAnswer(chunks []model.Chunk) []model.AnswerBullet {
	c := chunks[0]
	text := c.Text
	if len(text) > fallbackTextLen {
		text = model.Snippet(text, fallbackTextLen) + "..."
	}
	cit := model.Citation{
		Section: c.Section,
		Page:    c.PageStart,
		Snippet: model.Snippet(text, citationSnippet),
	}
	return []model.AnswerBullet{{Text: text, Citations: []model.Citation{cit}}}
}

// postprocess splits a raw model reply into bullets, stripping list markers.
// Every bullet is anchored to the top evidence chunk so no line ships
// without a citation.
func postprocess(raw string, top model.Chunk) []model.AnswerBullet {
	cit := model.Citation{
		Section: top.Section,
		Page:    top.PageStart,
		Snippet: model.Snippet(top.Text, citationSnippet),
	}

	var bullets []model.AnswerBullet
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, prefix := range []string{"- ", "• ", "* "} {
			if strings.HasPrefix(line, prefix) {
				line = strings.TrimSpace(strings.TrimPrefix(line, prefix))
				break
			}
		}
		bullets = append(bullets, model.AnswerBullet{Text: line, Citations: []model.Citation{cit}})
		if len(bullets) >= maxBullets {
			break
		}
	}
	return bullets
}
