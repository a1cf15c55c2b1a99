// Package retrieve selects the evidence set for a question: query expansion,
// variant embedding, per-variant vector search, merge and continuity
// expansion.
package retrieve

import "strings"

// maxVariants caps the expanded query list, original question included.
const maxVariants = 6

// ExpandQuery returns the original question followed by domain paraphrase
// variants triggered by keyword families in the question. Variants only add
// recall; the original question always comes first. The output is
// de-duplicated and capped at maxVariants.
func ExpandQuery(q string) []string {
	ql := strings.ToLower(q)
	variants := []string{strings.TrimSpace(q)}

	if strings.Contains(ql, "fcf") || strings.Contains(ql, "free cash flow") {
		variants = append(variants,
			"free cash flow growth",
			"free cash flow guidance",
			"free cash flow outlook",
			"cash flow from operations minus capital expenditures",
		)
	}
	if containsAny(ql, "guidance", "projection", "projections", "forecast", "outlook") {
		variants = append(variants,
			"guidance next year",
			"outlook next fiscal year",
			"forecast FY next year",
		)
	}
	if containsAny(ql, "fcf", "free cash flow", "cash flow") {
		variants = append(variants,
			"operating cash flow",
			"cash provided by operating activities",
			"capital expenditures",
			"capex",
			"purchases of property and equipment",
		)
	}
	if strings.Contains(ql, "growth") {
		variants = append(variants,
			"year-over-year growth",
			"yoy growth",
		)
	}

	seen := make(map[string]bool, len(variants))
	out := make([]string, 0, maxVariants)
	for _, v := range variants {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
		if len(out) == maxVariants {
			break
		}
	}
	return out
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
