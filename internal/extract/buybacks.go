package extract

import (
	"strings"

	"earnings-ai/internal/model"
)

// Buybacks scans repurchase-flagged chunks for authorization and executed
// repurchase amounts, reported separately per chunk.
func Buybacks(chunks []model.Chunk) []model.BuybackEntry {
	var out []model.BuybackEntry
	for _, c := range chunks {
		ltxt := strings.ToLower(c.Text)
		if !containsAny(ltxt, "repurchase", "buyback", "share repurchase") {
			continue
		}
		entry := model.BuybackEntry{
			Period:    firstPeriod(c.Text),
			Citations: []model.Citation{model.Cite(c)},
		}
		if m := authorizedRE.FindStringSubmatch(c.Text); m != nil {
			if v, ok := toMillions(m[1], m[2]); ok {
				entry.AuthorizationAmount = model.Float64Ptr(v)
				entry.Unit = model.UnitUSDMillions
			}
		}
		if m := repurchasedRE.FindStringSubmatch(c.Text); m != nil {
			if v, ok := toMillions(m[1], m[2]); ok {
				entry.RepurchasedAmount = model.Float64Ptr(v)
				entry.Unit = model.UnitUSDMillions
			}
		}
		out = append(out, entry)
	}
	return out
}
