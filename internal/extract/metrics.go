package extract

import (
	"strings"

	"earnings-ai/internal/model"
)

// CoreMetricOrder is the canonical presentation order for extracted metrics.
var CoreMetricOrder = []string{
	"revenue",
	"gross_margin",
	"operating_margin",
	"eps_gaap",
	"eps_nongaap",
	"cfo",
	"capex",
	"fcf",
	"fcf_margin",
}

// CoreMetrics scans chunks in document order for the supported financial
// metrics. For each metric the first matching value wins and the matching
// chunk becomes the citation source. Free cash flow is derived as CFO minus
// CAPEX when not found directly.
func CoreMetrics(chunks []model.Chunk) map[string]model.ExtractedMetric {
	found := make(map[string]model.ExtractedMetric)

	record := func(name string, value float64, unit, period string, c model.Chunk) {
		if _, ok := found[name]; ok {
			return
		}
		found[name] = model.ExtractedMetric{
			Name:      name,
			Value:     value,
			Unit:      unit,
			Period:    period,
			Citations: []model.Citation{model.Cite(c)},
		}
	}

	// Remembered so derived FCF can reuse the CFO citation and period.
	var cfoChunk model.Chunk

	for _, c := range chunks {
		txt := c.Text
		ltxt := strings.ToLower(txt)
		period := firstPeriod(txt)

		if strings.Contains(ltxt, "revenue") && !strings.Contains(ltxt, "deferred") {
			if v, ok := firstMoney(txt); ok {
				record("revenue", v, model.UnitUSDMillions, period, c)
			}
		}

		if strings.Contains(ltxt, "gross margin") {
			if v, ok := firstPct(txt); ok {
				record("gross_margin", v, model.UnitPercent, period, c)
			}
		}

		if strings.Contains(ltxt, "operating margin") ||
			(strings.Contains(ltxt, "operating income") && strings.Contains(ltxt, "%")) {
			if v, ok := firstPct(txt); ok {
				record("operating_margin", v, model.UnitPercent, period, c)
			}
		}

		// EPS values in text are already per-share USD, not millions.
		if strings.Contains(ltxt, "earnings per share") || strings.Contains(ltxt, "eps") {
			if v, ok := firstMoney(txt); ok {
				if containsAny(ltxt, "non-gaap", "adjusted", "non gaap") {
					record("eps_nongaap", v, model.UnitUSD, period, c)
				} else {
					record("eps_gaap", v, model.UnitUSD, period, c)
				}
			}
		}

		if containsAny(ltxt, "cash provided by operating activities", "operating cash flow", "cash flow from operations") {
			if v, ok := firstMoney(txt); ok {
				if _, have := found["cfo"]; !have {
					cfoChunk = c
				}
				record("cfo", v, model.UnitUSDMillions, period, c)
			}
		}

		if containsAny(ltxt, "capital expenditures", "capex", "property and equipment") {
			if v, ok := firstMoney(txt); ok {
				record("capex", v, model.UnitUSDMillions, period, c)
			}
		}

		if containsAny(ltxt, "free cash flow", "fcf") {
			if v, ok := firstMoney(txt); ok {
				record("fcf", v, model.UnitUSDMillions, period, c)
			}
			if v, ok := firstPct(txt); ok {
				record("fcf_margin", v, model.UnitPercent, period, c)
			}
		}
	}

	// FCF = CFO - CAPEX when not stated directly. Period comes from whichever
	// input carries one; citation from the CFO chunk.
	if _, have := found["fcf"]; !have {
		cfo, haveCFO := found["cfo"]
		capex, haveCapex := found["capex"]
		if haveCFO && haveCapex {
			period := cfo.Period
			if period == "" {
				period = capex.Period
			}
			found["fcf"] = model.ExtractedMetric{
				Name:      "fcf",
				Value:     cfo.Value - capex.Value,
				Unit:      model.UnitUSDMillions,
				Period:    period,
				Citations: []model.Citation{model.Cite(cfoChunk)},
			}
		}
	}

	return found
}
