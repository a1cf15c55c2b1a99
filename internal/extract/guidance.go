package extract

import (
	"strings"

	"earnings-ai/internal/model"
)

// GuidanceRange is one heuristically-detected forward-looking range.
type GuidanceRange struct {
	Type      string
	Low       float64
	High      float64
	Unit      string
	Period    string
	Citations []model.Citation
}

var guidanceTriggers = []string{"guidance", "outlook", "expect", "forecast"}

// Guidance scans chunks flagged by forward-looking keywords for "A to B"
// ranges: money ranges are reported as revenue guidance, percentage ranges as
// margin guidance.
func Guidance(chunks []model.Chunk) []GuidanceRange {
	var out []GuidanceRange
	for _, c := range chunks {
		txt := c.Text
		ltxt := strings.ToLower(txt)
		if !containsAny(ltxt, guidanceTriggers...) {
			continue
		}
		period := firstPeriod(txt)

		if m := moneyRangeRE.FindStringSubmatch(txt); m != nil {
			lo, okLo := toMillions(m[1], m[2])
			hi, okHi := toMillions(m[3], m[4])
			if okLo && okHi {
				out = append(out, GuidanceRange{
					Type:      "revenue",
					Low:       lo,
					High:      hi,
					Unit:      model.UnitUSDMillions,
					Period:    period,
					Citations: []model.Citation{model.Cite(c)},
				})
			}
		}

		if m := pctRangeRE.FindStringSubmatch(txt); m != nil {
			lo, okLo := parseFloat(m[1])
			hi, okHi := parseFloat(m[2])
			if okLo && okHi {
				out = append(out, GuidanceRange{
					Type:      "margin",
					Low:       lo,
					High:      hi,
					Unit:      model.UnitPercent,
					Period:    period,
					Citations: []model.Citation{model.Cite(c)},
				})
			}
		}
	}
	return out
}
