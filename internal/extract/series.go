package extract

import (
	"strings"

	"earnings-ai/internal/model"
)

const maxSeriesPoints = 8

// SeriesForMetrics scans chunk lines for period+value pairs per requested
// metric and returns small labeled series for charting. Margin-like metrics
// read percentages, EPS metrics read unscaled money, everything else reads
// money in millions. The citation comes from the first chunk containing the
// first matched period label.
func SeriesForMetrics(chunks []model.Chunk, metrics []string) map[string]model.Series {
	out := make(map[string]model.Series)

	var lines []string
	for _, c := range chunks {
		for _, ln := range strings.Split(c.Text, "\n") {
			ln = strings.TrimSpace(ln)
			if ln != "" {
				lines = append(lines, ln)
			}
		}
	}

	for _, name := range metrics {
		kind := metricKind(name)
		var labels []string
		var values []float64
		for _, line := range lines {
			period := firstPeriod(line)
			if period == "" {
				continue
			}
			var v float64
			var ok bool
			switch kind {
			case "pct":
				v, ok = firstPct(line)
			default:
				v, ok = firstMoney(line)
			}
			if ok {
				labels = append(labels, period)
				values = append(values, v)
			}
		}
		if len(labels) == 0 {
			continue
		}
		if len(labels) > maxSeriesPoints {
			labels = labels[:maxSeriesPoints]
			values = values[:maxSeriesPoints]
		}

		var citations []model.Citation
		for _, c := range chunks {
			if strings.Contains(c.Text, labels[0]) {
				citations = append(citations, model.Cite(c))
				break
			}
		}
		out[name] = model.Series{Labels: labels, Values: values, Citations: citations}
	}
	return out
}

func metricKind(name string) string {
	n := strings.ToLower(name)
	if strings.Contains(n, "margin") {
		return "pct"
	}
	if strings.HasPrefix(n, "eps") {
		return "eps"
	}
	return "money"
}
