// Package extract implements the deterministic pattern-based scanners that
// pull financial facts (metrics, guidance ranges, buybacks, period series)
// out of a chunk set, attaching a citation to every fact.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

const unitSuffix = `(b|bn|billion|m|mm|million|k|thousand)?`

var (
	moneyRE  = regexp.MustCompile(`(?i)\$?([0-9][0-9,.]*)\s*` + unitSuffix)
	pctRE    = regexp.MustCompile(`([0-9]{1,2}(?:\.[0-9]+)?)\s*%`)
	periodRE = regexp.MustCompile(`(?i)\b((?:Q[1-4]|FY)\s*\d{4})\b`)

	moneyRangeRE = regexp.MustCompile(`(?i)\$?([0-9][0-9,.]*)\s*` + unitSuffix + `\s*(?:to|-)\s*\$?([0-9][0-9,.]*)\s*` + unitSuffix)
	pctRangeRE   = regexp.MustCompile(`([0-9]{1,2}(?:\.[0-9]+)?)\s*%\s*(?:to|-)\s*([0-9]{1,2}(?:\.[0-9]+)?)\s*%`)

	authorizedRE  = regexp.MustCompile(`(?i)authorize(?:d|s|tion).*?\$?([0-9][0-9,.]*)\s*` + unitSuffix)
	repurchasedRE = regexp.MustCompile(`(?i)repurchase(?:d)?.*?\$?([0-9][0-9,.]*)\s*` + unitSuffix)
)

// toMillions normalizes a money amount to USD millions given its unit suffix.
func toMillions(valueStr, unit string) (float64, bool) {
	num, err := strconv.ParseFloat(strings.ReplaceAll(valueStr, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(unit) {
	case "b", "bn", "billion":
		return num * 1000, true
	case "m", "mm", "million", "":
		return num, true
	case "k", "thousand":
		return num / 1000, true
	}
	return num, true
}

// firstMoney returns the first money amount in text, normalized to millions.
// Fiscal-period tokens are masked out first so "Q3 2024" never reads as an
// amount.
func firstMoney(text string) (float64, bool) {
	masked := periodRE.ReplaceAllString(text, " ")
	m := moneyRE.FindStringSubmatch(masked)
	if m == nil {
		return 0, false
	}
	return toMillions(m[1], m[2])
}

// firstPct returns the first percentage in text.
func firstPct(text string) (float64, bool) {
	m := pctRE.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// firstPeriod returns the first fiscal period label (Q[1-4] YYYY or FY YYYY),
// uppercased, or "" if none.
func firstPeriod(text string) string {
	m := periodRE.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
