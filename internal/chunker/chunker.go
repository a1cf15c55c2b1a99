// Package chunker splits per-page document text into overlapping,
// section-tagged chunks suitable for retrieval and citation.
package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"earnings-ai/internal/model"
)

const (
	// DefaultTargetChars is the target chunk size in characters.
	DefaultTargetChars = 1200
	// DefaultOverlapChars is the trailing-overlap carried into the next chunk.
	DefaultOverlapChars = 200

	maxHeadingLen   = 120
	sectionLabelLen = 80
	capsRatioMin    = 0.85
)

// commonHeadings matches section headings typically found in SEC filings and
// earnings documents.
var commonHeadings = regexp.MustCompile(`(?i)` + strings.Join([]string{
	`Management['’]?s\s+Discussion\s+and\s+Analysis`,
	`MD&A`,
	`Risk\s+Factors`,
	`Business`,
	`Financial\s+Statements`,
	`Liquidity\s+and\s+Capital\s+Resources`,
	`Share\s+Repurchases|Stock\s+Repurchase|Share\s+Buybacks|Repurchase\s+Program`,
	`Cash\s+Flows|Free\s+Cash\s+Flow|FCF`,
	`Results\s+of\s+Operations`,
	`Overview`,
	`Forward[- ]Looking\s+Statements`,
}, "|"))

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// splitParagraphs normalizes line endings and splits text into non-empty
// paragraphs on blank-line boundaries.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var parts []string
	for _, p := range paragraphSplit.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 && strings.TrimSpace(text) != "" {
		parts = []string{text}
	}
	return parts
}

// isHeading reports whether a paragraph looks like a section heading: short,
// and either a known financial-document heading or mostly uppercase.
func isHeading(para string) bool {
	if len(para) > maxHeadingLen {
		return false
	}
	if commonHeadings.MatchString(para) {
		return true
	}
	var letters, caps int
	for _, r := range para {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				caps++
			}
		}
	}
	if letters == 0 {
		return false
	}
	return float64(caps)/float64(letters) >= capsRatioMin
}

// overlapTail returns at most n trailing bytes of s, moving the cut forward
// to a rune boundary so the overlap never starts with a partial rune.
func overlapTail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := len(s) - n
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return s[cut:]
}

// ChunkPages splits an ordered list of pages into chunks of roughly
// targetChars characters, carrying overlapChars of trailing text across chunk
// boundaries. Section headings switch the active section label and are never
// included in chunk bodies. A single paragraph longer than targetChars is
// emitted as one oversized chunk. Empty input yields an empty list.
func ChunkPages(pages []model.Page, targetChars, overlapChars int) []model.Chunk {
	var (
		chunks       []model.Chunk
		buf          []string
		bufLen       int
		currentStart = -1
		section      string
	)

	flush := func(pageEnd int) {
		text := strings.Join(buf, "\n\n")
		chunks = append(chunks, model.Chunk{
			ID:        uuid.NewString(),
			Text:      text,
			Section:   section,
			PageStart: currentStart,
			PageEnd:   pageEnd,
		})
	}

	for _, page := range pages {
		for _, para := range splitParagraphs(page.Text) {
			if isHeading(para) {
				// Flush the in-progress buffer under the previous section
				// label. No overlap is carried across headings.
				if len(buf) > 0 && currentStart >= 0 {
					flush(page.Number)
					buf = nil
					bufLen = 0
				}
				section = model.Snippet(strings.TrimSpace(para), sectionLabelLen)
				if currentStart < 0 {
					currentStart = page.Number
				}
				continue
			}

			if currentStart < 0 {
				currentStart = page.Number
			}

			if bufLen+len(para)+1 > targetChars && len(buf) > 0 {
				flush(page.Number)
				tail := ""
				if overlapChars > 0 {
					tail = overlapTail(chunks[len(chunks)-1].Text, overlapChars)
				}
				if tail != "" {
					buf = []string{tail, para}
					bufLen = len(para) + len(tail)
				} else {
					buf = []string{para}
					bufLen = len(para)
				}
				currentStart = page.Number
			} else {
				buf = append(buf, para)
				bufLen += len(para) + 2
			}
		}
	}

	if len(buf) > 0 && currentStart >= 0 {
		lastPage := 1
		if len(pages) > 0 {
			lastPage = pages[len(pages)-1].Number
		}
		flush(lastPage)
	}

	return chunks
}
