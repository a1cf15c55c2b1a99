package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"earnings-ai/internal/model"
)

// markdownParser is shared; goldmark parsers are safe for concurrent use.
var markdownParser = goldmark.New(goldmark.WithExtensions(extension.Table))

// PagesFromMarkdown converts markdown content into numbered plain-text pages.
// Page breaks happen at thematic breaks (---) and at every level-1 heading
// after the first, mirroring how exported transcripts and press releases mark
// page boundaries. Headings stay in the text so the chunker can pick them up
// as section labels.
func PagesFromMarkdown(content []byte) []model.Page {
	if len(content) == 0 {
		return nil
	}

	doc := markdownParser.Parser().Parse(text.NewReader(content))

	var pages []model.Page
	var buf strings.Builder

	flush := func() {
		t := strings.TrimSpace(buf.String())
		buf.Reset()
		if t != "" {
			pages = append(pages, model.Page{Number: len(pages) + 1, Text: t})
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.ThematicBreak:
			flush()
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			if node.Level == 1 && buf.Len() > 0 {
				flush()
			}
			appendBlock(&buf, nodeText(node, content))
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.List:
			appendBlock(&buf, nodeText(n, content))
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			appendBlock(&buf, linesText(n, content))
			return ast.WalkSkipChildren, nil
		}
		if strings.Contains(n.Kind().String(), "Table") {
			appendBlock(&buf, tableText(n, content))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	flush()

	return pages
}

// appendBlock writes t as a new blank-line-separated block so the downstream
// chunker sees paragraph boundaries.
func appendBlock(buf *strings.Builder, t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if buf.Len() > 0 {
		buf.WriteString("\n\n")
	}
	buf.WriteString(t)
}

// nodeText extracts the plain text of a node and its children.
func nodeText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteString("\n")
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.ListItem:
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// linesText extracts raw line content, used for code blocks.
func linesText(n ast.Node, content []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(content))
	}
	return b.String()
}

// tableText renders a table node as pipe-separated rows.
func tableText(table ast.Node, content []byte) string {
	var rows []string
	_ = ast.Walk(table, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		kind := node.Kind().String()
		if strings.Contains(kind, "TableRow") || strings.Contains(kind, "TableHeader") {
			var cells []string
			_ = ast.Walk(node, func(cell ast.Node, entering bool) (ast.WalkStatus, error) {
				if !entering {
					return ast.WalkContinue, nil
				}
				if strings.Contains(cell.Kind().String(), "TableCell") {
					cells = append(cells, strings.TrimSpace(nodeText(cell, content)))
					return ast.WalkSkipChildren, nil
				}
				return ast.WalkContinue, nil
			})
			rows = append(rows, strings.Join(cells, " | "))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(rows, "\n")
}
