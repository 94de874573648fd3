// Package markdown extracts structural outlines from processed filing
// documents.
package markdown

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Outliner walks a filing's markdown headings and returns a flat outline
// for the filing directory.
type Outliner struct {
	parser goldmark.Markdown
}

// NewOutliner creates an Outliner configured with the goldmark parser.
func NewOutliner() *Outliner {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Outliner{parser: md}
}

// Outline returns the document's H1 and H2 headings in order, with H2s
// indented under their parent. Deeper headings are noise in converted
// filings and are skipped. A document with no headings yields an empty
// outline.
func (o *Outliner) Outline(source []byte) ([]string, error) {
	reader := text.NewReader(source)
	doc := o.parser.Parser().Parse(reader)

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	var outline []string
	flatten(tree.Items, 0, &outline)
	return outline, nil
}

func flatten(items toc.Items, depth int, outline *[]string) {
	for _, item := range items {
		title := strings.TrimSpace(string(item.Title))
		if title != "" {
			*outline = append(*outline, strings.Repeat("  ", depth)+title)
		}
		if len(item.Items) > 0 {
			flatten(item.Items, depth+1, outline)
		}
	}
}
