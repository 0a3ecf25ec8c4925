package extract

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown flattens a Markdown document into text. Headings
// become standalone lines so downstream section detection still sees
// them.
func extractMarkdown(data []byte) (string, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(data))

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if title := strings.TrimSpace(string(node.Text(data))); title != "" {
				blocks = append(blocks, title)
			}
		default:
			if t := markdownNodeText(n, data); t != "" {
				blocks = append(blocks, t)
			}
		}
	}
	return strings.Join(blocks, "\n"), nil
}

// markdownNodeText returns the raw source lines of a block node, or
// descends into containers (lists, quotes) that carry no lines of
// their own.
func markdownNodeText(n ast.Node, src []byte) string {
	if n.Type() == ast.TypeBlock {
		var buf bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			buf.Write(lines.At(i).Value(src))
		}
		if t := strings.TrimSpace(buf.String()); t != "" {
			return t
		}
	}
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := markdownNodeText(c, src); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}
