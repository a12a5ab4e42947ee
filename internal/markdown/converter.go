// Package markdown renders commonmark bodies to HTML and extracts their
// plain text in a single pass over one parsed tree, so the text projection
// always corresponds exactly to the rendered HTML.
package markdown

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	gmtext "github.com/yuin/goldmark/text"
)

// ErrParse indicates the markdown engine could not process the body.
var ErrParse = errors.New("markdown: parse failed")

// Converter wraps a configured goldmark engine. It is stateless, so one
// instance can be shared across workers without locking.
type Converter struct {
	engine goldmark.Markdown
}

// NewConverter builds the engine with GFM and autolinking enabled, auto
// heading IDs, and raw HTML allowed (content files are author-trusted).
func NewConverter() *Converter {
	return &Converter{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Convert parses source once, then derives both outputs from the same tree:
// every text run in document order, each followed by a single space, and the
// rendered HTML.
func (c *Converter) Convert(source []byte) (string, string, error) {
	root := c.engine.Parser().Parse(gmtext.NewReader(source))

	var text bytes.Buffer
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			text.Write(node.Segment.Value(source))
			text.WriteByte(' ')
		case *ast.String:
			text.Write(node.Value)
			text.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	var htmlBuf bytes.Buffer
	if err := c.engine.Renderer().Render(&htmlBuf, source, root); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	return htmlBuf.String(), text.String(), nil
}
