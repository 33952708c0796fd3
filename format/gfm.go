package format

import (
	"bytes"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// GFM renders bodies as GitHub flavored markdown: tables, strikethrough,
// autolinks and task lists. Raw HTML in a body is passed through.
type GFM struct {
	md goldmark.Markdown
}

var _ Formatter = (*GFM)(nil)

func NewGFM() *GFM {
	return &GFM{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)}
}

func (g *GFM) Format(body string) string {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(body), &buf); err != nil {
		log.Warn().Err(err).Msg("Failed to convert markdown")
		return ""
	}
	return buf.String()
}

func (g *GFM) Render(body string) string {
	return g.Format(body)
}
