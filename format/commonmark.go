package format

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// CommonMark renders bodies as standard markdown. Its output already wraps
// paragraphs, so Render adds no animation marking.
type CommonMark struct{}

var _ Formatter = CommonMark{}

// Converts markdown elements to raw unstyled HTML.
func (CommonMark) Format(body string) string {
	// create markdown parser with extensions
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(body))

	// create HTML renderer with extensions
	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	opts := html.RendererOptions{Flags: htmlFlags}
	renderer := html.NewRenderer(opts)

	return string(markdown.Render(doc, renderer))
}

func (c CommonMark) Render(body string) string {
	return c.Format(body)
}

// Named returns the formatter registered under name: "dialect" (the
// default), "commonmark" or "gfm".
func Named(name string) (Formatter, bool) {
	switch name {
	case "", "dialect":
		return Dialect{}, true
	case "commonmark":
		return CommonMark{}, true
	case "gfm":
		return NewGFM(), true
	default:
		return nil, false
	}
}
