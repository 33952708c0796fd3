// Package highlight colours fenced code blocks with chroma.
package highlight

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"adventune/folio/events"
	"adventune/folio/view"
)

const DefaultStyle = "onedark"

// Highlighter rewrites <pre><code class="language-X"> blocks into
// class-annotated tokens. Pair it with the stylesheet from WriteCSS.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

var _ events.Subscriber = (*Highlighter)(nil)

func New(styleName string) *Highlighter {
	if styleName == "" {
		styleName = DefaultStyle
	}
	return &Highlighter{
		style: styles.Get(styleName),
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
			chromahtml.TabWidth(2),
		),
	}
}

func (h *Highlighter) ContentReady(ctx context.Context, ev events.ContentReady) {
	if len(ev.Components) > 0 && !ev.Has(view.Prism) {
		return
	}
	out, err := h.Highlight(ev.Root.HTML())
	if err != nil {
		log.Error().Err(err).Msg("Failed to highlight code")
		return
	}
	ev.Root.Render(out)
}

// Highlight returns markup with each code block not yet highlighted
// replaced by its tokenized form. Blocks are marked data-highlighted.
func (h *Highlighter) Highlight(markup string) (string, error) {
	nodes, err := view.ParseFragment(markup)
	if err != nil {
		return markup, err
	}
	var blocks []*html.Node
	view.Walk(nodes, func(n *html.Node) {
		if n.DataAtom != atom.Code || n.Parent == nil || n.Parent.DataAtom != atom.Pre {
			return
		}
		if v, _ := view.Attr(n, "data-highlighted"); v == "true" {
			return
		}
		if language(n) != "" {
			blocks = append(blocks, n)
		}
	})
	if len(blocks) == 0 {
		return markup, nil
	}

	for _, code := range blocks {
		if err := h.highlightBlock(code); err != nil {
			log.Warn().Err(err).Str("language", language(code)).Msg("Leaving code block unhighlighted")
		}
	}
	return view.RenderNodes(nodes)
}

func (h *Highlighter) highlightBlock(code *html.Node) error {
	lang := language(code)
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	var src strings.Builder
	for c := code.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			src.WriteString(c.Data)
		}
	}
	it, err := lexer.Tokenise(nil, src.String())
	if err != nil {
		return fmt.Errorf("tokenising %s: %w", lang, err)
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, it); err != nil {
		return fmt.Errorf("formatting %s: %w", lang, err)
	}
	tokens, err := html.ParseFragment(strings.NewReader(b.String()), code)
	if err != nil {
		return fmt.Errorf("parsing highlighted %s: %w", lang, err)
	}

	for c := code.FirstChild; c != nil; c = code.FirstChild {
		code.RemoveChild(c)
	}
	for _, t := range tokens {
		code.AppendChild(t)
	}
	view.SetAttr(code, "data-highlighted", "true")
	view.AddClass(code.Parent, "chroma")
	return nil
}

// WriteCSS writes the stylesheet for the highlighter's style.
func (h *Highlighter) WriteCSS(w io.Writer) error {
	return h.formatter.WriteCSS(w, h.style)
}

func language(code *html.Node) string {
	class, _ := view.Attr(code, "class")
	for _, c := range strings.Fields(class) {
		if lang, ok := strings.CutPrefix(c, "language-"); ok {
			return strings.ToLower(lang)
		}
	}
	return ""
}
