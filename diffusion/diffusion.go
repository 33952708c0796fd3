// Package diffusion prepares rendered markup for the character-by-character
// text reveal.
package diffusion

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"adventune/folio/events"
	"adventune/folio/format"
	"adventune/folio/view"
)

// DefaultDelay is the per-character animation delay in milliseconds when an
// element has no usable data-diffuse-delay attribute.
const DefaultDelay = 14

// Animator splits every .diffuse-text element into per-character spans.
type Animator struct {
	Delay int
}

var _ events.Subscriber = (*Animator)(nil)

func NewAnimator() *Animator {
	return &Animator{Delay: DefaultDelay}
}

func (a *Animator) ContentReady(ctx context.Context, ev events.ContentReady) {
	if len(ev.Components) > 0 && !ev.Has(view.Diffusion) {
		return
	}
	out, err := a.Prepare(ev.Root.HTML(), ev.Options.SkipAnimation)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prepare diffusion")
		return
	}
	ev.Root.Render(out)
}

// Prepare returns markup with its animated elements split up. With skip
// set, or on elements marked skip-diffuse, elements are shown finished.
// Elements already prepared or animated are left alone.
func (a *Animator) Prepare(markup string, skip bool) (string, error) {
	nodes, err := view.ParseFragment(markup)
	if err != nil {
		return markup, err
	}
	view.Walk(nodes, func(n *html.Node) {
		if !view.HasClass(n, format.DiffuseClass) {
			return
		}
		if skip || view.HasClass(n, "skip-diffuse") {
			view.RemoveClass(n, "skip-diffuse")
			a.showInstantly(n)
			return
		}
		if v, _ := view.Attr(n, "data-animated"); v == "true" {
			return
		}
		if v, _ := view.Attr(n, "data-diffuse-prepared"); v == "true" {
			return
		}
		a.prepare(n)
	})
	return view.RenderNodes(nodes)
}

func (a *Animator) showInstantly(n *html.Node) {
	if v, _ := view.Attr(n, "data-diffuse-prepared"); v != "true" {
		a.prepare(n)
	}
	view.RemoveClass(n, "diffuse-active")
	view.AddClass(n, "diffuse-instant", "diffuse-complete")
	view.SetAttr(n, "data-animated", "true")
}

func (a *Animator) prepare(n *html.Node) {
	if strings.TrimSpace(textContent(n)) == "" {
		addStyle(n, "visibility: visible")
		view.SetAttr(n, "data-diffuse-prepared", "true")
		return
	}

	delay := a.Delay
	if v, ok := view.Attr(n, "data-diffuse-delay"); ok {
		if d, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			delay = d
		}
	}

	var children []*html.Node
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
		children = append(children, c)
	}
	addStyle(n, "visibility: visible")
	view.RemoveClass(n, "diffuse-instant")
	view.RemoveClass(n, "diffuse-active")
	view.RemoveClass(n, "diffuse-complete")

	index := 0
	for _, c := range children {
		if c.Type != html.TextNode {
			n.AppendChild(c)
			continue
		}
		var word *html.Node
		flush := func() {
			if word != nil {
				n.AppendChild(word)
				word = nil
			}
		}
		for _, r := range c.Data {
			if r == '\n' || r == '\r' {
				r = ' '
			}
			span := charSpan(r, index*delay)
			index++
			if r == ' ' {
				view.AddClass(span, "diffuse-space")
				flush()
				n.AppendChild(span)
				continue
			}
			if word == nil {
				word = element(atom.Span, "diffuse-word")
			}
			word.AppendChild(span)
		}
		flush()
	}
	view.SetAttr(n, "data-diffuse-prepared", "true")
}

func charSpan(r rune, delay int) *html.Node {
	span := element(atom.Span, "diffuse-char")
	view.SetAttr(span, "style", "animation-delay: "+strconv.Itoa(delay)+"ms")
	span.AppendChild(&html.Node{Type: html.TextNode, Data: string(r)})
	return span
}

func element(a atom.Atom, class string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     a.String(),
		DataAtom: a,
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
}

func addStyle(n *html.Node, decl string) {
	style, _ := view.Attr(n, "style")
	style = strings.TrimRight(strings.TrimSpace(style), ";")
	if style != "" {
		style += "; "
	}
	view.SetAttr(n, "style", style+decl)
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
