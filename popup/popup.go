// Package popup attaches hover image popups to links marked
// class="link popup" with a comma separated data-popup-ids attribute.
package popup

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"adventune/folio/events"
	"adventune/folio/view"
)

const (
	DefaultScale         = 1.0
	DefaultRotationStart = 0.0
	DefaultRotationEnd   = -12.0
)

// Binder builds each popup link's hidden image stack once.
type Binder struct {
	AssetRoot      string
	ImageFormat    string
	FallbackFormat string
}

var _ events.Subscriber = (*Binder)(nil)

func NewBinder(assetRoot, imageFormat, fallbackFormat string) *Binder {
	return &Binder{AssetRoot: assetRoot, ImageFormat: imageFormat, FallbackFormat: fallbackFormat}
}

func (b *Binder) ContentReady(ctx context.Context, ev events.ContentReady) {
	if len(ev.Components) > 0 && !ev.Has(view.Popups) {
		return
	}
	out, err := b.Bind(ev.Root.HTML())
	if err != nil {
		log.Error().Err(err).Msg("Failed to bind popups")
		return
	}
	ev.Root.Render(out)
}

// Bind returns markup with a popup container appended for every unbound
// popup link. Bound links carry data-popup-bound="1" and point at their
// container through data-popup-target.
func (b *Binder) Bind(markup string) (string, error) {
	nodes, err := view.ParseFragment(markup)
	if err != nil {
		return markup, err
	}

	existing := 0
	var links []*html.Node
	view.Walk(nodes, func(n *html.Node) {
		switch {
		case view.HasClass(n, "popup-container"):
			existing++
		case n.DataAtom == atom.A && view.HasClass(n, "link") && view.HasClass(n, "popup"):
			if v, _ := view.Attr(n, "data-popup-bound"); v != "1" {
				links = append(links, n)
			}
		}
	})

	for _, link := range links {
		view.SetAttr(link, "data-popup-bound", "1")
		ids := popupIDs(link)
		if len(ids) == 0 {
			continue
		}
		id := "popup-" + strconv.Itoa(existing)
		existing++
		view.SetAttr(link, "data-popup-target", id)
		nodes = append(nodes, b.container(id, ids, linkTransform(link)))
	}
	return view.RenderNodes(nodes)
}

type transform struct {
	scale, rotStart, rotEnd float64
}

func linkTransform(link *html.Node) transform {
	return transform{
		scale:    floatAttr(link, "data-popup-scale", DefaultScale),
		rotStart: floatAttr(link, "data-popup-rotation-start", DefaultRotationStart),
		rotEnd:   floatAttr(link, "data-popup-rotation-end", DefaultRotationEnd),
	}
}

// itemStyle positions item i of n in the fanned-out stack.
func (t transform) itemStyle(i, n int) string {
	steps := max(1, n-1)
	rotation := t.rotStart + float64(i)*(t.rotEnd-t.rotStart)/float64(steps)
	return fmt.Sprintf("z-index: %d; animation-delay: %.2fs; transform: translateY(%dpx) rotate(%gdeg) scale(%g)",
		1000-i, float64(i)*0.10, i*-90, rotation, t.scale)
}

func (b *Binder) container(id string, ids []string, t transform) *html.Node {
	c := element(atom.Div, "popup-container")
	view.SetAttr(c, "id", id)
	view.SetAttr(c, "style", "display: none")
	for i, imageID := range ids {
		item := element(atom.Div, "popup-item")
		view.SetAttr(item, "style", t.itemStyle(i, len(ids)))

		picture := &html.Node{Type: html.ElementNode, Data: "picture", DataAtom: atom.Picture}
		src := &html.Node{Type: html.ElementNode, Data: "source", DataAtom: atom.Source, Attr: []html.Attribute{
			{Key: "srcset", Val: path.Join(b.AssetRoot, imageID+"."+b.ImageFormat)},
			{Key: "type", Val: "image/" + b.ImageFormat},
		}}
		img := &html.Node{Type: html.ElementNode, Data: "img", DataAtom: atom.Img, Attr: []html.Attribute{
			{Key: "src", Val: path.Join(b.AssetRoot, imageID+"."+b.FallbackFormat)},
			{Key: "alt", Val: imageID},
			{Key: "loading", Val: "lazy"},
			{Key: "decoding", Val: "async"},
		}}
		picture.AppendChild(src)
		picture.AppendChild(img)
		item.AppendChild(picture)
		c.AppendChild(item)
	}
	return c
}

func popupIDs(link *html.Node) []string {
	v, _ := view.Attr(link, "data-popup-ids")
	var ids []string
	for _, id := range strings.Split(v, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func floatAttr(n *html.Node, key string, def float64) float64 {
	v, ok := view.Attr(n, key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

func element(a atom.Atom, class string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     a.String(),
		DataAtom: a,
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
}
