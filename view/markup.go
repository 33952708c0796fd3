package view

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses markup as the children of a <body> element.
func ParseFragment(markup string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing markup: %w", err)
	}
	return nodes, nil
}

// RenderNodes serializes nodes back into markup.
func RenderNodes(nodes []*html.Node) (string, error) {
	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return "", fmt.Errorf("rendering markup: %w", err)
		}
	}
	return b.String(), nil
}

// Walk calls fn for every node in document order. Children appended by fn
// to the node being visited are not walked.
func Walk(nodes []*html.Node, fn func(*html.Node)) {
	for _, n := range nodes {
		walk(n, fn)
	}
}

func walk(n *html.Node, fn func(*html.Node)) {
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	fn(n)
	for _, c := range children {
		walk(c, fn)
	}
}

func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func HasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	v, _ := Attr(n, "class")
	return slices.Contains(strings.Fields(v), class)
}

// AddClass adds each class not already present.
func AddClass(n *html.Node, classes ...string) {
	v, _ := Attr(n, "class")
	fields := strings.Fields(v)
	for _, c := range classes {
		if !slices.Contains(fields, c) {
			fields = append(fields, c)
		}
	}
	SetAttr(n, "class", strings.Join(fields, " "))
}

func RemoveClass(n *html.Node, class string) {
	v, ok := Attr(n, "class")
	if !ok {
		return
	}
	fields := slices.DeleteFunc(strings.Fields(v), func(c string) bool { return c == class })
	SetAttr(n, "class", strings.Join(fields, " "))
}

// ReplaceChildren returns markup with the children of the element whose id
// is id replaced by inner. It reports false, leaving markup unchanged, when
// no such element exists.
func ReplaceChildren(markup, id, inner string) (string, bool, error) {
	nodes, err := ParseFragment(markup)
	if err != nil {
		return markup, false, err
	}
	var target *html.Node
	Walk(nodes, func(n *html.Node) {
		if target != nil || n.Type != html.ElementNode {
			return
		}
		if v, ok := Attr(n, "id"); ok && v == id {
			target = n
		}
	})
	if target == nil {
		return markup, false, nil
	}

	children, err := html.ParseFragment(strings.NewReader(inner), target)
	if err != nil {
		return markup, false, fmt.Errorf("parsing replacement: %w", err)
	}
	for c := target.FirstChild; c != nil; c = target.FirstChild {
		target.RemoveChild(c)
	}
	for _, c := range children {
		target.AppendChild(c)
	}

	out, err := RenderNodes(nodes)
	if err != nil {
		return markup, false, err
	}
	return out, true, nil
}
