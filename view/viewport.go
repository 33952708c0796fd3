// Package view holds the content region the router renders into, and the
// markup helpers shared by the collaborators that post-process it.
package view

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Component names a post-processing pass that applies to rendered markup.
type Component string

const (
	Diffusion Component = "diffusion"
	Popups    Component = "popups"
	Prism     Component = "prism"
)

// ViewPort is the content region of a page.
type ViewPort interface {
	Render(markup string)
	Clear()
	HTML() string
	// CurrentComponents reports which passes apply to the current markup.
	CurrentComponents() []Component
	// ClosePopups hides every open hover popup.
	ClosePopups()
}

// Memory is a ViewPort backed by a string. It is safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	markup string
	open   map[string]bool
}

var _ ViewPort = (*Memory)(nil)

func NewMemory(initial string) *Memory {
	return &Memory{markup: initial, open: make(map[string]bool)}
}

func (m *Memory) Render(markup string) {
	m.mu.Lock()
	m.markup = markup
	m.mu.Unlock()
}

func (m *Memory) Clear() {
	m.Render("")
}

func (m *Memory) HTML() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markup
}

func (m *Memory) CurrentComponents() []Component {
	return Detect(m.HTML())
}

// OpenPopup records a popup as shown, as a hover would.
func (m *Memory) OpenPopup(id string) {
	m.mu.Lock()
	m.open[id] = true
	m.mu.Unlock()
}

func (m *Memory) OpenPopups() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.open))
	for id := range m.open {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Memory) ClosePopups() {
	m.mu.Lock()
	clear(m.open)
	m.mu.Unlock()
}

// Detect reports the components relevant to markup. Diffusion always
// applies; popups when a hover link is present; prism when there is code
// to highlight.
func Detect(markup string) []Component {
	components := []Component{Diffusion}
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return components
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		classes := strings.Fields(tokenAttr(tok, "class"))
		switch tok.Data {
		case "a":
			if slices.Contains(classes, "link") && slices.Contains(classes, "popup") && !slices.Contains(components, Popups) {
				components = append(components, Popups)
			}
		case "pre", "code":
			if tok.Data == "code" && !hasLanguageClass(classes) {
				continue
			}
			if !slices.Contains(components, Prism) {
				components = append(components, Prism)
			}
		}
	}
}

func hasLanguageClass(classes []string) bool {
	for _, c := range classes {
		if strings.HasPrefix(c, "language-") {
			return true
		}
	}
	return false
}

func tokenAttr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
