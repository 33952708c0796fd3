package format

import (
	"regexp"
	"strings"
)

// Elements carrying this class are animated by the diffusion collaborator.
const DiffuseClass = "diffuse-text"

var tagRe = regexp.MustCompile(`<[^>]+>`)

// markers tell decorate how code shows up in the text it is given: as
// rendered HTML or as the document's placeholders.
type markers struct {
	block  string
	inline string
}

var (
	htmlMarkers  = markers{block: "<pre>", inline: `<code class="inline-code`}
	stashMarkers = markers{block: "\x00B", inline: "\x00I"}
)

// Decorate splits formatted HTML into blank-line separated paragraphs and
// marks prose for animation. Code blocks and headings are left as they are,
// paragraphs with inline code are wrapped without marking, and paragraphs
// with other markup get only their text runs marked.
func Decorate(formatted string) string {
	return decorate(formatted, htmlMarkers)
}

func decorate(text string, m markers) string {
	var b strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		b.WriteString(decorateParagraph(para, m))
	}
	return b.String()
}

func decorateParagraph(para string, m markers) string {
	if strings.TrimSpace(para) == "" {
		return ""
	}
	if strings.Contains(para, m.block) || strings.Contains(para, m.inline) {
		if strings.HasPrefix(strings.TrimSpace(para), m.block) {
			return para
		}
		return "<p>" + para + "</p>"
	}
	if strings.Contains(para, "<h1") || strings.Contains(para, "<h2") || strings.Contains(para, "<h3") {
		return para
	}

	locs := tagRe.FindAllStringIndex(para, -1)
	if len(locs) == 0 {
		return `<p class="` + DiffuseClass + `">` + para + `</p>`
	}

	var b strings.Builder
	b.WriteString("<p>")
	prev := 0
	for _, loc := range locs {
		writeTextRun(&b, para[prev:loc[0]])
		b.WriteString(para[loc[0]:loc[1]])
		prev = loc[1]
	}
	writeTextRun(&b, para[prev:])
	b.WriteString("</p>")
	return b.String()
}

func writeTextRun(b *strings.Builder, s string) {
	if strings.TrimSpace(s) == "" {
		b.WriteString(s)
		return
	}
	b.WriteString(`<span class="` + DiffuseClass + `">` + s + `</span>`)
}
