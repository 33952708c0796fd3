// Package format turns post bodies into HTML.
//
// The native dialect is deliberately small: #/##/### headers, fenced and
// inline code, ordered and unordered lists, **bold** and *italic*. Input
// HTML passes through untouched.
package format

import (
	"regexp"
	"strconv"
	"strings"
)

// Formatter converts a post body into HTML.
type Formatter interface {
	// Format returns the body as HTML.
	Format(body string) string
	// Render returns the body as HTML with prose paragraphs marked for the
	// text diffusion animation.
	Render(body string) string
}

// Dialect is the native post markup.
type Dialect struct{}

var _ Formatter = Dialect{}

// Format converts body using the native dialect.
func Format(body string) string {
	return Dialect{}.Format(body)
}

func (Dialect) Format(body string) string {
	d := newDocument(body)
	return d.restore(d.text)
}

func (Dialect) Render(body string) string {
	d := newDocument(body)
	return d.restore(decorate(d.text, stashMarkers))
}

var (
	fenceRe  = regexp.MustCompile("(?s)```(\\w+)?\\s*(.*?)```")
	h1Re     = regexp.MustCompile(`(?m)^# (.*)$`)
	h2Re     = regexp.MustCompile(`(?m)^## (.*)$`)
	h3Re     = regexp.MustCompile(`(?m)^### (.*)$`)
	boldRe   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe = regexp.MustCompile(`\*([^*]+)\*`)
	stashRe  = regexp.MustCompile("\x00[BI](\\d+)\x00")

	orderedMarkerRe   = regexp.MustCompile(`^(\d+|[a-zA-Z])\. `)
	unorderedMarkerRe = regexp.MustCompile(`^- `)
)

var entityReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// document holds a body mid-conversion. Code is rendered first and parked
// behind placeholders so that no later rule can rewrite it.
type document struct {
	text  string
	stash []string
}

func newDocument(body string) *document {
	d := &document{}
	text := fenceRe.ReplaceAllStringFunc(body, func(m string) string {
		sub := fenceRe.FindStringSubmatch(m)
		lang := sub[1]
		if lang == "" {
			lang = "plaintext"
		}
		code := strings.TrimSpace(entityReplacer.Replace(sub[2]))
		return d.park('B', `<pre><code class="language-`+lang+`">`+code+`</code></pre>`)
	})
	text = d.inlineCode(text)

	text = h1Re.ReplaceAllString(text, `<h1 class="post-h1">$1</h1>`)
	text = h2Re.ReplaceAllString(text, `<h2 class="post-h2">$1</h2>`)
	text = h3Re.ReplaceAllString(text, `<h3 class="post-h3">$1</h3>`)

	text = replaceRuns(text, orderedMarkerRe, "ol")
	text = replaceRuns(text, unorderedMarkerRe, "ul")

	// Emphasis runs over the whole text and may span tags emitted above,
	// e.g. a ** opened in one list item and closed in the next.
	text = boldRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = italicRe.ReplaceAllString(text, "<em>$1</em>")

	d.text = text
	return d
}

func (d *document) park(kind byte, html string) string {
	d.stash = append(d.stash, html)
	return "\x00" + string(kind) + strconv.Itoa(len(d.stash)-1) + "\x00"
}

func (d *document) restore(text string) string {
	return stashRe.ReplaceAllStringFunc(text, func(m string) string {
		i, err := strconv.Atoi(m[2 : len(m)-1])
		if err != nil || i >= len(d.stash) {
			return m
		}
		return d.stash[i]
	})
}

// inlineCode replaces `spans` whose opening backtick is not escaped with a
// backslash.
func (d *document) inlineCode(text string) string {
	var b strings.Builder
	for i := 0; i < len(text); {
		if text[i] == '`' && (i == 0 || text[i-1] != '\\') {
			if end := strings.IndexByte(text[i+1:], '`'); end > 0 {
				code := entityReplacer.Replace(text[i+1 : i+1+end])
				b.WriteString(d.park('I', `<code class="inline-code">`+code+`</code>`))
				i += end + 2
				continue
			}
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}

// replaceRuns folds each run of consecutive lines starting with marker into
// a single list element, markers stripped.
func replaceRuns(text string, marker *regexp.Regexp, tag string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		if !marker.MatchString(lines[i]) {
			out = append(out, lines[i])
			i++
			continue
		}
		var b strings.Builder
		b.WriteString("<" + tag + ">")
		for ; i < len(lines) && marker.MatchString(lines[i]); i++ {
			item := marker.ReplaceAllString(lines[i], "")
			b.WriteString("<li>" + strings.TrimSpace(item) + "</li>")
		}
		b.WriteString("</" + tag + ">")
		out = append(out, b.String())
	}
	return strings.Join(out, "\n")
}
