package highlight

import (
	"context"
	"strings"
	"testing"

	"adventune/folio/events"
	"adventune/folio/view"
)

func TestHighlight(t *testing.T) {
	h := New("")
	markup := `<p>x</p><pre><code class="language-go">func main() {}</code></pre><code class="inline-code">a</code>`
	out, err := h.Highlight(markup)
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	for _, want := range []string{
		`<pre class="chroma">`,
		`data-highlighted="true"`,
		`<span class="kd">func</span>`,
		`<code class="inline-code">a</code>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}

	again, err := h.Highlight(out)
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if again != out {
		t.Errorf("block highlighted twice:\n%s", again)
	}
}

func TestHighlightWithoutCode(t *testing.T) {
	markup := `<p class="diffuse-text">nothing here</p>`
	out, err := New("").Highlight(markup)
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if out != markup {
		t.Errorf("markup changed: %s", out)
	}
}

func TestUnknownLanguageKeepsText(t *testing.T) {
	out, err := New("").Highlight(`<pre><code class="language-nosuchlang">a &lt; b</code></pre>`)
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if !strings.Contains(out, "a &lt; b") {
		t.Errorf("text lost: %s", out)
	}
}

func TestContentReady(t *testing.T) {
	vp := view.NewMemory(`<pre><code class="language-js">let a = 1;</code></pre>`)
	h := New("monokai")
	h.ContentReady(context.Background(), events.ContentReady{Root: vp, Components: []view.Component{view.Diffusion}})
	if strings.Contains(vp.HTML(), "data-highlighted") {
		t.Error("highlighted although prism was not requested")
	}
	h.ContentReady(context.Background(), events.ContentReady{Root: vp, Components: vp.CurrentComponents()})
	if !strings.Contains(vp.HTML(), "data-highlighted") {
		t.Errorf("not highlighted: %s", vp.HTML())
	}
}

func TestWriteCSS(t *testing.T) {
	var b strings.Builder
	if err := New("").WriteCSS(&b); err != nil {
		t.Fatalf("WriteCSS: %v", err)
	}
	if !strings.Contains(b.String(), ".chroma") {
		t.Errorf("stylesheet missing chroma rules: %s", b.String())
	}
}
