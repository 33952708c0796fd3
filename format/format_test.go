package format

import (
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"h1", "# Title", `<h1 class="post-h1">Title</h1>`},
		{"h2", "## Sub", `<h2 class="post-h2">Sub</h2>`},
		{"h3", "### Deep", `<h3 class="post-h3">Deep</h3>`},
		{"header needs line start", "not # a header", "not # a header"},
		{"fence with language", "```js\nlet x=1;\n```", `<pre><code class="language-js">let x=1;</code></pre>`},
		{"fence without language", "```\na < b\n```", `<pre><code class="language-plaintext">a &lt; b</code></pre>`},
		{"fence escapes entities", "```html\n<a href=\"x\">'&'</a>\n```", `<pre><code class="language-html">&lt;a href=&quot;x&quot;&gt;&#039;&amp;&#039;&lt;/a&gt;</code></pre>`},
		{"inline code", "use `a<b` here", `use <code class="inline-code">a&lt;b</code> here`},
		{"escaped backtick", "a \\`b` c", "a \\`b` c"},
		{"ordered list", "1. one\n2. two\nb. three", "<ol><li>one</li><li>two</li><li>three</li></ol>"},
		{"unordered list", "- a\n- b", "<ul><li>a</li><li>b</li></ul>"},
		{"separate runs", "- a\n\n- b", "<ul><li>a</li></ul>\n\n<ul><li>b</li></ul>"},
		{"list after text", "Intro:\n- a\n- b\nafter", "Intro:\n<ul><li>a</li><li>b</li></ul>\nafter"},
		{"bold", "**strong** words", "<strong>strong</strong> words"},
		{"italic", "*soft* words", "<em>soft</em> words"},
		{"bold then italic", "***both***", "<em><strong>both</strong></em>"},
		{"html passes through", `<a class="link popup" data-popup-ids="x">hover</a>`, `<a class="link popup" data-popup-ids="x">hover</a>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.in); got != tt.want {
				t.Errorf("Format(%q)\n got: %q\nwant: %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatCodeIsOpaqueToLaterRules(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"header inside fence", "```sh\n# comment\necho hi\n```", `<pre><code class="language-sh"># comment` + "\n" + `echo hi</code></pre>`},
		{"list inside fence", "```\n- not a list\n1. nor this\n```", `<pre><code class="language-plaintext">- not a list` + "\n" + `1. nor this</code></pre>`},
		{"emphasis inside fence", "```py\na*b*c\n```", `<pre><code class="language-py">a*b*c</code></pre>`},
		{"inline code inside fence", "```sh\necho `date`\n```", "<pre><code class=\"language-sh\">echo `date`</code></pre>"},
		{"emphasis inside inline code", "see `**kwargs`", `see <code class="inline-code">**kwargs</code>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.in); got != tt.want {
				t.Errorf("Format(%q)\n got: %q\nwant: %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatBoldSpansListItems(t *testing.T) {
	// Emphasis is applied after lists, so markers split across items pair
	// up across the emitted tags.
	got := Format("- **a\n- b**")
	want := "<ul><li><strong>a</li><li>b</strong></li></ul>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain paragraph", "hello there", `<p class="diffuse-text">hello there</p>`},
		{"two paragraphs", "one\n\ntwo", `<p class="diffuse-text">one</p><p class="diffuse-text">two</p>`},
		{"code block not wrapped", "```js\nlet x=1;\n```", `<pre><code class="language-js">let x=1;</code></pre>`},
		{"code block keeps blank lines", "```\na\n\nb\n```", "<pre><code class=\"language-plaintext\">a\n\nb</code></pre>"},
		{"inline code unmarked", "run `go test` now", `<p>run <code class="inline-code">go test</code> now</p>`},
		{"heading untouched", "## Part", `<h2 class="post-h2">Part</h2>`},
		{"markup text runs marked", "a **b** c", `<p><span class="diffuse-text">a </span><strong><span class="diffuse-text">b</span></strong><span class="diffuse-text"> c</span></p>`},
		{"list", "- x\n- y", `<p><ul><li><span class="diffuse-text">x</span></li><li><span class="diffuse-text">y</span></li></ul></p>`},
		{"extra blank lines dropped", "a\n\n\n\nb", `<p class="diffuse-text">a</p><p class="diffuse-text">b</p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Dialect{}).Render(tt.in); got != tt.want {
				t.Errorf("Render(%q)\n got: %q\nwant: %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecorateFormattedHTML(t *testing.T) {
	in := Format("intro\n\n```go\nx := 1\n```\n\nsee `x`")
	got := Decorate(in)
	want := `<p class="diffuse-text">intro</p>` +
		`<pre><code class="language-go">x := 1</code></pre>` +
		`<p>see <code class="inline-code">x</code></p>`
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestCommonMark(t *testing.T) {
	got := CommonMark{}.Render("# Title\n\n```js\nlet x = 1;\n```\n")
	if !strings.Contains(got, "<h1") {
		t.Errorf("missing heading: %q", got)
	}
	if !strings.Contains(got, `<code class="language-js">`) {
		t.Errorf("missing language class: %q", got)
	}
}

func TestNamed(t *testing.T) {
	for _, name := range []string{"", "dialect", "commonmark", "gfm"} {
		if _, ok := Named(name); !ok {
			t.Errorf("Named(%q) not found", name)
		}
	}
	if _, ok := Named("asciidoc"); ok {
		t.Error("Named(asciidoc) should not exist")
	}
}

func TestGFM(t *testing.T) {
	got := NewGFM().Render("| a | b |\n| - | - |\n| 1 | 2 |\n\n~~gone~~ <span>raw</span>")
	for _, want := range []string{"<table>", "<td>1</td>", "<del>gone</del>", "<span>raw</span>"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}
