package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"adventune/folio/post"
	"adventune/folio/source"
)

type fakeSource struct {
	mu         sync.Mutex
	index      string
	indexErr   error
	posts      map[string]string
	indexCalls int
	postCalls  map[string]int
	gate       chan struct{}
	// failOnce errors are returned by the next fetch of that id only.
	failOnce map[string]error
}

func newFakeSource(index string, posts map[string]string) *fakeSource {
	return &fakeSource{index: index, posts: posts, postCalls: map[string]int{}}
}

func (f *fakeSource) FetchIndex(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	f.indexCalls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.indexErr != nil {
		return nil, f.indexErr
	}
	return []byte(f.index), nil
}

func (f *fakeSource) FetchPost(ctx context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	f.postCalls[id]++
	failErr := f.failOnce[id]
	delete(f.failOnce, id)
	f.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}
	raw, ok := f.posts[id]
	if !ok {
		return nil, &source.UnavailableError{Resource: id, Status: 404}
	}
	return []byte(raw), nil
}

func (f *fakeSource) calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.postCalls[id]
}

func postText(title, date string, extra ...string) string {
	return fmt.Sprintf("---\ntitle: %s\ndate: %s\n%s\n---\nBody of %s", title, date, strings.Join(extra, "\n"), title)
}

func ids(t *testing.T, r *Repository, includeHidden bool) []string {
	t.Helper()
	var out []string
	for _, p := range r.LoadAllPosts(context.Background(), includeHidden) {
		out = append(out, p.ID)
	}
	return out
}

func TestLoadPostCaches(t *testing.T) {
	src := newFakeSource(`["a"]`, map[string]string{"a": postText("A", "2024-01-01")})
	r := New(src)
	ctx := context.Background()

	first := r.LoadPost(ctx, "a")
	second := r.LoadPost(ctx, "a")
	if first == nil || second == nil {
		t.Fatal("expected post")
	}
	if first != second {
		t.Error("expected the cached post on the second call")
	}
	if n := src.calls("a"); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

func TestLoadPostUsesRequestedID(t *testing.T) {
	src := newFakeSource(`[]`, map[string]string{"file-name": "---\ntitle: Different Title\n---\n"})
	p := New(src).LoadPost(context.Background(), "file-name")
	if p == nil {
		t.Fatal("expected post")
	}
	if p.ID != "file-name" {
		t.Errorf("id: got %q", p.ID)
	}
	if got := p.Metadata.ID(); got != "different-title" {
		t.Errorf("metadata id: got %q", got)
	}
}

func TestLoadPostFailuresReturnNil(t *testing.T) {
	src := newFakeSource(`[]`, map[string]string{
		"unclosed": "---\ntitle: never closed\n",
	})
	r := New(src)
	ctx := context.Background()

	if p := r.LoadPost(ctx, "unclosed"); p != nil {
		t.Errorf("expected nil for malformed post, got %+v", p)
	}
	if p := r.LoadPost(ctx, "missing"); p != nil {
		t.Errorf("expected nil for missing post, got %+v", p)
	}

	_, err := r.Post(ctx, "missing")
	if !errors.Is(err, source.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestLoadAllPostsSortsNewestFirst(t *testing.T) {
	src := newFakeSource(`["old", "mid", "new"]`, map[string]string{
		"mid": postText("Mid", "2024-01-01"),
		"old": postText("Old", "2023-06-15"),
		"new": postText("New", "2024-06-01"),
	})
	got := ids(t, New(src), false)
	want := []string{"new", "mid", "old"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLoadAllPostsStableOnTiesAndUndatedLast(t *testing.T) {
	src := newFakeSource(`["undated", "b", "a", "c"]`, map[string]string{
		"undated": postText("Undated", "someday"),
		"b":       postText("B", "2024-01-01"),
		"a":       postText("A", "2024-01-01"),
		"c":       postText("C", "2025-01-01"),
	})
	got := ids(t, New(src), false)
	want := []string{"c", "b", "a", "undated"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLoadAllPostsHidden(t *testing.T) {
	src := newFakeSource(`["shown", "secret"]`, map[string]string{
		"shown":  postText("Shown", "2024-01-01"),
		"secret": postText("Secret", "2024-02-01", "hidden: true"),
	})
	r := New(src)

	visible := ids(t, r, false)
	if strings.Join(visible, ",") != "shown" {
		t.Errorf("visible: got %v", visible)
	}
	all := ids(t, r, true)
	if strings.Join(all, ",") != "secret,shown" {
		t.Errorf("all: got %v", all)
	}
	if visible := ids(t, r, false); strings.Join(visible, ",") != "shown" {
		t.Errorf("visible after hidden-inclusive load: got %v", visible)
	}
}

func TestLoadAllPostsDropsFailures(t *testing.T) {
	src := newFakeSource(`["ok", "missing", "broken", "ok"]`, map[string]string{
		"ok":     postText("OK", "2024-01-01"),
		"broken": "no front matter",
	})
	got := ids(t, New(src), false)
	if strings.Join(got, ",") != "ok" {
		t.Errorf("got %v", got)
	}
}

func TestLoadAllPostsFallback(t *testing.T) {
	src := newFakeSource("", map[string]string{
		DefaultFallbackID: postText("Portable Extensible Machine", "2020-01-01"),
	})
	src.indexErr = &source.UnavailableError{Resource: "index", Status: 500}
	r := New(src)

	got := ids(t, r, false)
	if strings.Join(got, ",") != DefaultFallbackID {
		t.Errorf("got %v", got)
	}

	// Degraded results are not kept: the next call asks for the index again.
	ids(t, r, false)
	src.mu.Lock()
	calls := src.indexCalls
	src.mu.Unlock()
	if calls != 2 {
		t.Errorf("expected 2 index fetches, got %d", calls)
	}
}

func TestLoadAllPostsFallbackHidden(t *testing.T) {
	src := newFakeSource("", map[string]string{
		"fb": postText("Fallback", "2020-01-01", "hidden: true"),
	})
	src.indexErr = errors.New("offline")
	r := New(src, WithFallbackID("fb"))

	if got := ids(t, r, false); len(got) != 0 {
		t.Errorf("expected no visible posts, got %v", got)
	}
	if got := ids(t, r, true); strings.Join(got, ",") != "fb" {
		t.Errorf("expected fallback with hidden, got %v", got)
	}
}

func TestFetchIndexErrors(t *testing.T) {
	tests := []struct {
		name  string
		index string
		err   error
	}{
		{"fetch failure", "", errors.New("boom")},
		{"not json", "<html>", nil},
		{"not a string array", `{"a": 1}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource(tt.index, nil)
			src.indexErr = tt.err
			_, err := New(src).FetchIndex(context.Background())
			if !errors.Is(err, ErrIndexUnavailable) {
				t.Errorf("expected ErrIndexUnavailable, got %v", err)
			}
		})
	}
}

func TestFetchIndexSharedAcrossConcurrentCallers(t *testing.T) {
	src := newFakeSource(`["a"]`, nil)
	src.gate = make(chan struct{})
	r := New(src)

	const callers = 8
	var wg sync.WaitGroup
	started := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			if _, err := r.FetchIndex(context.Background()); err != nil {
				t.Errorf("FetchIndex: %v", err)
			}
		}()
	}
	for i := 0; i < callers; i++ {
		<-started
	}
	close(src.gate)
	wg.Wait()

	// Later calls are served from memory.
	if _, err := r.FetchIndex(context.Background()); err != nil {
		t.Fatalf("FetchIndex: %v", err)
	}
	src.mu.Lock()
	calls := src.indexCalls
	src.mu.Unlock()
	if calls < 1 || calls > callers {
		t.Errorf("unexpected index fetch count %d", calls)
	}
	before := calls
	for i := 0; i < 3; i++ {
		r.FetchIndex(context.Background())
	}
	src.mu.Lock()
	after := src.indexCalls
	src.mu.Unlock()
	if after != before {
		t.Errorf("memoized index refetched: %d -> %d", before, after)
	}
}

func TestRenderPostsListing(t *testing.T) {
	src := newFakeSource(`["a", "b", "h"]`, map[string]string{
		"a": postText("Alpha", "2024-01-01"),
		"b": postText("Beta", "2024-03-01", "link: https://example.com"),
		"h": postText("Hidden", "2024-05-01", "hidden: true"),
	})
	r := New(src)
	ctx := context.Background()

	html := r.RenderPostsListing(ctx, false)
	for _, want := range []string{
		`<div class="posts-list-container">`,
		`<a href="#a" class="post-card-link"`,
		`<div class="post-card post-card-with-link">`,
		`<h4 class="post-card-title post-card-title-link diffuse-text">Beta</h4>`,
		`<time class="post-card-date diffuse-text">January 2024</time>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("listing missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "Hidden") {
		t.Error("visible listing contains hidden post")
	}
	if strings.Index(html, "Beta") > strings.Index(html, "Alpha") {
		t.Error("expected Beta (newer) before Alpha")
	}

	if again := r.RenderPostsListing(ctx, false); again != html {
		t.Error("expected memoized listing")
	}
	if all := r.RenderPostsListing(ctx, true); !strings.Contains(all, "Hidden") {
		t.Error("hidden-inclusive listing is missing the hidden post")
	}
}

func TestWithParser(t *testing.T) {
	src := newFakeSource(`["t"]`, map[string]string{
		"t": "+++\ntitle = \"From TOML\"\nimages = [\"a\", \"b\"]\n+++\nBody",
	})
	r := New(src, WithParser(post.ParseStructured))
	p := r.LoadPost(context.Background(), "t")
	if p == nil {
		t.Fatal("expected post")
	}
	if p.Metadata.Title() != "From TOML" || len(p.Metadata.Images()) != 2 {
		t.Errorf("unexpected metadata %+v", p.Metadata)
	}
}

func TestCancelledCallerDoesNotEmptyListing(t *testing.T) {
	fsys := fstest.MapFS{
		"posts/index.json": {Data: []byte(`["a","b"]`)},
		"posts/a.txt":      {Data: []byte(postText("A", "2024-01-01"))},
		"posts/b.txt":      {Data: []byte(postText("B", "2024-02-01"))},
	}
	r := New(&source.DirSource{FS: fsys})
	bg := context.Background()
	if _, err := r.FetchIndex(bg); err != nil {
		t.Fatalf("FetchIndex: %v", err)
	}

	cancelled, cancel := context.WithCancel(bg)
	cancel()
	r.RenderPostsListing(cancelled, false)

	if got := ids(t, r, false); len(got) != 2 {
		t.Fatalf("posts after cancelled request: got %v, want 2", got)
	}
	if html := r.RenderPostsListing(bg, false); !strings.Contains(html, "post-card") {
		t.Errorf("listing lost its cards: %q", html)
	}
}

func TestInterruptedLoadIsNotMemoized(t *testing.T) {
	src := newFakeSource(`["a","b"]`, map[string]string{
		"a": postText("A", "2024-01-01"),
		"b": postText("B", "2024-02-01"),
	})
	src.failOnce = map[string]error{"b": fmt.Errorf("fetching b: %w", context.DeadlineExceeded)}
	r := New(src)
	ctx := context.Background()

	first := r.RenderPostsListing(ctx, false)
	if strings.Contains(first, `data-post-id="b"`) {
		t.Fatalf("expected b to be missing from interrupted listing: %q", first)
	}
	if got := ids(t, r, false); len(got) != 2 || got[0] != "b" {
		t.Errorf("ids after retry: got %v, want [b a]", got)
	}
	if html := r.RenderPostsListing(ctx, false); !strings.Contains(html, `data-post-id="b"`) {
		t.Errorf("listing still missing b: %q", html)
	}
}
