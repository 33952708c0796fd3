// Package repository loads posts through a source.Source and keeps them for
// the lifetime of the Repository. Nothing is evicted or invalidated; a fresh
// Repository is the only way to see changed content.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"adventune/folio/post"
	"adventune/folio/source"
)

// DefaultFallbackID is the post shown on its own when the index cannot be
// loaded.
const DefaultFallbackID = "portable-extensible-machine"

// ErrIndexUnavailable is returned when the post index cannot be fetched or
// decoded.
var ErrIndexUnavailable = errors.New("post index unavailable")

// Repository is safe for concurrent use. Concurrent requests for the index,
// or for the same post, share a single fetch.
type Repository struct {
	src         source.Source
	parse       func(raw string) (*post.Post, error)
	fallbackID  string
	concurrency int

	group singleflight.Group

	mu          sync.Mutex
	index       []string
	indexLoaded bool
	posts       map[string]*post.Post
	visible     []*post.Post
	visibleOK   bool
	listing     string
	listingOK   bool
}

type Option func(*Repository)

// WithParser replaces post.Parse as the parser for fetched posts.
func WithParser(parse func(raw string) (*post.Post, error)) Option {
	return func(r *Repository) { r.parse = parse }
}

// WithFallbackID sets the post loaded when the index is unavailable.
func WithFallbackID(id string) Option {
	return func(r *Repository) { r.fallbackID = id }
}

// WithConcurrency bounds the number of posts fetched at once by LoadAllPosts.
// Values below one mean no bound.
func WithConcurrency(n int) Option {
	return func(r *Repository) { r.concurrency = n }
}

func New(src source.Source, opts ...Option) *Repository {
	r := &Repository{
		src:         src,
		parse:       post.Parse,
		fallbackID:  DefaultFallbackID,
		concurrency: 8,
		posts:       make(map[string]*post.Post),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchIndex returns the ordered post ids. A successful fetch is kept for
// the lifetime of the Repository; a failed one is not retried
// automatically, but the next call fetches again.
//
// Shared fetches are not cancelled with ctx, since other callers may be
// waiting on the same result.
func (r *Repository) FetchIndex(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	if r.indexLoaded {
		ids := slices.Clone(r.index)
		r.mu.Unlock()
		return ids, nil
	}
	r.mu.Unlock()

	shared := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do("index", func() (any, error) {
		raw, err := r.src.FetchIndex(shared)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
		}
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			return nil, fmt.Errorf("%w: decoding index: %w", ErrIndexUnavailable, err)
		}
		if ids == nil {
			ids = []string{}
		}
		log.Debug().Strs("ids", ids).Msg("Loaded post index")

		r.mu.Lock()
		r.index = ids
		r.indexLoaded = true
		r.mu.Unlock()
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]string)), nil
}

// Post returns the post with the given id, fetching and parsing it on first
// use. Like FetchIndex, the fetch outlives a cancelled ctx.
func (r *Repository) Post(ctx context.Context, id string) (*post.Post, error) {
	if p, ok := r.cached(id); ok {
		return p, nil
	}
	shared := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do("post:"+id, func() (any, error) {
		if p, ok := r.cached(id); ok {
			return p, nil
		}
		raw, err := r.src.FetchPost(shared, id)
		if err != nil {
			return nil, err
		}
		p, err := r.parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parsing post %q: %w", id, err)
		}
		p.ID = id
		log.Debug().Str("id", id).Bool("hidden", p.Metadata.Hidden()).Msg("Loaded post")

		r.mu.Lock()
		r.posts[id] = p
		r.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*post.Post), nil
}

// LoadPost is Post with failures logged and reported as nil, which callers
// treat as "not found".
func (r *Repository) LoadPost(ctx context.Context, id string) *post.Post {
	p, err := r.Post(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to load post")
		return nil
	}
	return p
}

func (r *Repository) cached(id string) (*post.Post, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	return p, ok
}

// LoadAllPosts returns the indexed posts newest first, leaving out hidden
// ones unless includeHidden is set. Posts that fail to load are dropped.
// When the index is unavailable the fallback post is returned on its own.
func (r *Repository) LoadAllPosts(ctx context.Context, includeHidden bool) []*post.Post {
	posts, _ := r.loadAll(ctx, includeHidden)
	return posts
}

func (r *Repository) loadAll(ctx context.Context, includeHidden bool) (posts []*post.Post, degraded bool) {
	if !includeHidden {
		r.mu.Lock()
		if r.visibleOK {
			posts = slices.Clone(r.visible)
			r.mu.Unlock()
			return posts, false
		}
		r.mu.Unlock()
	}

	ids, err := r.FetchIndex(ctx)
	if err != nil {
		log.Error().Err(err).Str("fallback", r.fallbackID).Msg("Falling back to a single post")
		if p := r.LoadPost(ctx, r.fallbackID); p != nil && (includeHidden || !p.Metadata.Hidden()) {
			return []*post.Post{p}, true
		}
		return []*post.Post{}, true
	}

	ids = uniq(ids)
	loaded := make([]*post.Post, len(ids))
	var interrupted atomic.Bool
	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, id := range ids {
		g.Go(func() error {
			p, err := r.Post(ctx, id)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					interrupted.Store(true)
				}
				log.Error().Err(err).Str("id", id).Msg("Failed to load post")
			}
			loaded[i] = p
			return nil
		})
	}
	_ = g.Wait()

	posts = make([]*post.Post, 0, len(loaded))
	for _, p := range loaded {
		if p == nil {
			continue
		}
		if p.Metadata.Hidden() && !includeHidden {
			log.Debug().Str("id", p.ID).Msg("Skipping hidden post")
			continue
		}
		posts = append(posts, p)
	}
	SortNewestFirst(posts)

	// An interrupted load says nothing about the content; keep it out of
	// the shared caches.
	if interrupted.Load() {
		return posts, true
	}
	if !includeHidden {
		r.mu.Lock()
		if !r.visibleOK {
			r.visible = slices.Clone(posts)
			r.visibleOK = true
		}
		r.mu.Unlock()
	}
	return posts, false
}

// RenderPostsListing returns the listing markup. The visible listing is
// built once and kept; the hidden-inclusive one is rebuilt on every call.
func (r *Repository) RenderPostsListing(ctx context.Context, includeHidden bool) string {
	if !includeHidden {
		r.mu.Lock()
		if r.listingOK {
			html := r.listing
			r.mu.Unlock()
			return html
		}
		r.mu.Unlock()
	}

	posts, degraded := r.loadAll(ctx, includeHidden)
	html := RenderListing(posts)

	if !includeHidden && !degraded {
		r.mu.Lock()
		if !r.listingOK {
			r.listing = html
			r.listingOK = true
		}
		html = r.listing
		r.mu.Unlock()
	}
	return html
}

// SortNewestFirst orders posts by descending date. Posts without a usable
// date go last; ties keep their relative order.
func SortNewestFirst(posts []*post.Post) {
	slices.SortStableFunc(posts, func(a, b *post.Post) int {
		ta, tb := a.Time(), b.Time()
		switch {
		case ta.IsZero() && tb.IsZero():
			return 0
		case ta.IsZero():
			return 1
		case tb.IsZero():
			return -1
		}
		return tb.Compare(ta)
	})
}

func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
