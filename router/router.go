// Package router switches a page's content region between the posts
// listing, a single post and the not-found view, driven by URL fragment
// changes.
package router

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"adventune/folio/events"
	"adventune/folio/post"
	"adventune/folio/view"
)

// PostsContainerID is the id of the element in the page's original markup
// that receives the posts listing.
const PostsContainerID = "posts-container"

type State int

const (
	StateListing State = iota
	StatePost
	StateNotFound
)

func (s State) String() string {
	switch s {
	case StateListing:
		return "listing"
	case StatePost:
		return "post"
	case StateNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// Store is the part of the post repository the router reads from.
type Store interface {
	LoadPost(ctx context.Context, id string) *post.Post
	RenderPostsListing(ctx context.Context, includeHidden bool) string
}

// Router owns a ViewPort. Transitions are serialized; subscribers run while
// a transition is in progress and must not navigate themselves.
type Router struct {
	store Store
	vp    view.ViewPort
	bus   *events.Bus
	pages *Pages

	mu       sync.Mutex
	original string
	state    State
	postID   string
	skipNext bool
}

// New captures the viewport's current markup as the original listing page.
func New(store Store, vp view.ViewPort, bus *events.Bus, pages *Pages) *Router {
	if bus == nil {
		bus = events.NewBus()
	}
	if pages == nil {
		pages = DefaultPages()
	}
	return &Router{
		store:    store,
		vp:       vp,
		bus:      bus,
		pages:    pages,
		original: vp.HTML(),
	}
}

// State returns the current view and, for StatePost, the post id.
func (r *Router) State() (State, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.postID
}

// Start renders the view for the fragment present when the page loads.
func (r *Router) Start(ctx context.Context, fragment string) State {
	return r.Navigate(ctx, fragment)
}

// Back returns to the listing without animating it, as the back link does.
func (r *Router) Back(ctx context.Context) State {
	r.mu.Lock()
	r.skipNext = true
	r.mu.Unlock()
	return r.Navigate(ctx, "")
}

// Navigate handles a fragment change. An empty fragment shows the listing;
// anything else is tried as a post id.
func (r *Router) Navigate(ctx context.Context, fragment string) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := strings.TrimPrefix(fragment, "#")
	r.vp.ClosePopups()

	var opts events.Options
	switch {
	case id == "":
		if r.state == StatePost {
			r.skipNext = true
		}
		opts = events.Options{SkipAnimation: r.skipNext, Source: events.SourceListing}
		r.skipNext = false
		r.vp.Render(r.listingMarkup(ctx))
		r.state, r.postID = StateListing, ""
	default:
		if p := r.store.LoadPost(ctx, id); p != nil {
			r.vp.Render(r.pages.Post(p))
			r.state, r.postID = StatePost, id
			opts = events.Options{Source: events.SourcePost, PostID: id}
		} else {
			r.vp.Render(r.pages.NotFound())
			r.state, r.postID = StateNotFound, ""
			opts = events.Options{Source: events.SourceNotFound, PostID: id}
		}
	}

	log.Debug().Str("fragment", id).Stringer("state", r.state).Bool("skipAnimation", opts.SkipAnimation).Msg("Navigated")
	r.bus.Publish(ctx, events.ContentReady{
		Root:       r.vp,
		Components: r.vp.CurrentComponents(),
		Options:    opts,
	})
	return r.state
}

// listingMarkup is the original page with the posts listing placed in its
// posts container.
func (r *Router) listingMarkup(ctx context.Context) string {
	listing := r.store.RenderPostsListing(ctx, false)
	markup, ok, err := view.ReplaceChildren(r.original, PostsContainerID, listing)
	if err != nil {
		log.Error().Err(err).Msg("Failed to place posts listing")
		return r.original
	}
	if !ok {
		return r.original
	}
	return markup
}
