// Package events carries content-ready notifications from the router to
// the collaborators that post-process freshly rendered markup.
package events

import (
	"context"
	"slices"
	"sync"

	"adventune/folio/view"
)

// Source says which view produced the markup.
type Source string

const (
	SourceListing  Source = "listing"
	SourcePost     Source = "post"
	SourceNotFound Source = "not-found"
)

type Options struct {
	SkipAnimation bool   `json:"skipAnimation"`
	Source        Source `json:"source"`
	PostID        string `json:"postId,omitempty"`
}

// ContentReady is published after new markup has been placed in Root.
type ContentReady struct {
	Root       view.ViewPort    `json:"-"`
	Components []view.Component `json:"components"`
	Options    Options          `json:"options"`
}

// Has reports whether the event lists component.
func (e ContentReady) Has(c view.Component) bool {
	return slices.Contains(e.Components, c)
}

type Subscriber interface {
	ContentReady(ctx context.Context, ev ContentReady)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, ev ContentReady)

func (f SubscriberFunc) ContentReady(ctx context.Context, ev ContentReady) { f(ctx, ev) }

// Bus delivers events synchronously, to subscribers in the order they
// subscribed.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs []subscription
}

type subscription struct {
	id  int
	sub Subscriber
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers s and returns a function that removes it.
func (b *Bus) Subscribe(s Subscriber) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs = append(b.subs, subscription{id: id, sub: s})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
	}
}

func (b *Bus) Publish(ctx context.Context, ev ContentReady) {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.sub.ContentReady(ctx, ev)
	}
}
