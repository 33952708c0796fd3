// Package watch reports changes to the post files of a content directory.
package watch

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/radovskyb/watcher"
	"github.com/rs/zerolog/log"
)

const DefaultInterval = 100 * time.Millisecond

// Post bodies and the index.
var postFiles = regexp.MustCompile(`^.*\.(txt|json)$`)

// Watcher polls a content directory and calls OnChange after each change
// to a post or the index.
type Watcher struct {
	w        *watcher.Watcher
	onChange func(path string)
}

// New starts watching contentPath recursively. Nothing is reported until
// Run is called.
func New(contentPath string, onChange func(path string)) (*Watcher, error) {
	log.Debug().Str("path", contentPath).Msg("Watching content directory for changes")

	w := watcher.New()
	// One event per polling cycle is enough to trigger a reload.
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write, watcher.Create, watcher.Remove, watcher.Rename, watcher.Move)
	w.AddFilterHook(watcher.RegexFilterHook(postFiles, false))

	if err := w.AddRecursive(contentPath); err != nil {
		return nil, fmt.Errorf("watching %s: %w", contentPath, err)
	}
	return &Watcher{w: w, onChange: onChange}, nil
}

// Run polls every interval until ctx is done. It returns once the poller
// has stopped.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) error {
	errc := make(chan error, 1)
	go func() {
		if err := w.w.Start(interval); err != nil {
			errc <- err
		}
	}()

	started := make(chan struct{})
	go func() {
		w.w.Wait()
		close(started)
	}()
	select {
	case <-started:
	case err := <-errc:
		return fmt.Errorf("starting watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return w.stop()
		case err := <-errc:
			return fmt.Errorf("starting watcher: %w", err)
		case event := <-w.w.Event:
			log.Debug().Str("path", event.Path).Str("op", event.Op.String()).Msg("Content changed")
			w.onChange(event.Path)
		case err := <-w.w.Error:
			log.Error().Err(err).Msg("Watcher error")
		case <-w.w.Closed:
			return nil
		}
	}
}

// stop closes the poller, discarding whatever it still delivers until it
// has shut down.
func (w *Watcher) stop() error {
	go w.w.Close()
	for {
		select {
		case <-w.w.Event:
		case <-w.w.Error:
		case <-w.w.Closed:
			return nil
		}
	}
}
