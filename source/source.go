// Package source retrieves the raw post resources: the JSON index of post
// ids and the text file of each post.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// IndexPath is the location of the post index, relative to the site root.
	IndexPath = "posts/index.json"
	postDir   = "posts"
	postExt   = ".txt"
)

// PostPath returns the site-relative location of the post with the given id.
func PostPath(id string) string {
	return postDir + "/" + id + postExt
}

// Source fetches raw post resources.
type Source interface {
	FetchIndex(ctx context.Context) ([]byte, error)
	FetchPost(ctx context.Context, id string) ([]byte, error)
}

// ErrUnavailable is matched by every *UnavailableError.
var ErrUnavailable = errors.New("resource unavailable")

// UnavailableError reports a resource that could not be retrieved. Status
// is the HTTP status when one was received.
type UnavailableError struct {
	Resource string
	Status   int
	Err      error
}

func (e *UnavailableError) Error() string {
	var b strings.Builder
	b.WriteString("resource unavailable: ")
	b.WriteString(e.Resource)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// ValidID reports whether id can name a post file: non-empty and free of
// path separators and parent references.
func ValidID(id string) bool {
	if id == "" || id == "." || strings.Contains(id, "..") {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

func checkID(id string) error {
	if ValidID(id) {
		return nil
	}
	return &UnavailableError{Resource: fmt.Sprintf("post %q", id), Err: errors.New("invalid post id")}
}
