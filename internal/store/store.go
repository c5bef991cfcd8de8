package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MaxInValues is the largest value list a membership filter may carry.
const MaxInValues = 30

var (
	ErrNotFound           = errors.New("document not found")
	ErrTooManyValues      = fmt.Errorf("membership filter exceeds %d values", MaxInValues)
	ErrInvalidPath        = errors.New("invalid document path")
	ErrInvalidFilter      = errors.New("invalid query filter")
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// Fields is the field set of a single document.
type Fields map[string]any

// Doc is one document as returned by Get or delivered in a Snapshot.
type Doc struct {
	ID     string
	Path   string
	Fields Fields
}

// Snapshot is the full current result set of a live query. A snapshot with a
// non-nil Err is the last one delivered on its channel.
type Snapshot struct {
	Docs []Doc
	Err  error
}

// Store is the document-oriented datastore the engine runs against.
type Store interface {
	Get(ctx context.Context, path string) (*Doc, error)
	Set(ctx context.Context, path string, fields Fields) error
	// Update merges fields into an existing document. It returns ErrNotFound
	// when the document does not exist.
	Update(ctx context.Context, path string, fields Fields) error
	Delete(ctx context.Context, path string) error
	// Append writes fields to a new document with a generated id under
	// collection and returns that id.
	Append(ctx context.Context, collection string, fields Fields) (string, error)
	// Subscribe opens a live query. The returned channel delivers the current
	// result set immediately and again after every matching change; it is
	// closed once ctx is cancelled.
	Subscribe(ctx context.Context, q Query) (<-chan Snapshot, error)
}

// Join builds a slash-separated document or collection path.
func Join(parts ...string) string {
	return strings.Join(parts, "/")
}

// Split returns the parent collection path and the id of a document path.
func Split(path string) (collection, id string, err error) {
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return path[:i], path[i+1:], nil
}

// Fetch reads a query once by taking the first snapshot of a subscription.
func Fetch(ctx context.Context, s Store, q Query) ([]Doc, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := s.Subscribe(ctx, q)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case snap, ok := <-ch:
		if !ok {
			return nil, ErrSubscriptionClosed
		}
		return snap.Docs, snap.Err
	}
}
