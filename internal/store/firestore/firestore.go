// Package firestore adapts a Cloud Firestore client to store.Store.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gcfirestore "cloud.google.com/go/firestore"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store implements store.Store on top of Firestore
type Store struct {
	client *gcfirestore.Client
}

var _ store.Store = (*Store)(nil)

// New creates a new Firestore-backed store
func New(client *gcfirestore.Client) *Store {
	return &Store{client: client}
}

// Get retrieves a document by path from Firestore
func (s *Store) Get(ctx context.Context, path string) (*store.Doc, error) {
	snap, err := s.client.Doc(path).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%s: %w", path, store.ErrNotFound)
		}
		return nil, err
	}
	return &store.Doc{ID: snap.Ref.ID, Path: path, Fields: snap.Data()}, nil
}

// Set overwrites a document in Firestore
func (s *Store) Set(ctx context.Context, path string, fields store.Fields) error {
	ref := s.client.Doc(path)
	if ref == nil {
		return fmt.Errorf("%w: %q", store.ErrInvalidPath, path)
	}
	_, err := ref.Set(ctx, toNative(fields))
	return err
}

// Update merges fields into an existing Firestore document
func (s *Store) Update(ctx context.Context, path string, fields store.Fields) error {
	ref := s.client.Doc(path)
	if ref == nil {
		return fmt.Errorf("%w: %q", store.ErrInvalidPath, path)
	}

	updates := make([]gcfirestore.Update, 0, len(fields))
	for k, v := range toNative(fields) {
		updates = append(updates, gcfirestore.Update{Path: k, Value: v})
	}

	_, err := ref.Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s: %w", path, store.ErrNotFound)
	}
	return err
}

// Delete deletes a document from Firestore
func (s *Store) Delete(ctx context.Context, path string) error {
	ref := s.client.Doc(path)
	if ref == nil {
		return fmt.Errorf("%w: %q", store.ErrInvalidPath, path)
	}
	_, err := ref.Delete(ctx)
	return err
}

// Append adds a document with a generated id to a Firestore collection
func (s *Store) Append(ctx context.Context, collection string, fields store.Fields) (string, error) {
	col := s.client.Collection(collection)
	if col == nil {
		return "", fmt.Errorf("%w: %q", store.ErrInvalidPath, collection)
	}
	ref, _, err := col.Add(ctx, toNative(fields))
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

// Subscribe opens a Firestore snapshot listener for q
func (s *Store) Subscribe(ctx context.Context, q store.Query) (<-chan store.Snapshot, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	col := s.client.Collection(q.Collection)
	if col == nil {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidPath, q.Collection)
	}

	fq := col.Query
	for _, f := range q.Filters {
		value := f.Value
		if f.Op == store.OpIn {
			value, _ = store.InValues(f.Value)
		}
		fq = fq.Where(f.Field, string(f.Op), value)
	}
	for _, o := range q.Orders {
		dir := gcfirestore.Asc
		if o.Dir == store.Desc {
			dir = gcfirestore.Desc
		}
		fq = fq.OrderBy(o.Field, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	out := make(chan store.Snapshot)

	go func() {
		defer close(out)

		it := fq.Snapshots(ctx)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					return
				}
				slog.Warn("firestore snapshot listener failed", "collection", q.Collection, "error", err)
				select {
				case out <- store.Snapshot{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			snaps, err := qs.Documents.GetAll()
			if err != nil {
				select {
				case out <- store.Snapshot{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			docs := make([]store.Doc, 0, len(snaps))
			for _, snap := range snaps {
				docs = append(docs, store.Doc{
					ID:     snap.Ref.ID,
					Path:   store.Join(q.Collection, snap.Ref.ID),
					Fields: snap.Data(),
				})
			}

			select {
			case out <- store.Snapshot{Docs: docs}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// toNative maps store transforms onto Firestore sentinel values.
func toNative(fields store.Fields) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch t := v.(type) {
		case store.Increment:
			out[k] = gcfirestore.Increment(int64(t))
		case store.ArrayUnion:
			out[k] = gcfirestore.ArrayUnion([]any(t)...)
		case store.ArrayRemove:
			out[k] = gcfirestore.ArrayRemove([]any(t)...)
		case store.TimestampTransform:
			out[k] = gcfirestore.ServerTimestamp
		default:
			out[k] = v
		}
	}
	return out
}
