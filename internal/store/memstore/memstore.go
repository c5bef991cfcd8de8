// Package memstore is an in-process Store with live queries. It backs local
// development and every engine test.
package memstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/socialsync/internal/store"
	"github.com/google/uuid"
)

// FaultFunc lets tests fail individual operations. op is one of "get", "set",
// "update", "delete" or "append"; path is the document path (the collection
// path for append).
type FaultFunc func(op, path string) error

type Option func(*Store)

// WithClock replaces the clock that resolves store.ServerTimestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the generator of Append ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

type Store struct {
	mu    sync.RWMutex
	docs  map[string]store.Fields
	subs  map[*subscription]struct{}
	now   func() time.Time
	newID func() string
	fault FaultFunc
}

type subscription struct {
	query store.Query
	dirty chan struct{}
}

var _ store.Store = (*Store)(nil)

func New(opts ...Option) *Store {
	s := &Store{
		docs:  map[string]store.Fields{},
		subs:  map[*subscription]struct{}{},
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InjectFault installs fn; a nil fn clears it.
func (s *Store) InjectFault(fn FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

func (s *Store) Get(_ context.Context, path string) (*store.Doc, error) {
	if err := s.checkFault("get", path); err != nil {
		return nil, err
	}
	_, id, err := store.Split(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.docs[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, store.ErrNotFound)
	}
	return &store.Doc{ID: id, Path: path, Fields: store.CopyFields(fields)}, nil
}

func (s *Store) Set(_ context.Context, path string, fields store.Fields) error {
	if err := s.checkFault("set", path); err != nil {
		return err
	}
	return s.set(path, fields)
}

func (s *Store) set(path string, fields store.Fields) error {
	if _, _, err := store.Split(path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[path] = s.apply(store.Fields{}, fields)
	s.notify(path)
	return nil
}

func (s *Store) Update(_ context.Context, path string, fields store.Fields) error {
	if err := s.checkFault("update", path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.docs[path]
	if !ok {
		return fmt.Errorf("%s: %w", path, store.ErrNotFound)
	}
	s.docs[path] = s.apply(current, fields)
	s.notify(path)
	return nil
}

func (s *Store) Delete(_ context.Context, path string) error {
	if err := s.checkFault("delete", path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[path]; !ok {
		return nil
	}
	delete(s.docs, path)
	s.notify(path)
	return nil
}

func (s *Store) Append(_ context.Context, collection string, fields store.Fields) (string, error) {
	if err := s.checkFault("append", collection); err != nil {
		return "", err
	}
	id := s.newID()
	if err := s.set(store.Join(collection, id), fields); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Subscribe(ctx context.Context, q store.Query) (<-chan store.Snapshot, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	sub := &subscription{query: q, dirty: make(chan struct{}, 1)}
	sub.dirty <- struct{}{}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	out := make(chan store.Snapshot)

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.subs, sub)
			s.mu.Unlock()
			close(out)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.dirty:
			}

			snap := store.Snapshot{Docs: s.run(q)}

			select {
			case <-ctx.Done():
				return
			case out <- snap:
			}
		}
	}()

	return out, nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *Store) checkFault(op, path string) error {
	s.mu.RLock()
	fault := s.fault
	s.mu.RUnlock()

	if fault == nil {
		return nil
	}
	return fault(op, path)
}

// notify marks every subscription on the changed document's collection dirty.
// Must be called with s.mu held.
func (s *Store) notify(path string) {
	collection, _, err := store.Split(path)
	if err != nil {
		return
	}
	for sub := range s.subs {
		if sub.query.Collection != collection {
			continue
		}
		select {
		case sub.dirty <- struct{}{}:
		default:
		}
	}
}

// apply resolves field transforms against current and returns the merged
// field set. Must be called with s.mu held.
func (s *Store) apply(current store.Fields, updates store.Fields) store.Fields {
	next := store.CopyFields(current)
	for k, v := range updates {
		switch t := v.(type) {
		case store.Increment:
			n, _ := store.ToInt64(next[k])
			next[k] = n + int64(t)
		case store.ArrayUnion:
			arr := toAnySlice(next[k])
			for _, item := range t {
				if !containsValue(arr, item) {
					arr = append(arr, item)
				}
			}
			next[k] = arr
		case store.ArrayRemove:
			arr := toAnySlice(next[k])
			kept := arr[:0]
			for _, item := range arr {
				if !containsValue(t, item) {
					kept = append(kept, item)
				}
			}
			next[k] = kept
		case store.TimestampTransform:
			next[k] = s.now()
		default:
			next[k] = store.CopyValue(v)
		}
	}
	return next
}

func (s *Store) run(q store.Query) []store.Doc {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []store.Doc
	for path, fields := range s.docs {
		collection, id, err := store.Split(path)
		if err != nil || collection != q.Collection {
			continue
		}
		if !matches(fields, q.Filters) || !hasFields(fields, q.Orders) {
			continue
		}
		docs = append(docs, store.Doc{ID: id, Path: path, Fields: store.CopyFields(fields)})
	}

	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range q.Orders {
			c := store.Compare(docs[i].Fields[o.Field], docs[j].Fields[o.Field])
			if c == 0 {
				continue
			}
			if o.Dir == store.Desc {
				return c > 0
			}
			return c < 0
		}
		return docs[i].Path < docs[j].Path
	})

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}

	slog.Debug("memstore query", "collection", q.Collection, "results", len(docs))
	return docs
}

func matches(fields store.Fields, filters []store.Filter) bool {
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case store.OpEqual:
			if !store.Equal(v, f.Value) {
				return false
			}
		case store.OpIn:
			values, _ := store.InValues(f.Value)
			if !containsValue(values, v) {
				return false
			}
		case store.OpArrayContains:
			if !containsValue(toAnySlice(v), f.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Documents lacking an order-by field are left out of ordered results.
func hasFields(fields store.Fields, orders []store.Order) bool {
	for _, o := range orders {
		if _, ok := fields[o.Field]; !ok {
			return false
		}
	}
	return true
}

func toAnySlice(v any) []any {
	values, ok := store.InValues(v)
	if !ok || v == nil {
		return []any{}
	}
	return append([]any(nil), values...)
}

func containsValue(values []any, v any) bool {
	for _, x := range values {
		if store.Equal(x, v) {
			return true
		}
	}
	return false
}
