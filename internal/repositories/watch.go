package repositories

import (
	"context"
	"log/slog"

	"github.com/anonto42/nano-midea/socialsync/internal/store"
	"github.com/samber/lo"
)

// watch subscribes to q and decodes every snapshot. A failed snapshot is
// logged and ends the stream.
func watch[T any](ctx context.Context, s store.Store, q store.Query, decode func(store.Doc) T) (<-chan []T, error) {
	snaps, err := s.Subscribe(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make(chan []T)

	go func() {
		defer close(out)

		for snap := range snaps {
			if snap.Err != nil {
				slog.Warn("live query failed", "collection", q.Collection, "error", snap.Err)
				return
			}

			items := lo.Map(snap.Docs, func(doc store.Doc, _ int) T {
				return decode(doc)
			})

			select {
			case out <- items:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// fetch reads q once and decodes the result.
func fetch[T any](ctx context.Context, s store.Store, q store.Query, decode func(store.Doc) T) ([]T, error) {
	docs, err := store.Fetch(ctx, s, q)
	if err != nil {
		return nil, err
	}
	return lo.Map(docs, func(doc store.Doc, _ int) T {
		return decode(doc)
	}), nil
}

func docID(doc store.Doc) string {
	return doc.ID
}
