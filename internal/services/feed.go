package services

import (
	"context"
	"log/slog"
	"slices"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
	"github.com/anonto42/nano-midea/socialsync/pkg/async"
	"github.com/samber/lo"
)

// FeedService merges the live post streams of a set of authors into one
// feed, newest first
type FeedService struct {
	posts     repositories.PostRepository
	follows   repositories.FollowRepository
	chunkSize int
}

// NewFeedService creates a FeedService. chunkSize is capped at the store's
// membership filter limit.
func NewFeedService(posts repositories.PostRepository, follows repositories.FollowRepository, chunkSize int) *FeedService {
	if chunkSize <= 0 || chunkSize > store.MaxInValues {
		chunkSize = store.MaxInValues
	}
	return &FeedService{posts: posts, follows: follows, chunkSize: chunkSize}
}

// FeedForIDs streams the posts of authorIDs. The ids are split into chunks,
// each chunk gets its own live query, and every update of any chunk
// re-merges the latest result of all of them. An empty id set yields one
// empty feed and the channel closes.
func (s *FeedService) FeedForIDs(ctx context.Context, authorIDs []string) (<-chan []models.Post, error) {
	ids := lo.Uniq(lo.Compact(authorIDs))
	if len(ids) == 0 {
		return async.Just(ctx, []models.Post{}), nil
	}

	ctx, cancel := context.WithCancel(ctx)

	chunks := lo.Chunk(ids, s.chunkSize)
	streams := make([]<-chan []models.Post, 0, len(chunks))
	for _, chunk := range chunks {
		stream, err := s.posts.WatchByAuthors(ctx, chunk)
		if err != nil {
			cancel()
			return nil, err
		}
		streams = append(streams, stream)
	}

	merged := async.MapChan(ctx, async.CombineLatest(ctx, streams...), func(parts [][]models.Post) []models.Post {
		feedRecombinations.Inc()
		return mergeFeed(parts)
	})

	out := make(chan []models.Post)
	go func() {
		defer cancel()
		defer close(out)

		for feed := range merged {
			select {
			case out <- feed:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// WatchFeed streams uid's home feed: posts by everyone uid follows plus uid.
// A change of the following set replaces every chunk subscription.
func (s *FeedService) WatchFeed(ctx context.Context, uid string) (<-chan []models.Post, error) {
	following, err := s.follows.WatchFollowingIDs(ctx, uid)
	if err != nil {
		return nil, err
	}

	return async.SwitchMap(ctx, following, func(ctx context.Context, ids []string) <-chan []models.Post {
		feed, err := s.FeedForIDs(ctx, append(slices.Clone(ids), uid))
		if err != nil {
			slog.WarnContext(ctx, "failed to open feed", "uid", uid, "authors", len(ids)+1, "error", err)
			closed := make(chan []models.Post)
			close(closed)
			return closed
		}
		return feed
	}), nil
}

func mergeFeed(parts [][]models.Post) []models.Post {
	feed := lo.Flatten(parts)
	slices.SortStableFunc(feed, func(a, b models.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return feed
}
