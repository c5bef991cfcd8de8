package services

import (
	"context"
	"sync"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/optimistic"
)

// LikeState is what a client shows for the like button of one post.
type LikeState struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"count"`
}

// FeedView keeps one client's like buttons. A toggle shows up immediately
// and is rolled back if the write behind it fails.
type FeedView struct {
	interactions *InteractionService

	mu    sync.Mutex
	likes map[string]*optimistic.Affordance[LikeState]
}

func NewFeedView(interactions *InteractionService) *FeedView {
	return &FeedView{
		interactions: interactions,
		likes:        map[string]*optimistic.Affordance[LikeState]{},
	}
}

// ToggleLike flips the caller's like on post and returns the state to show.
// On failure the returned state is the one from before the toggle.
func (v *FeedView) ToggleLike(ctx context.Context, post models.Post) (LikeState, error) {
	like, err := v.affordance(ctx, post)
	if err != nil {
		return LikeState{}, err
	}

	like.Rebase(LikeState{Liked: like.Value().Liked, Count: post.LikeCount})

	current := like.Value()
	next := LikeState{Liked: !current.Liked, Count: current.Count + 1}
	if current.Liked {
		next.Count = max(current.Count-1, 0)
	}

	err = like.Apply(ctx, next, func(ctx context.Context) error {
		_, err := v.interactions.ToggleLike(ctx, post.ID)
		return err
	})
	return like.Value(), err
}

// LikeState returns the displayed state of postID and where its last toggle
// stands. ok is false for posts never toggled through this view.
func (v *FeedView) LikeState(postID string) (state LikeState, phase optimistic.State, ok bool) {
	v.mu.Lock()
	like, ok := v.likes[postID]
	v.mu.Unlock()

	if !ok {
		return LikeState{}, optimistic.Pristine, false
	}
	return like.Value(), like.State(), true
}

func (v *FeedView) affordance(ctx context.Context, post models.Post) (*optimistic.Affordance[LikeState], error) {
	v.mu.Lock()
	like, ok := v.likes[post.ID]
	v.mu.Unlock()
	if ok {
		return like, nil
	}

	liked, err := v.interactions.HasLiked(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if like, ok := v.likes[post.ID]; ok {
		return like, nil
	}
	like = optimistic.New(LikeState{Liked: liked, Count: post.LikeCount})
	v.likes[post.ID] = like
	return like, nil
}
