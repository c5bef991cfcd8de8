package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/nano-midea/socialsync/internal/store"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	CreateLike(ctx context.Context, postID, uid string) error
	DeleteLike(ctx context.Context, postID, uid string) error
	HasUserLikedPost(ctx context.Context, postID, uid string) (bool, error)
	ListLikerIDs(ctx context.Context, postID string) ([]string, error)
}

// StoreLikeRepository implements LikeRepository on a document store
type StoreLikeRepository struct {
	store store.Store
}

// NewStoreLikeRepository creates a new StoreLikeRepository
func NewStoreLikeRepository(s store.Store) *StoreLikeRepository {
	return &StoreLikeRepository{store: s}
}

// CreateLike writes posts/{postID}/likes/{uid}
func (r *StoreLikeRepository) CreateLike(ctx context.Context, postID, uid string) error {
	if err := r.store.Set(ctx, LikePath(postID, uid), store.Fields{"createdAt": store.ServerTimestamp}); err != nil {
		return fmt.Errorf("failed to create like: %w", err)
	}
	return nil
}

func (r *StoreLikeRepository) DeleteLike(ctx context.Context, postID, uid string) error {
	if err := r.store.Delete(ctx, LikePath(postID, uid)); err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

// HasUserLikedPost reports whether the like record exists
func (r *StoreLikeRepository) HasUserLikedPost(ctx context.Context, postID, uid string) (bool, error) {
	_, err := r.store.Get(ctx, LikePath(postID, uid))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *StoreLikeRepository) ListLikerIDs(ctx context.Context, postID string) ([]string, error) {
	return fetch(ctx, r.store, store.Collection(store.Join(postsCollection, postID, "likes")), docID)
}
