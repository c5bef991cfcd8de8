package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/nano-midea/socialsync/internal/store"
)

// FollowRepository defines the interface for follow edge operations. Each
// directed edge lives twice: under the follower's following set and under
// the followee's followers set. The two writes are independent.
type FollowRepository interface {
	AddFollowing(ctx context.Context, follower, followee string) error
	AddFollower(ctx context.Context, followee, follower string) error
	RemoveFollowing(ctx context.Context, follower, followee string) error
	RemoveFollower(ctx context.Context, followee, follower string) error
	IsFollowing(ctx context.Context, follower, followee string) (bool, error)
	ListFollowingIDs(ctx context.Context, uid string) ([]string, error)
	ListFollowerIDs(ctx context.Context, uid string) ([]string, error)
	WatchFollowingIDs(ctx context.Context, uid string) (<-chan []string, error)
}

// StoreFollowRepository implements FollowRepository on a document store
type StoreFollowRepository struct {
	store store.Store
}

// NewStoreFollowRepository creates a new StoreFollowRepository
func NewStoreFollowRepository(s store.Store) *StoreFollowRepository {
	return &StoreFollowRepository{store: s}
}

// AddFollowing writes users/{follower}/following/{followee}
func (r *StoreFollowRepository) AddFollowing(ctx context.Context, follower, followee string) error {
	if err := r.store.Set(ctx, FollowingPath(follower, followee), store.Fields{"createdAt": store.ServerTimestamp}); err != nil {
		return fmt.Errorf("failed to add following edge: %w", err)
	}
	return nil
}

// AddFollower writes users/{followee}/followers/{follower}
func (r *StoreFollowRepository) AddFollower(ctx context.Context, followee, follower string) error {
	if err := r.store.Set(ctx, FollowersPath(followee, follower), store.Fields{"createdAt": store.ServerTimestamp}); err != nil {
		return fmt.Errorf("failed to add follower edge: %w", err)
	}
	return nil
}

func (r *StoreFollowRepository) RemoveFollowing(ctx context.Context, follower, followee string) error {
	if err := r.store.Delete(ctx, FollowingPath(follower, followee)); err != nil {
		return fmt.Errorf("failed to remove following edge: %w", err)
	}
	return nil
}

func (r *StoreFollowRepository) RemoveFollower(ctx context.Context, followee, follower string) error {
	if err := r.store.Delete(ctx, FollowersPath(followee, follower)); err != nil {
		return fmt.Errorf("failed to remove follower edge: %w", err)
	}
	return nil
}

// IsFollowing checks the follower-side record only
func (r *StoreFollowRepository) IsFollowing(ctx context.Context, follower, followee string) (bool, error) {
	_, err := r.store.Get(ctx, FollowingPath(follower, followee))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *StoreFollowRepository) ListFollowingIDs(ctx context.Context, uid string) ([]string, error) {
	return fetch(ctx, r.store, store.Collection(store.Join(usersCollection, uid, "following")), docID)
}

func (r *StoreFollowRepository) ListFollowerIDs(ctx context.Context, uid string) ([]string, error) {
	return fetch(ctx, r.store, store.Collection(store.Join(usersCollection, uid, "followers")), docID)
}

// WatchFollowingIDs streams the ids uid follows
func (r *StoreFollowRepository) WatchFollowingIDs(ctx context.Context, uid string) (<-chan []string, error) {
	return watch(ctx, r.store, store.Collection(store.Join(usersCollection, uid, "following")), docID)
}
