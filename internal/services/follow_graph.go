package services

import (
	"context"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/anonto42/nano-midea/socialsync/internal/session"
	"github.com/anonto42/nano-midea/socialsync/pkg/async"
	"github.com/samber/lo"
)

// FollowGraph maintains follow edges and the cached follower/following
// counters. Each operation is a sequence of independent writes; a failure
// part way leaves earlier writes in place.
type FollowGraph struct {
	users    repositories.UserRepository
	follows  repositories.FollowRepository
	notifier *NotificationService
}

func NewFollowGraph(users repositories.UserRepository, follows repositories.FollowRepository, notifier *NotificationService) *FollowGraph {
	return &FollowGraph{users: users, follows: follows, notifier: notifier}
}

// Follow makes the caller follow target. Following yourself, or following
// while unauthenticated, does nothing.
func (g *FollowGraph) Follow(ctx context.Context, target string) error {
	p := session.FromContext(ctx)
	if !p.Authenticated() || target == "" || target == p.UID {
		return nil
	}

	if err := g.follows.AddFollowing(ctx, p.UID, target); err != nil {
		return err
	}
	if err := g.follows.AddFollower(ctx, target, p.UID); err != nil {
		return err
	}
	if err := g.users.AdjustCounter(ctx, p.UID, repositories.FieldFollowingCount, 1); err != nil {
		return err
	}
	if err := g.users.AdjustCounter(ctx, target, repositories.FieldFollowerCount, 1); err != nil {
		return err
	}

	g.notifier.Notify(ctx, target, models.Notification{
		ID:        FollowNotificationID(p.UID),
		Type:      models.NotificationFollow,
		ActorID:   p.UID,
		ActorName: p.Name(),
	})
	return nil
}

// Unfollow removes both edge records and decrements both counters. Counters
// are not clamped at zero.
func (g *FollowGraph) Unfollow(ctx context.Context, target string) error {
	p := session.FromContext(ctx)
	if !p.Authenticated() || target == "" || target == p.UID {
		return nil
	}

	if err := g.follows.RemoveFollowing(ctx, p.UID, target); err != nil {
		return err
	}
	if err := g.follows.RemoveFollower(ctx, target, p.UID); err != nil {
		return err
	}
	if err := g.users.AdjustCounter(ctx, p.UID, repositories.FieldFollowingCount, -1); err != nil {
		return err
	}
	return g.users.AdjustCounter(ctx, target, repositories.FieldFollowerCount, -1)
}

func (g *FollowGraph) IsFollowing(ctx context.Context, target string) (bool, error) {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return false, ErrUnauthenticated
	}
	return g.follows.IsFollowing(ctx, p.UID, target)
}

func (g *FollowGraph) WatchFollowingIDs(ctx context.Context, uid string) (<-chan []string, error) {
	return g.follows.WatchFollowingIDs(ctx, uid)
}

// WatchIsFollowing streams whether uid follows target
func (g *FollowGraph) WatchIsFollowing(ctx context.Context, uid, target string) (<-chan bool, error) {
	ids, err := g.follows.WatchFollowingIDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	return async.MapChan(ctx, ids, func(ids []string) bool {
		return lo.Contains(ids, target)
	}), nil
}

// WatchUsers streams the global user list with private fields hidden
func (g *FollowGraph) WatchUsers(ctx context.Context) (<-chan []models.User, error) {
	users, err := g.users.WatchUsers(ctx)
	if err != nil {
		return nil, err
	}
	return async.MapChan(ctx, users, func(users []models.User) []models.User {
		return lo.Map(users, func(u models.User, _ int) models.User {
			return u.PublicView()
		})
	}), nil
}
