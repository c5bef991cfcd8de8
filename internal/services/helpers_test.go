package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/anonto42/nano-midea/socialsync/internal/session"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
	"github.com/anonto42/nano-midea/socialsync/internal/store/memstore"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

// stepClock advances one second on every reading so server timestamps are
// strictly increasing.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *stepClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

type testEnv struct {
	store *memstore.Store
	clock *stepClock

	users         *repositories.StoreUserRepository
	follows       *repositories.StoreFollowRepository
	posts         *repositories.StorePostRepository
	likes         *repositories.StoreLikeRepository
	comments      *repositories.StoreCommentRepository
	notifications *repositories.StoreNotificationRepository
	conversations *repositories.StoreConversationRepository

	notifier     *NotificationService
	identity     *IdentityService
	graph        *FollowGraph
	interactions *InteractionService
	feed         *FeedService
	messaging    *MessagingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := memstore.New(memstore.WithClock(clock.Now))

	env := &testEnv{
		store:         s,
		clock:         clock,
		users:         repositories.NewStoreUserRepository(s),
		follows:       repositories.NewStoreFollowRepository(s),
		posts:         repositories.NewStorePostRepository(s),
		likes:         repositories.NewStoreLikeRepository(s),
		comments:      repositories.NewStoreCommentRepository(s),
		notifications: repositories.NewStoreNotificationRepository(s),
		conversations: repositories.NewStoreConversationRepository(s),
	}
	env.notifier = NewNotificationService(env.notifications)
	env.identity = NewIdentityService(env.users)
	env.graph = NewFollowGraph(env.users, env.follows, env.notifier)
	env.interactions = NewInteractionService(env.users, env.posts, env.likes, env.comments, env.notifier)
	env.feed = NewFeedService(env.posts, env.follows, store.MaxInValues)
	env.messaging = NewMessagingService(env.users, env.conversations, env.notifier)
	return env
}

// signUp returns a context authenticated as a fresh principal whose profile
// has been bootstrapped.
func (e *testEnv) signUp(t *testing.T) (context.Context, session.Principal) {
	t.Helper()

	p := session.Principal{
		UID:         gofakeit.UUID(),
		Email:       strings.ToLower(gofakeit.Username()) + "@example.com",
		DisplayName: gofakeit.Name(),
	}
	ctx := session.WithPrincipal(context.Background(), p)

	_, err := e.identity.EnsureUserProfile(ctx)
	require.NoError(t, err)
	return ctx, p
}

func (e *testEnv) user(t *testing.T, uid string) *models.User {
	t.Helper()
	u, err := e.users.GetUser(context.Background(), uid)
	require.NoError(t, err)
	return u
}

func (e *testEnv) post(t *testing.T, postID string) *models.Post {
	t.Helper()
	p, err := e.posts.GetPost(context.Background(), postID)
	require.NoError(t, err)
	return p
}

func (e *testEnv) inbox(t *testing.T, uid string) []models.Notification {
	t.Helper()
	list, err := e.notifications.GetNotifications(context.Background(), uid)
	require.NoError(t, err)
	return list
}

func (e *testEnv) failWrites(match string) {
	e.store.InjectFault(func(op, path string) error {
		if op != "get" && strings.Contains(path, match) {
			return errInjected
		}
		return nil
	})
}

var errInjected = errors.New("injected failure")

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(waitTimeout):
		require.FailNow(t, "timed out waiting for a value")
	}
	panic("unreachable")
}

func receiveUntil[T any](t *testing.T, ch <-chan T, pred func(T) bool) T {
	t.Helper()

	deadline := time.After(waitTimeout)
	for {
		select {
		case v, ok := <-ch:
			require.True(t, ok, "channel closed")
			if pred(v) {
				return v
			}
		case <-deadline:
			require.FailNow(t, "timed out waiting for a matching value")
		}
	}
}

func requireClosed[T any](t *testing.T, ch <-chan T) {
	t.Helper()

	deadline := time.After(waitTimeout)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			require.FailNow(t, "channel was not closed")
		}
	}
}
