package services

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/anonto42/nano-midea/socialsync/internal/session"
	"github.com/samber/lo"
)

const (
	DefaultHeartbeatInterval = 60 * time.Second
	DefaultOnlineThreshold   = 120 * time.Second

	onlineRecheckInterval = 30 * time.Second
)

// OnlineSet returns the sorted ids of users seen less than threshold before now
func OnlineSet(users []models.User, now time.Time, threshold time.Duration) []string {
	online := lo.FilterMap(users, func(u models.User, _ int) (string, bool) {
		return u.UID, !u.LastSeen.IsZero() && now.Sub(u.LastSeen) < threshold
	})
	slices.Sort(online)
	return online
}

// PresenceTracker publishes heartbeats for signed-in principals and derives
// the online set from the users stream
type PresenceTracker struct {
	users     repositories.UserRepository
	interval  time.Duration
	threshold time.Duration
	recheck   time.Duration
	now       func() time.Time
}

func NewPresenceTracker(users repositories.UserRepository, interval, threshold time.Duration) *PresenceTracker {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	if threshold <= 0 {
		threshold = DefaultOnlineThreshold
	}
	return &PresenceTracker{
		users:     users,
		interval:  interval,
		threshold: threshold,
		recheck:   onlineRecheckInterval,
		now:       time.Now,
	}
}

// Beat writes one heartbeat for uid. Failures are swallowed.
func (t *PresenceTracker) Beat(ctx context.Context, uid string) {
	if err := t.users.TouchLastSeen(ctx, uid); err != nil {
		swallow(ctx, "heartbeat", err, "uid", uid)
		return
	}
	heartbeatsWritten.Inc()
}

// Run beats immediately and then on every interval until ctx is done.
func (t *PresenceTracker) Run(ctx context.Context, uid string) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.Beat(ctx, uid)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Beat(ctx, uid)
		}
	}
}

// RunSession keeps one heartbeat loop running for whoever is signed in.
// Logout stops the loop and a new login replaces it. It returns when ctx is
// done or events closes.
func (t *PresenceTracker) RunSession(ctx context.Context, events <-chan session.Event) {
	var (
		stop = func() {}
		done chan struct{}
	)
	halt := func() {
		stop()
		if done != nil {
			<-done
			done = nil
		}
	}
	defer halt()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			halt()
			if ev.Principal == nil {
				stop = func() {}
				continue
			}

			var loopCtx context.Context
			loopCtx, stop = context.WithCancel(ctx)
			done = make(chan struct{})
			go func(uid string, done chan struct{}) {
				defer close(done)
				slog.DebugContext(loopCtx, "presence started", "uid", uid)
				t.Run(loopCtx, uid)
			}(ev.Principal.UID, done)
		}
	}
}

// WatchOnline streams the online set. It is recomputed on every users
// snapshot and periodically so silent users age out.
func (t *PresenceTracker) WatchOnline(ctx context.Context) (<-chan []string, error) {
	users, err := t.users.WatchUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan []string)

	go func() {
		defer close(out)

		ticker := time.NewTicker(t.recheck)
		defer ticker.Stop()

		var (
			latest []models.User
			seen   bool
		)

		for {
			select {
			case <-ctx.Done():
				return

			case snapshot, ok := <-users:
				if !ok {
					return
				}
				latest, seen = snapshot, true

			case <-ticker.C:
				if !seen {
					continue
				}
			}

			select {
			case out <- OnlineSet(latest, t.now(), t.threshold):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (t *PresenceTracker) Threshold() time.Duration {
	return t.threshold
}
