// Package session carries the authenticated principal through request
// contexts and publishes identity changes (login, logout) to live consumers.
package session

import (
	"context"
	"strings"

	"github.com/anonto42/nano-midea/socialsync/pkg/async"
	"github.com/samber/lo"
)

// Principal is an authenticated identity.
type Principal struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

func (p Principal) Authenticated() bool {
	return p.UID != ""
}

// Handle is the local part of the principal's email address.
func (p Principal) Handle() string {
	handle, _, _ := strings.Cut(p.Email, "@")
	return strings.TrimSpace(handle)
}

// Name is the best human readable label for the principal.
func (p Principal) Name() string {
	name, _ := lo.Coalesce(p.DisplayName, p.Email, "Unknown")
	return name
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx. The zero Principal is
// returned for unauthenticated contexts.
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}

// Event is an identity change. A nil Principal means logged out.
type Event struct {
	Principal *Principal
}

// Session tracks the identity of one client session.
type Session struct {
	current *async.Value[Event]
}

func New() *Session {
	return &Session{current: async.NewValue(Event{})}
}

func (s *Session) Login(p Principal) {
	s.current.Store(Event{Principal: &p})
}

func (s *Session) Logout() {
	s.current.Store(Event{})
}

func (s *Session) Current() (Principal, bool) {
	ev := s.current.Load()
	if ev.Principal == nil {
		return Principal{}, false
	}
	return *ev.Principal, true
}

// Events delivers the current identity immediately and then every change
// until ctx is done.
func (s *Session) Events(ctx context.Context) <-chan Event {
	return s.current.Subscribe(ctx)
}
