package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/anonto42/nano-midea/socialsync/internal/session"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// IdentityService bootstraps and edits the caller's profile
type IdentityService struct {
	users    repositories.UserRepository
	validate *validator.Validate
}

func NewIdentityService(users repositories.UserRepository) *IdentityService {
	return &IdentityService{users: users, validate: validator.New()}
}

// DefaultDisplayName derives the bootstrap display name from the principal's
// email handle.
func DefaultDisplayName(p session.Principal) string {
	if handle := p.Handle(); handle != "" {
		return handle
	}
	return models.DefaultDisplayName
}

// EnsureUserProfile creates the caller's profile if it does not exist yet
// and reports whether the profile is complete. It writes at most once per
// principal.
func (s *IdentityService) EnsureUserProfile(ctx context.Context) (bool, error) {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return false, ErrUnauthenticated
	}

	user, err := s.users.GetUser(ctx, p.UID)
	if err == nil {
		return user.IsComplete(), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("failed to load profile: %w", err)
	}

	user = &models.User{
		UID:             p.UID,
		DisplayName:     DefaultDisplayName(p),
		Email:           p.Email,
		AvatarColor:     models.DefaultAvatarColor,
		NeedsOnboarding: true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return false, err
	}
	return false, nil
}

// GetProfile returns uid's public profile
func (s *IdentityService) GetProfile(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	view := user.PublicView()
	return &view, nil
}

// UpdateProfile saves the edit-profile form and completes onboarding
func (s *IdentityService) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) error {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return ErrUnauthenticated
	}

	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Bio = strings.TrimSpace(req.Bio)
	req.Role = strings.TrimSpace(req.Role)
	req.Location = strings.TrimSpace(req.Location)
	req.Languages = lo.Uniq(lo.Compact(lo.Map(req.Languages, func(l string, _ int) string {
		return strings.TrimSpace(l)
	})))

	if err := s.validate.Struct(req); err != nil {
		return err
	}

	err := s.users.UpdateProfile(ctx, p.UID, req)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
