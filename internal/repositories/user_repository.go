package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
)

// UserRepository defines the interface for user profile operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, uid string) (*models.User, error)
	UpdateProfile(ctx context.Context, uid string, req models.UpdateProfileRequest) error
	AdjustCounter(ctx context.Context, uid, field string, delta int64) error
	SetCounter(ctx context.Context, uid, field string, value int64) error
	TouchLastSeen(ctx context.Context, uid string) error
	ListUsers(ctx context.Context) ([]models.User, error)
	WatchUsers(ctx context.Context) (<-chan []models.User, error)
}

// StoreUserRepository implements UserRepository on a document store
type StoreUserRepository struct {
	store store.Store
}

// NewStoreUserRepository creates a new StoreUserRepository
func NewStoreUserRepository(s store.Store) *StoreUserRepository {
	return &StoreUserRepository{store: s}
}

// CreateUser writes a fresh profile document. CreatedAt is stamped by the store.
func (r *StoreUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	fields := store.Fields{
		"displayName":     user.DisplayName,
		"email":           user.Email,
		"bio":             user.Bio,
		"avatarColor":     user.AvatarColor,
		"followerCount":   user.FollowerCount,
		"followingCount":  user.FollowingCount,
		"needsOnboarding": user.NeedsOnboarding,
		"createdAt":       store.ServerTimestamp,
	}
	if err := r.store.Set(ctx, UserPath(user.UID), fields); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.UID, err)
	}
	return nil
}

// GetUser retrieves a profile. Missing profiles return store.ErrNotFound.
func (r *StoreUserRepository) GetUser(ctx context.Context, uid string) (*models.User, error) {
	doc, err := r.store.Get(ctx, UserPath(uid))
	if err != nil {
		return nil, err
	}
	user := userFromDoc(*doc)
	return &user, nil
}

// UpdateProfile overwrites the editable profile fields and finishes onboarding
func (r *StoreUserRepository) UpdateProfile(ctx context.Context, uid string, req models.UpdateProfileRequest) error {
	fields := store.Fields{
		"displayName":     req.DisplayName,
		"bio":             req.Bio,
		"role":            req.Role,
		"skillLevel":      req.SkillLevel,
		"languages":       req.Languages,
		"githubUrl":       req.GithubURL,
		"websiteUrl":      req.WebsiteURL,
		"location":        req.Location,
		"showEmail":       req.ShowEmail,
		"needsOnboarding": false,
	}
	if req.AvatarColor != "" {
		fields["avatarColor"] = req.AvatarColor
	}
	if err := r.store.Update(ctx, UserPath(uid), fields); err != nil {
		return fmt.Errorf("failed to update profile %s: %w", uid, err)
	}
	return nil
}

// AdjustCounter applies a server-side increment to a cached counter
func (r *StoreUserRepository) AdjustCounter(ctx context.Context, uid, field string, delta int64) error {
	return r.store.Update(ctx, UserPath(uid), store.Fields{field: store.Increment(delta)})
}

// SetCounter overwrites a cached counter with a recomputed value
func (r *StoreUserRepository) SetCounter(ctx context.Context, uid, field string, value int64) error {
	return r.store.Update(ctx, UserPath(uid), store.Fields{field: value})
}

// TouchLastSeen stamps the liveness marker with the store clock
func (r *StoreUserRepository) TouchLastSeen(ctx context.Context, uid string) error {
	return r.store.Update(ctx, UserPath(uid), store.Fields{"lastSeen": store.ServerTimestamp})
}

func (r *StoreUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	return fetch(ctx, r.store, store.Collection(usersCollection), userFromDoc)
}

// WatchUsers streams the global user list
func (r *StoreUserRepository) WatchUsers(ctx context.Context) (<-chan []models.User, error) {
	return watch(ctx, r.store, store.Collection(usersCollection), userFromDoc)
}

func userFromDoc(doc store.Doc) models.User {
	return models.User{
		UID:             doc.ID,
		DisplayName:     doc.String("displayName"),
		Email:           doc.String("email"),
		Bio:             doc.String("bio"),
		AvatarColor:     doc.String("avatarColor"),
		Role:            doc.String("role"),
		SkillLevel:      doc.String("skillLevel"),
		Languages:       doc.Strings("languages"),
		GithubURL:       doc.String("githubUrl"),
		WebsiteURL:      doc.String("websiteUrl"),
		Location:        doc.String("location"),
		ShowEmail:       doc.Bool("showEmail"),
		FollowerCount:   doc.Int(FieldFollowerCount),
		FollowingCount:  doc.Int(FieldFollowingCount),
		LastSeen:        doc.Time("lastSeen"),
		NeedsOnboarding: doc.Bool("needsOnboarding"),
		CreatedAt:       doc.Time("createdAt"),
	}
}
