package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DefaultDisplayName is used when the principal has no usable contact handle
const DefaultDisplayName = "New User"

// DefaultAvatarColor is assigned to freshly bootstrapped profiles
const DefaultAvatarColor = "#6366f1"

// User is the public profile document stored at users/{uid}
type User struct {
	UID             string    `json:"uid"`
	DisplayName     string    `json:"displayName"`
	Email           string    `json:"email,omitempty"`
	Bio             string    `json:"bio"`
	AvatarColor     string    `json:"avatarColor,omitempty"`
	Role            string    `json:"role,omitempty"`
	SkillLevel      string    `json:"skillLevel,omitempty"`
	Languages       []string  `json:"languages,omitempty"`
	GithubURL       string    `json:"githubUrl,omitempty"`
	WebsiteURL      string    `json:"websiteUrl,omitempty"`
	Location        string    `json:"location,omitempty"`
	ShowEmail       bool      `json:"showEmail"`
	FollowerCount   int64     `json:"followerCount"`  // cached |followers|
	FollowingCount  int64     `json:"followingCount"` // cached |following|
	LastSeen        time.Time `json:"lastSeen,omitempty"`
	NeedsOnboarding bool      `json:"needsOnboarding"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

// IsComplete reports whether the profile has been through onboarding
func (u *User) IsComplete() bool {
	return u.DisplayName != "" && u.DisplayName != DefaultDisplayName && !u.NeedsOnboarding
}

// PublicView hides the email unless the user opted into showing it
func (u User) PublicView() User {
	if !u.ShowEmail {
		u.Email = ""
	}
	return u
}

// UpdateProfileRequest defines the request body for editing the caller's profile
type UpdateProfileRequest struct {
	DisplayName string   `json:"displayName" validate:"required,min=1,max=50"`
	Bio         string   `json:"bio" validate:"max=280"`
	AvatarColor string   `json:"avatarColor,omitempty" validate:"omitempty,hexcolor"`
	Role        string   `json:"role,omitempty" validate:"max=50"`
	SkillLevel  string   `json:"skillLevel,omitempty" validate:"omitempty,oneof=beginner intermediate advanced expert"`
	Languages   []string `json:"languages,omitempty" validate:"max=20,dive,min=1,max=30"`
	GithubURL   string   `json:"githubUrl,omitempty" validate:"omitempty,url"`
	WebsiteURL  string   `json:"websiteUrl,omitempty" validate:"omitempty,url"`
	Location    string   `json:"location,omitempty" validate:"max=80"`
	ShowEmail   bool     `json:"showEmail"`
}

// SessionClaims are the claims of locally issued session tokens
type SessionClaims struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
