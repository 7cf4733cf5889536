// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/xid"
	"gorm.io/gorm"
)

// User is the local record linked to an identity-provider account.
type User struct {
	ID         string    `gorm:"primaryKey;size:20" json:"id"`
	ExternalID string    `gorm:"column:external_id;size:191;uniqueIndex;not null" json:"externalId"`
	Email      string    `gorm:"size:320;uniqueIndex;not null" json:"email"`
	Username   string    `gorm:"size:191;not null" json:"username"`
	AvatarURL  string    `gorm:"column:avatar_url" json:"avatarUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a time-sortable id.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = xid.New().String()
	}
	return nil
}

// SelfView is what a user sees about their own account.
type SelfView struct {
	ID                string    `json:"id"`
	ExternalID        string    `json:"externalId"`
	Email             string    `json:"email"`
	Username          string    `json:"username"`
	AvatarURL         string    `json:"avatarUrl"`
	AvatarURLResolved string    `json:"avatarUrlResolved"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// NewSelfView projects u for its owner. The fallback avatar is seeded by the external id.
func NewSelfView(u *User) SelfView {
	var v SelfView
	_ = copier.Copy(&v, u)
	v.AvatarURLResolved = ResolveAvatarURL(u.AvatarURL, u.ExternalID)
	return v
}

// PublicProfile is what anyone may see about a user.
type PublicProfile struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	AvatarURL         string    `json:"avatarUrl"`
	AvatarURLResolved string    `json:"avatarUrlResolved"`
	CreatedAt         time.Time `json:"createdAt"`
}

// NewPublicProfile projects u for other users.
func NewPublicProfile(u *User) PublicProfile {
	var v PublicProfile
	_ = copier.Copy(&v, u)
	v.AvatarURLResolved = ResolveAvatarURL(u.AvatarURL, u.ID)
	return v
}

// AuthorSummary is embedded in post and comment responses.
type AuthorSummary struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	AvatarURL         string `json:"avatarUrl"`
	AvatarURLResolved string `json:"avatarUrlResolved"`
}

// NewAuthorSummary projects a user into the author shape.
func NewAuthorSummary(u User) AuthorSummary {
	return AuthorSummary{
		ID:                u.ID,
		Username:          u.Username,
		AvatarURL:         u.AvatarURL,
		AvatarURLResolved: ResolveAvatarURL(u.AvatarURL, u.ID),
	}
}
