package models

import (
	"time"

	"github.com/rs/xid"
	"gorm.io/gorm"
)

// Reaction types. Clients may send either; only ReactionUp is ever stored.
const (
	ReactionUp   = "UP"
	ReactionDown = "DOWN"
)

// Reaction represents a user's thumbs-up on a post.
// The combination of PostID and UserID must be unique.
type Reaction struct {
	ID         string    `gorm:"primaryKey;size:20" json:"id"`
	PostID     string    `gorm:"size:20;not null;uniqueIndex:idx_reactions_post_user,priority:1" json:"postId"`
	UserID     string    `gorm:"size:20;not null;uniqueIndex:idx_reactions_post_user,priority:2;index" json:"userId"`
	StoredType string    `gorm:"size:8;not null;default:UP" json:"storedType"`
	CreatedAt  time.Time `json:"createdAt"`

	// Relationships
	Post *Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate assigns a time-sortable id.
func (r *Reaction) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = xid.New().String()
	}
	return nil
}

// IsValidReactionType reports whether t is a type clients may send.
func IsValidReactionType(t string) bool {
	return t == ReactionUp || t == ReactionDown
}
