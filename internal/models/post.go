package models

import (
	"time"

	"github.com/rs/xid"
	"gorm.io/gorm"
)

// Post represents a post in the feed.
type Post struct {
	ID       string `gorm:"primaryKey;size:20;index:idx_posts_created_id,priority:2,sort:desc" json:"id"`
	AuthorID string `gorm:"size:20;not null;index" json:"authorId"`
	Author   User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	ImageURL string `gorm:"column:image_url" json:"imageUrl"`
	Content  string `gorm:"type:text;not null" json:"content"`
	// CommentCount is not persisted; computed at query time
	CommentCount int64 `gorm:"->;-:migration" json:"commentCount"`
	// ReactionCount is not persisted; computed at query time
	ReactionCount int64 `gorm:"->;-:migration" json:"reactionCount"`
	// LikedByCurrentUser is computed against the viewer passed to the query
	LikedByCurrentUser bool      `gorm:"->;-:migration" json:"likedByCurrentUser"`
	CreatedAt          time.Time `gorm:"index:idx_posts_created_id,priority:1,sort:desc" json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a time-sortable id.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = xid.New().String()
	}
	return nil
}

// PostCounts mirrors the `_count` object of the API.
type PostCounts struct {
	Comments  int64 `json:"comments"`
	Reactions int64 `json:"reactions"`
}

// PostView is the API representation of a post.
type PostView struct {
	ID                 string        `json:"id"`
	ImageURL           string        `json:"imageUrl"`
	Content            string        `json:"content"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
	Author             AuthorSummary `json:"author"`
	Count              PostCounts    `json:"_count"`
	LikedByCurrentUser bool          `json:"likedByCurrentUser"`
}

// NewPostView builds the response shape for p.
func NewPostView(p *Post) PostView {
	return PostView{
		ID:                 p.ID,
		ImageURL:           p.ImageURL,
		Content:            p.Content,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
		Author:             NewAuthorSummary(p.Author),
		Count:              PostCounts{Comments: p.CommentCount, Reactions: p.ReactionCount},
		LikedByCurrentUser: p.LikedByCurrentUser,
	}
}

// NewPostViews maps a slice of posts.
func NewPostViews(posts []*Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, NewPostView(p))
	}
	return views
}
