package models

import (
	"time"

	"github.com/rs/xid"
	"gorm.io/gorm"
)

// MaxCommentLength is the comment cap in characters.
const MaxCommentLength = 2000

// Comment represents a comment on a post.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:20;index:idx_comments_post_created,priority:3,sort:desc" json:"id"`
	PostID    string    `gorm:"size:20;not null;index:idx_comments_post_created,priority:1" json:"postId"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID  string    `gorm:"size:20;not null;index" json:"authorId"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_comments_post_created,priority:2,sort:desc" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a time-sortable id.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = xid.New().String()
	}
	return nil
}

// CommentView is the API representation of a comment.
type CommentView struct {
	ID        string        `json:"id"`
	PostID    string        `json:"postId"`
	AuthorID  string        `json:"authorId"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Author    AuthorSummary `json:"author"`
	IsAuthor  bool          `json:"isAuthor"`
}

// NewCommentView builds the response shape for c as seen by viewerID.
func NewCommentView(c *Comment, viewerID string) CommentView {
	return CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Author:    NewAuthorSummary(c.Author),
		IsAuthor:  viewerID != "" && viewerID == c.AuthorID,
	}
}

// NewCommentViews maps a slice of comments.
func NewCommentViews(comments []*Comment, viewerID string) []CommentView {
	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, NewCommentView(c, viewerID))
	}
	return views
}
