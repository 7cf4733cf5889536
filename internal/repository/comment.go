package repository

import (
	"context"
	"errors"

	"virtuefeed/internal/cache"
	"virtuefeed/internal/models"
	"virtuefeed/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string, page CursorPage) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id string) error
}

// commentRepository implements CommentRepository
type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment and loads its author.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, comment.PostID)

	if err := r.db.WithContext(ctx).Where("id = ?", comment.AuthorID).Take(&comment.Author).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author").Where("id = ?", id).Take(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment")
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

// ListByPost returns the newest comments of a post after page.Cursor, at most
// page.Limit+1 rows. A cursor that belongs to another post yields no rows.
func (r *commentRepository) ListByPost(ctx context.Context, postID string, page CursorPage) ([]*models.Comment, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "ListByPost", "comments")
	defer span.End()
	defer observability.TrackQuery("list", "comments")()

	db := readDB(r.db).WithContext(ctx)

	var anchor *keysetAnchor
	if page.Cursor != "" {
		var err error
		anchor, err = findAnchor(db.Where("comments.post_id = ?", postID), "comments", page.Cursor)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if anchor == nil {
			return []*models.Comment{}, nil
		}
	}

	var comments []*models.Comment
	err := afterAnchor(db.Where("comments.post_id = ?", postID), "comments", anchor).
		Preload("Author").
		Limit(page.Limit + 1).
		Find(&comments).Error
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("update", "comments")()
	result := r.db.WithContext(ctx).
		Model(&models.Comment{ID: comment.ID}).
		Update("content", comment.Content)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Comment")
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackQuery("delete", "comments")()

	var comment models.Comment
	if err := r.db.WithContext(ctx).Select("id", "post_id").Where("id = ?", id).Take(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Comment")
		}
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Delete(&comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, comment.PostID)
	return nil
}
