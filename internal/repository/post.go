package repository

import (
	"context"
	"errors"

	"virtuefeed/internal/cache"
	"virtuefeed/internal/models"
	"virtuefeed/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string, viewerID string) (*models.Post, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, page CursorPage, viewerID string) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
	ReferencedImageURLs(ctx context.Context, urls []string) (map[string]bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID loads a post with its author and counts. Anonymous reads go through
// the cache since their view does not depend on the caller.
func (r *postRepository) GetByID(ctx context.Context, id string, viewerID string) (*models.Post, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "GetByID", "posts")
	defer span.End()

	var post models.Post
	load := func() error {
		defer observability.TrackQuery("get", "posts")()
		err := r.applyPostDetails(r.db.WithContext(ctx), viewerID).
			Preload("Author").
			Where("posts.id = ?", id).
			Take(&post).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post")
			}
			return models.NewInternalError(err)
		}
		return nil
	}

	var err error
	if viewerID == "" {
		err = cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, load)
	} else {
		err = load()
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// List returns the newest posts after page.Cursor, at most page.Limit+1 rows.
func (r *postRepository) List(ctx context.Context, page CursorPage, viewerID string) ([]*models.Post, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "List", "posts")
	defer span.End()
	defer observability.TrackQuery("list", "posts")()

	db := readDB(r.db).WithContext(ctx)

	var anchor *keysetAnchor
	if page.Cursor != "" {
		var err error
		anchor, err = findAnchor(db, "posts", page.Cursor)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if anchor == nil {
			return []*models.Post{}, nil
		}
	}

	var posts []*models.Post
	err := afterAnchor(r.applyPostDetails(db, viewerID), "posts", anchor).
		Preload("Author").
		Limit(page.Limit + 1).
		Find(&posts).Error
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Update persists content and image of an existing post.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("update", "posts")()
	result := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Updates(map[string]interface{}{
			"content":   post.Content,
			"image_url": post.ImageURL,
		})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post")
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

// Delete removes a post together with its comments and reactions in one
// transaction.
func (r *postRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackQuery("delete", "posts")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Post{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Post")
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

// ReferencedImageURLs reports which of urls are still used by a post.
func (r *postRepository) ReferencedImageURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	referenced := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return referenced, nil
	}

	var found []string
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("image_url IN ?", urls).
		Distinct().
		Pluck("image_url", &found).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, u := range found {
		referenced[u] = true
	}
	return referenced, nil
}

// applyPostDetails adds subqueries to fetch counts and liked status in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, viewerID string) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count, " +
		"(SELECT COUNT(*) FROM reactions WHERE reactions.post_id = posts.id) AS reaction_count"

	if viewerID != "" {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM reactions WHERE reactions.post_id = posts.id AND reactions.user_id = ?) AS liked_by_current_user", viewerID)
	}

	return db.Select(selectQuery + ", false AS liked_by_current_user")
}
