package repository

import (
	"context"
	"errors"

	"virtuefeed/internal/cache"
	"virtuefeed/internal/models"
	"virtuefeed/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository defines the interface for reaction data operations
type ReactionRepository interface {
	Get(ctx context.Context, postID, userID string) (*models.Reaction, error)
	Upsert(ctx context.Context, postID, userID string) (*models.Reaction, error)
	Remove(ctx context.Context, postID, userID string) (bool, error)
	Toggle(ctx context.Context, postID, userID string) (reacted bool, count int64, err error)
	CountByPost(ctx context.Context, postID string) (int64, error)
}

// reactionRepository implements ReactionRepository
type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// Get returns nil without error when the user has not reacted.
func (r *reactionRepository) Get(ctx context.Context, postID, userID string) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).Take(&reaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &reaction, nil
}

// Upsert guarantees a single UP reaction for (postID, userID) and returns it.
func (r *reactionRepository) Upsert(ctx context.Context, postID, userID string) (*models.Reaction, error) {
	defer observability.TrackQuery("upsert", "reactions")()

	reaction := &models.Reaction{PostID: postID, UserID: userID, StoredType: models.ReactionUp}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"stored_type"}),
		}).
		Create(reaction).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	observability.ReactionsTotal.WithLabelValues("upserted").Inc()

	stored, err := r.Get(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, models.NewInternalError(errors.New("reaction missing after upsert"))
	}
	return stored, nil
}

// Remove deletes the reaction if present and reports whether a row went away.
func (r *reactionRepository) Remove(ctx context.Context, postID, userID string) (bool, error) {
	defer observability.TrackQuery("delete", "reactions")()

	result := r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Reaction{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		cache.InvalidatePost(ctx, postID)
		observability.ReactionsTotal.WithLabelValues("removed").Inc()
	}
	return result.RowsAffected > 0, nil
}

// Toggle flips the reaction inside one transaction and returns the resulting
// state with the post's reaction count. A concurrent insert for the same pair
// is absorbed by the unique index.
func (r *reactionRepository) Toggle(ctx context.Context, postID, userID string) (bool, int64, error) {
	defer observability.TrackQuery("toggle", "reactions")()

	var reacted bool
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Reaction{})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			reaction := &models.Reaction{PostID: postID, UserID: userID, StoredType: models.ReactionUp}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(reaction).Error; err != nil {
				return err
			}
			reacted = true
		}

		return tx.Model(&models.Reaction{}).Where("post_id = ?", postID).Count(&count).Error
	})
	if err != nil {
		return false, 0, models.NewInternalError(err)
	}

	cache.InvalidatePost(ctx, postID)
	action := "removed"
	if reacted {
		action = "added"
	}
	observability.ReactionsTotal.WithLabelValues(action).Inc()
	return reacted, count, nil
}

func (r *reactionRepository) CountByPost(ctx context.Context, postID string) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Reaction{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
