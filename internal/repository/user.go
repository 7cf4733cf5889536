package repository

import (
	"context"
	"errors"

	"virtuefeed/internal/cache"
	"virtuefeed/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	FindByExternalIDOrEmail(ctx context.Context, externalID, email string) (*models.User, error)
	UpsertByExternalID(ctx context.Context, user *models.User) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User")
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByExternalID resolves the local user for an identity-provider id. Hits
// are served from cache; a miss is reported as NotFound and never cached.
func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserExternalKey(externalID), &user, cache.UserTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Where("external_id = ?", externalID).Take(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User")
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByExternalIDOrEmail returns nil without error when neither matches.
func (r *userRepository) FindByExternalIDOrEmail(ctx context.Context, externalID, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("external_id = ? OR email = ?", externalID, email).
		Order("created_at ASC").
		Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// UpsertByExternalID inserts user or overwrites email, username and avatar of
// the row already linked to the same external id. The stored row is returned.
func (r *userRepository) UpsertByExternalID(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "username", "avatar_url", "updated_at"}),
		}).
		Create(user).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, models.NewValidationError("Email already linked to another account")
		}
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ExternalID)

	var stored models.User
	if err := r.db.WithContext(ctx).Where("external_id = ?", user.ExternalID).Take(&stored).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stored, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update saves user and drops the cached lookups for its current and its
// previous external id.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	var prior models.User
	if err := r.db.WithContext(ctx).Select("external_id").Where("id = ?", user.ID).Take(&prior).Error; err != nil &&
		!errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewInternalError(err)
	}

	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("User already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ExternalID)
	if prior.ExternalID != "" && prior.ExternalID != user.ExternalID {
		cache.InvalidateUser(ctx, prior.ExternalID)
	}
	return nil
}
