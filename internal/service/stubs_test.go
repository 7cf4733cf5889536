package service

import (
	"context"
	"errors"
	"testing"

	"virtuefeed/internal/models"
	"virtuefeed/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn   func(context.Context, *models.Post) error
	getByIDFn  func(context.Context, string, string) (*models.Post, error)
	existsFn   func(context.Context, string) (bool, error)
	listFn     func(context.Context, repository.CursorPage, string) ([]*models.Post, error)
	updateFn   func(context.Context, *models.Post) error
	deleteFn   func(context.Context, string) error
	imageRefFn func(context.Context, []string) (map[string]bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID string) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) Exists(ctx context.Context, id string) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, page repository.CursorPage, viewerID string) ([]*models.Post, error) {
	return s.listFn(ctx, page, viewerID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) ReferencedImageURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	return s.imageRefFn(ctx, urls)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = "p1"
			return nil
		},
		getByIDFn: func(_ context.Context, id, _ string) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: "author"}, nil
		},
		existsFn:   func(_ context.Context, _ string) (bool, error) { return true, nil },
		listFn:     func(_ context.Context, _ repository.CursorPage, _ string) ([]*models.Post, error) { return nil, nil },
		updateFn:   func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:   func(_ context.Context, _ string) error { return nil },
		imageRefFn: func(_ context.Context, _ []string) (map[string]bool, error) { return map[string]bool{}, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, string) (*models.Comment, error)
	listByPostFn func(context.Context, string, repository.CursorPage) ([]*models.Comment, error)
	updateFn     func(context.Context, *models.Comment) error
	deleteFn     func(context.Context, string) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID string, page repository.CursorPage) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID, page)
}
func (s *commentRepoStub) Update(ctx context.Context, c *models.Comment) error {
	return s.updateFn(ctx, c)
}
func (s *commentRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id string) (*models.Comment, error) {
			return &models.Comment{ID: id, AuthorID: "author"}, nil
		},
		listByPostFn: func(_ context.Context, _ string, _ repository.CursorPage) ([]*models.Comment, error) { return nil, nil },
		updateFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn:     func(_ context.Context, _ string) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn         func(context.Context, string) (*models.User, error)
	getByExternalIDFn func(context.Context, string) (*models.User, error)
	findFn            func(context.Context, string, string) (*models.User, error)
	upsertFn          func(context.Context, *models.User) (*models.User, error)
	createFn          func(context.Context, *models.User) error
	updateFn          func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return s.getByExternalIDFn(ctx, externalID)
}
func (s *userRepoStub) FindByExternalIDOrEmail(ctx context.Context, externalID, email string) (*models.User, error) {
	return s.findFn(ctx, externalID, email)
}
func (s *userRepoStub) UpsertByExternalID(ctx context.Context, u *models.User) (*models.User, error) {
	return s.upsertFn(ctx, u)
}
func (s *userRepoStub) Create(ctx context.Context, u *models.User) error {
	return s.createFn(ctx, u)
}
func (s *userRepoStub) Update(ctx context.Context, u *models.User) error {
	return s.updateFn(ctx, u)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id string) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		getByExternalIDFn: func(_ context.Context, ext string) (*models.User, error) {
			return &models.User{ID: "u1", ExternalID: ext, Username: "alice"}, nil
		},
		findFn:   func(_ context.Context, _, _ string) (*models.User, error) { return nil, nil },
		upsertFn: func(_ context.Context, u *models.User) (*models.User, error) { return u, nil },
		createFn: func(_ context.Context, _ *models.User) error { return nil },
		updateFn: func(_ context.Context, _ *models.User) error { return nil },
	}
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func assertValidationError(t *testing.T, err error, message string) {
	t.Helper()
	appErr := assertAppError(t, err, models.CodeValidation)
	assert.Equal(t, message, appErr.Message)
}

// rewriterFunc adapts a function to ContentRewriter.
type rewriterFunc func(context.Context, string) (string, error)

func (f rewriterFunc) Rewrite(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}
