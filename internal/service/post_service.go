package service

import (
	"context"
	"strings"

	"virtuefeed/internal/models"
	"virtuefeed/internal/repository"
	"virtuefeed/internal/validation"
)

// PostRules are the content rules applied on create and update.
type PostRules struct {
	MaxContentLength int
	ImageRequired    bool
}

type PostService struct {
	postRepo repository.PostRepository
	rewriter ContentRewriter
	rules    PostRules
}

type ListPostsInput struct {
	Cursor   string
	Limit    int
	ViewerID string
}

type CreatePostInput struct {
	AuthorID string
	Content  string
	ImageURL string
}

// UpdatePostInput carries a partial update; nil fields are left unchanged.
type UpdatePostInput struct {
	UserID   string
	PostID   string
	Content  *string
	ImageURL *string
}

type DeletePostInput struct {
	UserID string
	PostID string
}

func NewPostService(postRepo repository.PostRepository, rewriter ContentRewriter, rules PostRules) *PostService {
	if rewriter == nil {
		rewriter = TrimRewriter{}
	}
	return &PostService{
		postRepo: postRepo,
		rewriter: rewriter,
		rules:    rules,
	}
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (models.Page[*models.Post], error) {
	limit := DefaultPostLimit
	if in.Limit != 0 {
		limit = ClampLimit(in.Limit, MaxPostLimit)
	}
	posts, err := s.postRepo.List(ctx, repository.CursorPage{Cursor: in.Cursor, Limit: limit}, in.ViewerID)
	if err != nil {
		return models.Page[*models.Post]{}, err
	}
	return models.BuildPage(posts, limit, func(p *models.Post) string { return p.ID }), nil
}

func (s *PostService) GetPost(ctx context.Context, id, viewerID string) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id, viewerID)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	imageURL := strings.TrimSpace(in.ImageURL)
	if s.rules.ImageRequired && imageURL == "" {
		return nil, models.NewValidationError("imageUrl is required")
	}
	content, err := s.contentRule().Required(in.Content)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.Post{
		AuthorID: in.AuthorID,
		ImageURL: imageURL,
		Content:  applyRewrite(ctx, s.rewriter, content, s.contentRule()),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.AuthorID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("Forbidden")
	}
	if in.Content == nil && in.ImageURL == nil {
		return nil, models.NewValidationError("No valid fields to update")
	}

	if in.ImageURL != nil {
		imageURL := strings.TrimSpace(*in.ImageURL)
		if imageURL == "" {
			return nil, models.NewValidationError("imageUrl cannot be empty")
		}
		post.ImageURL = imageURL
	}
	if in.Content != nil {
		content, err := s.contentRule().Replacement(*in.Content)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		post.Content = applyRewrite(ctx, s.rewriter, content, s.contentRule())
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return err
	}
	if post.AuthorID != in.UserID {
		return models.NewForbiddenError("Forbidden")
	}
	return s.postRepo.Delete(ctx, in.PostID)
}

func (s *PostService) contentRule() validation.TextRule {
	return validation.TextRule{Field: "content", MaxLen: s.rules.MaxContentLength}
}
