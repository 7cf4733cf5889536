package service

import (
	"context"

	"virtuefeed/internal/models"
	"virtuefeed/internal/repository"
	"virtuefeed/internal/validation"
)

var commentContent = validation.TextRule{Field: "content", MaxLen: models.MaxCommentLength}

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	rewriter    ContentRewriter
}

type ListCommentsInput struct {
	PostID string
	Cursor string
	Limit  int
}

type CreateCommentInput struct {
	UserID  string
	PostID  string
	Content string
}

type UpdateCommentInput struct {
	UserID    string
	CommentID string
	Content   *string
}

type DeleteCommentInput struct {
	UserID    string
	CommentID string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	rewriter ContentRewriter,
) *CommentService {
	if rewriter == nil {
		rewriter = TrimRewriter{}
	}
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		rewriter:    rewriter,
	}
}

func (s *CommentService) ListComments(ctx context.Context, in ListCommentsInput) (models.Page[*models.Comment], error) {
	if err := s.requirePost(ctx, in.PostID); err != nil {
		return models.Page[*models.Comment]{}, err
	}

	limit := DefaultCommentLimit
	if in.Limit != 0 {
		limit = ClampLimit(in.Limit, MaxCommentLimit)
	}
	comments, err := s.commentRepo.ListByPost(ctx, in.PostID, repository.CursorPage{Cursor: in.Cursor, Limit: limit})
	if err != nil {
		return models.Page[*models.Comment]{}, err
	}
	return models.BuildPage(comments, limit, func(c *models.Comment) string { return c.ID }), nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content, err := commentContent.Required(in.Content)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.requirePost(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		AuthorID: in.UserID,
		Content:  applyRewrite(ctx, s.rewriter, content, commentContent),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("Forbidden")
	}
	if in.Content == nil {
		return nil, models.NewValidationError("content is required")
	}

	content, err := commentContent.Replacement(*in.Content)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	comment.Content = applyRewrite(ctx, s.rewriter, content, commentContent)
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != in.UserID {
		return models.NewForbiddenError("Forbidden")
	}
	return s.commentRepo.Delete(ctx, in.CommentID)
}

func (s *CommentService) requirePost(ctx context.Context, postID string) error {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("Post")
	}
	return nil
}
