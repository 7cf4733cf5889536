package server

import (
	"virtuefeed/internal/models"
	"virtuefeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content *string `json:"content"`
}

// ListComments handles GET /api/posts/:id/comments
func (s *Server) ListComments(c *fiber.Ctx) error {
	viewer := s.viewerID(c)
	page, err := s.commentService.ListComments(c.UserContext(), service.ListCommentsInput{
		PostID: c.Params("id"),
		Cursor: c.Query("cursor"),
		Limit:  service.ParseLimit(c.Query("limit"), service.DefaultCommentLimit, service.MaxCommentLimit),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.MapPage(page, func(items []*models.Comment) []models.CommentView {
		return models.NewCommentViews(items, viewer)
	}))
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	content := ""
	if req.Content != nil {
		content = *req.Content
	}

	userID := currentUserID(c)
	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:  userID,
		PostID:  c.Params("id"),
		Content: content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewCommentView(comment, userID))
}

// UpdateComment handles PATCH /api/comments/:id
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	userID := currentUserID(c)
	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    userID,
		CommentID: c.Params("id"),
		Content:   req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.NewCommentView(comment, userID))
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    currentUserID(c),
		CommentID: c.Params("id"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
