package server

import (
	"virtuefeed/internal/models"
	"virtuefeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Content  string `json:"content" form:"content"`
	ImageURL string `json:"imageUrl" form:"imageUrl"`
}

type updatePostRequest struct {
	Content  *string `json:"content"`
	ImageURL *string `json:"imageUrl"`
}

// ListPosts handles GET /api/posts
// @Summary List the feed, newest first
// @Tags posts
// @Produce json
// @Param cursor query string false "id of the last post of the previous page"
// @Param limit query int false "page size (1-50)"
// @Success 200 {object} models.Page[models.PostView]
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Cursor:   c.Query("cursor"),
		Limit:    service.ParseLimit(c.Query("limit"), service.DefaultPostLimit, service.MaxPostLimit),
		ViewerID: s.viewerID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.MapPage(page, models.NewPostViews))
}

// GetPost handles GET /api/posts/:id
// @Summary Get one post with counts
// @Tags posts
// @Produce json
// @Param id path string true "post id"
// @Success 200 {object} models.PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postService.GetPost(c.UserContext(), c.Params("id"), s.viewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.NewPostView(post))
}

// CreatePost handles POST /api/posts. Multipart bodies may carry the image
// file itself in the "image" field.
// @Summary Create a post
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.PostView
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if isMultipart(c) {
		if file, err := c.FormFile("image"); err == nil {
			url, err := s.storeFormFile(c, file)
			if err != nil {
				return respondError(c, err)
			}
			req.ImageURL = url
		}
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: currentUserID(c),
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewPostView(post))
}

// UpdatePost handles PATCH /api/posts/:id
// @Summary Partially update an owned post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "post id"
// @Success 200 {object} models.PostView
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	var req updatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:   currentUserID(c),
		PostID:   c.Params("id"),
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.NewPostView(post))
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete an owned post with its comments and reactions
// @Tags posts
// @Security BearerAuth
// @Param id path string true "post id"
// @Success 204
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: currentUserID(c),
		PostID: c.Params("id"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
