package server

import (
	"virtuefeed/internal/middleware"
	"virtuefeed/internal/models"
	"virtuefeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateMeRequest struct {
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatarUrl"`
}

// GetMe handles GET /api/users/me
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SelfView
// @Failure 404 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	user, err := s.userService.GetMe(c.UserContext(), identity.ExternalID)
	if err != nil {
		return respondError(c, err)
	}
	middleware.SetUserID(c, user.ID)
	return c.JSON(models.NewSelfView(user))
}

// SyncUser handles POST /api/users/sync
// @Summary Provision or refresh the local user from the identity provider
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SelfView
// @Failure 400 {object} models.ErrorResponse
// @Router /users/sync [post]
func (s *Server) SyncUser(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	user, err := s.userService.Sync(c.UserContext(), identity)
	if err != nil {
		return respondError(c, err)
	}
	middleware.SetUserID(c, user.ID)
	return c.JSON(models.NewSelfView(user))
}

// UpdateMe handles PATCH /api/users/me
// @Summary Update username or avatar
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SelfView
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [patch]
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req updateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	identity, _ := middleware.IdentityFrom(c)
	user, err := s.userService.UpdateMe(c.UserContext(), service.UpdateMeInput{
		ExternalID: identity.ExternalID,
		Username:   req.Username,
		AvatarURL:  req.AvatarURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.NewSelfView(user))
}

// GetUserProfile handles GET /api/users/:id
// @Summary Public profile
// @Tags users
// @Produce json
// @Param id path string true "user id"
// @Success 200 {object} models.PublicProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetProfile(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.NewPublicProfile(user))
}
