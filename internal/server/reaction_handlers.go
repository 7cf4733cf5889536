package server

import (
	"github.com/gofiber/fiber/v2"
)

type upsertReactionRequest struct {
	Type string `json:"type"`
}

// GetReaction handles GET /api/posts/:id/reaction
func (s *Server) GetReaction(c *fiber.Ctx) error {
	state, err := s.reactionService.GetReaction(c.UserContext(), c.Params("id"), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// UpsertReaction handles PUT /api/posts/:id/reaction
func (s *Server) UpsertReaction(c *fiber.Ctx) error {
	var req upsertReactionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	res, err := s.reactionService.UpsertReaction(c.UserContext(), c.Params("id"), currentUserID(c), req.Type)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// RemoveReaction handles DELETE /api/posts/:id/reaction
func (s *Server) RemoveReaction(c *fiber.Ctx) error {
	if err := s.reactionService.RemoveReaction(c.UserContext(), c.Params("id"), currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleReaction handles POST and DELETE /api/posts/:id/reactions. Both
// methods flip the current state.
func (s *Server) ToggleReaction(c *fiber.Ctx) error {
	res, err := s.reactionService.ToggleReaction(c.UserContext(), c.Params("id"), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
