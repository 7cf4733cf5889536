package server

import (
	"strings"

	"virtuefeed/internal/middleware"
	"virtuefeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// respondError writes err with the status its code maps to. Internal errors
// are logged with the request context before the generic body is sent.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(), "path", c.Path(), "error", err.Error())
	}
	return models.RespondWithError(c, status, err)
}

func invalidBody(c *fiber.Ctx) error {
	return respondError(c, models.NewValidationError("Invalid request body"))
}

// requireUser resolves the verified identity to a local user and records it
// for logging, rate limiting and the rewrite rollout. Must follow RequireIdentity.
func (s *Server) requireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := middleware.IdentityFrom(c)
		if !ok {
			return respondError(c, models.NewUnauthenticatedError("Unauthorized"))
		}

		user, err := s.userService.ResolveIdentity(c.UserContext(), identity)
		if err != nil {
			return respondError(c, err)
		}

		middleware.SetUserID(c, user.ID)
		return c.Next()
	}
}

// currentUserID returns the local user id set by requireUser.
func currentUserID(c *fiber.Ctx) string {
	uid, _ := c.Locals(middleware.LocalUserID).(string)
	return uid
}

// viewerID resolves the optional identity to a local user id, or "" for
// anonymous requests and identities that were never provisioned.
func (s *Server) viewerID(c *fiber.Ctx) string {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return ""
	}
	uid := s.userService.LookupViewer(c.UserContext(), identity.ExternalID)
	if uid != "" {
		middleware.SetUserID(c, uid)
	}
	return uid
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}
