package server

import (
	"net/http"

	"virtuefeed/internal/middleware"
	"virtuefeed/internal/models"
	"virtuefeed/internal/service"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	svix "github.com/svix/svix-webhooks/go"
)

type webhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleIdentityWebhook handles POST /api/webhooks. Deliveries are signed by
// the identity provider with svix headers over the raw body.
// @Summary Identity provider webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /webhooks [post]
func (s *Server) HandleIdentityWebhook(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if s.config.IDPWebhookSecret == "" {
		middleware.Logger.ErrorContext(ctx, "webhook received but IDP_WEBHOOK_SECRET is not set")
		return respondError(c, models.NewValidationError("Error verifying webhook"))
	}

	wh, err := svix.NewWebhook(s.config.IDPWebhookSecret)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	payload := c.Body()
	headers := http.Header{}
	for key, values := range c.GetReqHeaders() {
		for _, v := range values {
			headers.Add(key, v)
		}
	}
	if err := wh.Verify(payload, headers); err != nil {
		middleware.Logger.WarnContext(ctx, "webhook signature rejected", "error", err.Error())
		return respondError(c, models.NewValidationError("Error verifying webhook"))
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return invalidBody(c)
	}

	var profile *service.IdentityProfile
	if event.Type == service.WebhookUserCreated {
		if profile, err = service.ProfileFromPayload(event.Data); err != nil {
			return invalidBody(c)
		}
	}
	if err := s.userService.HandleWebhookEvent(ctx, event.Type, profile); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Webhook received"})
}
