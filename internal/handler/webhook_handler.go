package handler

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/acadia-labs/academy-crm-api/internal/dto"
	"github.com/acadia-labs/academy-crm-api/internal/service"
	"github.com/acadia-labs/academy-crm-api/internal/utils"
)

// WebhookHandler wires the Meta Lead Ads webhook endpoints. The routes are
// unauthenticated: Meta cannot send a bearer token, so deliveries are
// authenticated by HMAC signature instead.
type WebhookHandler struct {
	service service.WebhookService
	logger  zerolog.Logger
}

// NewWebhookHandler constructs the handler.
func NewWebhookHandler(service service.WebhookService, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		logger:  logger.With().Str("component", "webhook_handler").Logger(),
	}
}

// Register attaches webhook endpoints to the router group.
func (h *WebhookHandler) Register(router fiber.Router) {
	router.Get("/meta-leads/:academyID", h.verify)
	router.Post("/meta-leads/:academyID", h.receive)
}

// verify answers Meta's subscription handshake with the hub.challenge echo.
func (h *WebhookHandler) verify(c *fiber.Ctx) error {
	challenge, err := h.service.VerifySubscription(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
	)
	if err != nil {
		return utils.SendError(c, fiber.StatusForbidden, "verification failed")
	}

	return c.SendString(challenge)
}

func (h *WebhookHandler) receive(c *fiber.Ctx) error {
	academyID, err := parseUintParam(c, "academyID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	body := c.Body()
	if err := h.service.VerifySignature(body, c.Get("X-Hub-Signature-256")); err != nil {
		if errors.Is(err, service.ErrWebhookSignature) {
			requestLogger(h.logger, c).Warn().Uint("academy_id", academyID).Msg("webhook signature rejected")
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid signature")
		}
		return h.internalError(c, err)
	}

	var payload dto.MetaLeadPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.ProcessLeadPayload(c.Context(), academyID, payload)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "webhook processed", result)
}

func (h *WebhookHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("webhook request failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
