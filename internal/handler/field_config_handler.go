package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/acadia-labs/academy-crm-api/internal/dto"
	"github.com/acadia-labs/academy-crm-api/internal/service"
	"github.com/acadia-labs/academy-crm-api/internal/utils"
)

// FieldConfigHandler wires scoring configuration HTTP routes. Mutations
// require the admin role.
type FieldConfigHandler struct {
	service service.FieldConfigService
	logger  zerolog.Logger
}

// NewFieldConfigHandler constructs the handler.
func NewFieldConfigHandler(service service.FieldConfigService, logger zerolog.Logger) *FieldConfigHandler {
	return &FieldConfigHandler{
		service: service,
		logger:  logger.With().Str("component", "field_config_handler").Logger(),
	}
}

// Register attaches field configuration endpoints to the router group.
func (h *FieldConfigHandler) Register(router fiber.Router) {
	router.Get("", h.resolved)
	router.Put("", h.upsert)
	router.Delete("/:fieldKey", h.deleteCustom)
}

func (h *FieldConfigHandler) resolved(c *fiber.Ctx) error {
	config, err := h.service.Resolved(c.Context(), academyIDFromContext(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "scoring configuration retrieved", config)
}

func (h *FieldConfigHandler) upsert(c *fiber.Ctx) error {
	if role := userRoleFromContext(c); role != "admin" {
		return utils.SendError(c, fiber.StatusForbidden, "admin role required")
	}

	var payload dto.FieldConfigUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	config, err := h.service.Upsert(c.Context(), academyIDFromContext(c), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRules),
			errors.Is(err, service.ErrUnknownSystemField),
			isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendSuccess(c, "scoring configuration saved", config)
}

func (h *FieldConfigHandler) deleteCustom(c *fiber.Ctx) error {
	if role := userRoleFromContext(c); role != "admin" {
		return utils.SendError(c, fiber.StatusForbidden, "admin role required")
	}

	fieldKey := c.Params("fieldKey")
	if fieldKey == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "field key required")
	}

	if err := h.service.DeleteCustom(c.Context(), academyIDFromContext(c), fieldKey); err != nil {
		if errors.Is(err, service.ErrFieldConfigNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "field configuration not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "field configuration deleted", nil)
}

func (h *FieldConfigHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("field config request failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
