package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/acadia-labs/academy-crm-api/internal/service"
	"github.com/acadia-labs/academy-crm-api/internal/utils"
)

// DashboardHandler wires the academy dashboard endpoint.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard endpoint to the router group.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("", h.get)
}

func (h *DashboardHandler) get(c *fiber.Ctx) error {
	dashboard, err := h.service.GetDashboard(c.Context(), academyIDFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("dashboard request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}
