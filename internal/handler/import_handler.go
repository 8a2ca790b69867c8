package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/acadia-labs/academy-crm-api/internal/service"
	"github.com/acadia-labs/academy-crm-api/internal/utils"
)

// ImportHandler wires the bulk lead import endpoint.
type ImportHandler struct {
	service service.ImportService
	logger  zerolog.Logger
}

// NewImportHandler constructs the handler.
func NewImportHandler(service service.ImportService, logger zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		service: service,
		logger:  logger.With().Str("component", "import_handler").Logger(),
	}
}

// Register attaches the import endpoint to the router group.
func (h *ImportHandler) Register(router fiber.Router) {
	router.Post("/import", h.importStudents)
}

func (h *ImportHandler) importStudents(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	result, err := h.service.Import(c.Context(), academyIDFromContext(c), file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImportFileRequired),
			errors.Is(err, service.ErrImportEmpty):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrImportTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, service.ErrImportUnsupportedType):
			return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("import request failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	return utils.SendSuccess(c, "import completed", result)
}
