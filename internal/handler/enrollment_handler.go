package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/acadia-labs/academy-crm-api/internal/dto"
	"github.com/acadia-labs/academy-crm-api/internal/repository"
	"github.com/acadia-labs/academy-crm-api/internal/service"
	"github.com/acadia-labs/academy-crm-api/internal/utils"
)

// EnrollmentHandler wires sales pipeline HTTP routes.
type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  zerolog.Logger
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service service.EnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register attaches enrollment endpoints to the router group.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
}

func (h *EnrollmentHandler) list(c *fiber.Ctx) error {
	studentID, err := parseQueryInt(c, "student_id")
	if err != nil || studentID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student_id")
	}

	filter := repository.EnrollmentFilter{
		StudentID: uint(studentID),
		Stage:     c.Query("stage"),
	}

	enrollments, err := h.service.List(c.Context(), academyIDFromContext(c), filter)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}

func (h *EnrollmentHandler) create(c *fiber.Ctx) error {
	var payload dto.EnrollmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	enrollment, err := h.service.Create(c.Context(), academyIDFromContext(c), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusBadRequest, "student not found")
		case errors.Is(err, service.ErrCourseNotFound):
			return utils.SendError(c, fiber.StatusBadRequest, "course not found")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendCreated(c, "enrollment created", enrollment)
}

func (h *EnrollmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EnrollmentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	enrollment, err := h.service.Update(c.Context(), id, academyIDFromContext(c), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEnrollmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "enrollment not found")
		case errors.Is(err, service.ErrInvalidStageTransition):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendSuccess(c, "enrollment updated", enrollment)
}

func (h *EnrollmentHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("enrollment request failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
