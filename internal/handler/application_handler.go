package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/projectdesk/review-api/internal/dto"
	"github.com/projectdesk/review-api/internal/service"
	"github.com/projectdesk/review-api/internal/utils"
)

// ApplicationHandler exposes the proposal lifecycle endpoints.
type ApplicationHandler struct {
	service service.ApplicationService
	audits  service.AuditService
	logger  zerolog.Logger
}

// NewApplicationHandler constructs an application handler.
func NewApplicationHandler(svc service.ApplicationService, audits service.AuditService, logger zerolog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		service: svc,
		audits:  audits,
		logger:  logger.With().Str("component", "application_handler").Logger(),
	}
}

// Register wires application routes.
func (h *ApplicationHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.remove)
	router.Post("/:id/score", h.recompute)
	router.Get("/:id/score", h.analysis)
	router.Post("/:id/document", h.attachDocument)
	router.Get("/:id/audit", h.auditTrail)
}

func (h *ApplicationHandler) create(c *fiber.Ctx) error {
	var payload dto.ApplicationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Create(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err, "failed to submit application")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "application submitted", response)
}

func (h *ApplicationHandler) list(c *fiber.Ctx) error {
	var filter dto.ApplicationFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	response, err := h.service.List(c.Context(), actorFromContext(c), filter)
	if err != nil {
		return h.handleError(c, err, "failed to list applications")
	}

	return utils.OK(c, response.Items, "applications retrieved", response.Pagination)
}

func (h *ApplicationHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
	}

	response, err := h.service.Get(c.Context(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "failed to load application")
	}

	return utils.SendSuccess(c, "application retrieved", response)
}

func (h *ApplicationHandler) update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
	}

	var payload dto.ApplicationUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.EditFields(c.Context(), id, actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err, "failed to update application")
	}

	return utils.SendSuccess(c, "application updated", response)
}

func (h *ApplicationHandler) remove(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
	}

	if err := h.service.Delete(c.Context(), id, actorFromContext(c)); err != nil {
		return h.handleError(c, err, "failed to delete application")
	}

	return utils.SendSuccess(c, "application deleted", nil)
}

func (h *ApplicationHandler) recompute(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
	}

	application, analysis, err := h.service.RecomputeScore(c.Context(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "failed to recompute risk score")
	}

	return utils.OK(c, analysis, "risk score recomputed", fiber.Map{
		"application_id": application.ID,
		"status":         application.Status,
	})
}

func (h *ApplicationHandler) analysis(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
	}

	analysis, err := h.service.RiskAnalysis(c.Context(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "failed to load risk analysis")
	}

	return utils.SendSuccess(c, "risk analysis retrieved", analysis)
}

func (h *ApplicationHandler) attachDocument(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
	}

	file, err := c.FormFile("document")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "document file is required")
	}

	response, err := h.service.AttachDocument(c.Context(), id, actorFromContext(c), file)
	if err != nil {
		return h.handleError(c, err, "failed to attach document")
	}

	return utils.SendSuccess(c, "document attached", response)
}

func (h *ApplicationHandler) auditTrail(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
	}

	// Ownership gate: loading the application applies the same access rule
	// the trail inherits.
	if _, err := h.service.Get(c.Context(), id, actorFromContext(c)); err != nil {
		return h.handleError(c, err, "failed to load audit trail")
	}

	trail, err := h.audits.ListForApplication(c.Context(), id)
	if err != nil {
		return h.handleError(c, err, "failed to load audit trail")
	}

	return utils.SendSuccess(c, "audit trail retrieved", trail)
}

func (h *ApplicationHandler) handleError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrApplicationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "application not found")
	case errors.Is(err, service.ErrNotAuthorized):
		return utils.SendError(c, fiber.StatusForbidden, "not authorized")
	case errors.Is(err, service.ErrNoEditableFields):
		return utils.SendError(c, fiber.StatusBadRequest, "no editable fields in request")
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
