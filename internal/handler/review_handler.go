package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/projectdesk/review-api/internal/dto"
	"github.com/projectdesk/review-api/internal/service"
	"github.com/projectdesk/review-api/internal/utils"
)

// ReviewHandler exposes administrator decision endpoints.
type ReviewHandler struct {
	service service.ReviewService
	stats   service.ReviewStatsService
	logger  zerolog.Logger
}

// NewReviewHandler constructs a review handler.
func NewReviewHandler(svc service.ReviewService, stats service.ReviewStatsService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		stats:   stats,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register wires review routes onto the admin group.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Post("/review/bulk", h.bulkDecide)
	router.Post("/review/:id", h.decide)
	router.Get("/stats", h.summary)
}

func (h *ReviewHandler) decide(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
	}

	var payload dto.ReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Transition(c.Context(), id, actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err, "failed to apply review decision")
	}

	return utils.SendSuccess(c, "review decision applied", response)
}

func (h *ReviewHandler) bulkDecide(c *fiber.Ctx) error {
	var payload dto.BulkReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.BulkTransition(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err, "failed to apply bulk review")
	}

	// Partial failures still return 200; the body reports both sides.
	return utils.SendSuccess(c, "bulk review applied", response)
}

func (h *ReviewHandler) summary(c *fiber.Ctx) error {
	response, err := h.stats.GetSummary(c.Context())
	if err != nil {
		return h.handleError(c, err, "failed to load review stats")
	}

	return utils.SendSuccess(c, "review stats retrieved", response)
}

func (h *ReviewHandler) handleError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrApplicationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "application not found")
	case errors.Is(err, service.ErrNotAuthorized):
		return utils.SendError(c, fiber.StatusForbidden, "not authorized")
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
