package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/projectdesk/review-api/internal/dto"
	"github.com/projectdesk/review-api/internal/models"
	"github.com/projectdesk/review-api/internal/observability"
	"github.com/projectdesk/review-api/internal/repository"
)

// ReviewService applies administrator decisions to applications.
type ReviewService interface {
	Transition(ctx context.Context, applicationID uint, actor Actor, payload dto.ReviewRequest) (dto.ApplicationResponse, error)
	BulkTransition(ctx context.Context, actor Actor, payload dto.BulkReviewRequest) (dto.BulkReviewResponse, error)
}

type reviewService struct {
	applications repository.ApplicationRepository
	auditLogs    repository.AuditLogRepository
	audit        AuditRecorder
	validator    *validator.Validate
	logger       zerolog.Logger
	now          func() time.Time
}

// NewReviewService constructs the review service.
func NewReviewService(
	applications repository.ApplicationRepository,
	auditLogs repository.AuditLogRepository,
	audit AuditRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) ReviewService {
	return &reviewService{
		applications: applications,
		auditLogs:    auditLogs,
		audit:        audit,
		validator:    validate,
		logger:       logger.With().Str("component", "review_service").Logger(),
		now:          time.Now,
	}
}

func (s *reviewService) Transition(ctx context.Context, applicationID uint, actor Actor, payload dto.ReviewRequest) (dto.ApplicationResponse, error) {
	tracer := otel.Tracer("github.com/projectdesk/review-api/internal/service/review")
	ctx, span := tracer.Start(ctx, "review.transition")
	span.SetAttributes(
		attribute.Int64("review.application_id", int64(applicationID)),
		attribute.Int64("review.actor_id", int64(actor.ID)),
		attribute.String("review.target_status", payload.Status),
	)
	defer span.End()

	if !actor.IsAdmin() {
		span.SetStatus(codes.Error, "not_authorized")
		return dto.ApplicationResponse{}, ErrNotAuthorized
	}

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ApplicationResponse{}, err
	}

	// Read the row immediately before committing so that a concurrent
	// transition which landed first is reflected in the audit old-value.
	application, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "application_not_found")
			return dto.ApplicationResponse{}, ErrApplicationNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "application_lookup_failed")
		return dto.ApplicationResponse{}, err
	}

	oldStatus := application.Status
	oldNote := application.ReviewNote

	columns := map[string]interface{}{
		"status":     payload.Status,
		"updated_at": s.now(),
	}

	noteChanged := false
	var newNote string
	if payload.Note != nil {
		newNote = strings.TrimSpace(*payload.Note)
		if newNote != "" && (oldNote == nil || *oldNote != newNote) {
			columns["review_note"] = newNote
			noteChanged = true
		}
	}

	if err := s.applications.UpdateFields(ctx, applicationID, columns); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "application_not_found")
			return dto.ApplicationResponse{}, ErrApplicationNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "status_update_failed")
		return dto.ApplicationResponse{}, err
	}

	s.recordBestEffort(ctx, AuditEntry{
		ApplicationID: applicationID,
		ActorID:       actor.ID,
		Action:        models.AuditActionStatusChanged,
		FieldName:     stringPtr("status"),
		OldValue:      stringPtr(oldStatus),
		NewValue:      stringPtr(payload.Status),
	})

	if noteChanged {
		oldNoteValue := "None"
		if oldNote != nil {
			oldNoteValue = *oldNote
		}
		s.recordBestEffort(ctx, AuditEntry{
			ApplicationID: applicationID,
			ActorID:       actor.ID,
			Action:        models.AuditActionReviewNoteAdded,
			FieldName:     stringPtr("reviewNote"),
			OldValue:      stringPtr(oldNoteValue),
			NewValue:      stringPtr(newNote),
		})
	}

	observability.ReviewDecisions().WithLabelValues(strings.ToLower(payload.Status)).Inc()

	updated, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		span.RecordError(err)
		return dto.ApplicationResponse{}, err
	}

	s.logger.Info().
		Uint("application_id", applicationID).
		Str("old_status", oldStatus).
		Str("new_status", payload.Status).
		Bool("note_changed", noteChanged).
		Msg("application reviewed")

	span.SetAttributes(attribute.String("review.old_status", oldStatus))

	response := dto.NewApplicationResponse(updated)
	if s.auditLogs != nil {
		if total, err := s.auditLogs.CountByApplication(ctx, applicationID); err == nil {
			response.AuditEntries = total
		}
	}
	return response, nil
}

// BulkTransition applies the decision per item. Partial success is the
// contract: each application commits or fails on its own and the response
// reports both sides.
func (s *reviewService) BulkTransition(ctx context.Context, actor Actor, payload dto.BulkReviewRequest) (dto.BulkReviewResponse, error) {
	if !actor.IsAdmin() {
		return dto.BulkReviewResponse{}, ErrNotAuthorized
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.BulkReviewResponse{}, err
	}

	response := dto.BulkReviewResponse{Requested: len(payload.IDs)}
	for _, id := range payload.IDs {
		_, err := s.Transition(ctx, id, actor, dto.ReviewRequest{Status: payload.Status})
		if err != nil {
			response.Failures = append(response.Failures, dto.BulkReviewFailure{
				ID:     id,
				Reason: bulkFailureReason(err),
			})
			continue
		}
		response.Updated++
	}

	s.logger.Info().
		Int("requested", response.Requested).
		Int("updated", response.Updated).
		Str("status", payload.Status).
		Msg("bulk review applied")

	return response, nil
}

func (s *reviewService) recordBestEffort(ctx context.Context, entry AuditEntry) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).
			Uint("application_id", entry.ApplicationID).
			Str("action", entry.Action).
			Msg("audit entry lost")
	}
}

func bulkFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrApplicationNotFound):
		return "application not found"
	case errors.Is(err, ErrNotAuthorized):
		return "not authorized"
	default:
		return "update failed"
	}
}
