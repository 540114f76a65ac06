package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/projectdesk/review-api/internal/dto"
	"github.com/projectdesk/review-api/internal/models"
	"github.com/projectdesk/review-api/internal/repository"
)

// Actor represents the authenticated caller performing an operation, as
// supplied by the auth middleware.
type Actor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor carries administrator capability.
func (a Actor) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(a.Role), models.RoleAdmin)
}

// AuditEntry captures the details required to persist one audit record.
type AuditEntry struct {
	ApplicationID uint
	ActorID       uint
	Action        string
	FieldName     *string
	OldValue      *string
	NewValue      *string
	Metadata      map[string]interface{}
}

// AuditRecorder defines behaviour for appending audit records. Mutating
// services depend on this interface rather than the full service.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) (dto.AuditEntryResponse, error)
}

// ReplayedState is the application state derivable from an audit history.
type ReplayedState struct {
	Exists     bool
	Status     string
	ReviewNote *string
	RiskScore  *int
}

// AuditService exposes append and read operations over the audit ledger.
type AuditService interface {
	AuditRecorder
	ListForApplication(ctx context.Context, applicationID uint) (dto.AuditTrailResponse, error)
}

type auditService struct {
	repo   repository.AuditLogRepository
	logger zerolog.Logger
}

// NewAuditService constructs the audit ledger service.
func NewAuditService(repo repository.AuditLogRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) (dto.AuditEntryResponse, error) {
	if entry.ApplicationID == 0 {
		return dto.AuditEntryResponse{}, fmt.Errorf("application id is required")
	}
	if !models.IsValidAuditAction(entry.Action) {
		return dto.AuditEntryResponse{}, fmt.Errorf("unknown audit action: %s", entry.Action)
	}

	model := models.AuditLog{
		ApplicationID: entry.ApplicationID,
		ActorID:       entry.ActorID,
		Action:        entry.Action,
		FieldName:     entry.FieldName,
		OldValue:      entry.OldValue,
		NewValue:      entry.NewValue,
		Metadata:      sanitizeMetadata(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).
			Uint("application_id", entry.ApplicationID).
			Str("action", entry.Action).
			Msg("failed to persist audit entry")
		return dto.AuditEntryResponse{}, err
	}

	return dto.NewAuditEntryResponse(model), nil
}

func (s *auditService) ListForApplication(ctx context.Context, applicationID uint) (dto.AuditTrailResponse, error) {
	entries, err := s.repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return dto.AuditTrailResponse{}, err
	}

	return dto.AuditTrailResponse{
		ApplicationID: applicationID,
		Entries:       dto.NewAuditEntryResponseSlice(entries),
		Total:         int64(len(entries)),
	}, nil
}

// Replay folds a history (as returned by the ledger, newest first) into the
// application state it implies. The ledger is complete: the fold of all
// entries must agree with the stored row.
func Replay(entries []models.AuditLog) ReplayedState {
	state := ReplayedState{}

	// Entries arrive newest first; fold oldest first.
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		switch entry.Action {
		case models.AuditActionCreated:
			state.Exists = true
			state.Status = models.StatusPending
			if entry.NewValue != nil {
				state.Status = *entry.NewValue
			}
		case models.AuditActionStatusChanged:
			if entry.NewValue != nil {
				state.Status = *entry.NewValue
			}
		case models.AuditActionReviewNoteAdded:
			state.ReviewNote = entry.NewValue
		case models.AuditActionUpdated:
			if entry.FieldName != nil && *entry.FieldName == "riskScore" && entry.NewValue != nil {
				var score int
				if _, err := fmt.Sscanf(*entry.NewValue, "%d", &score); err == nil {
					state.RiskScore = &score
				}
			}
		}
	}

	return state
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func stringPtr(v string) *string {
	return &v
}
