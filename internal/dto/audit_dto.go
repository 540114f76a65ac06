package dto

import (
	"time"

	"github.com/projectdesk/review-api/internal/models"
)

// ActorLite identifies who performed an audited action.
type ActorLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuditEntryResponse serializes one audit trail entry.
type AuditEntryResponse struct {
	ID            uint                   `json:"id"`
	ApplicationID uint                   `json:"application_id"`
	ActorID       uint                   `json:"actor_id"`
	Action        string                 `json:"action"`
	FieldName     *string                `json:"field_name"`
	OldValue      *string                `json:"old_value"`
	NewValue      *string                `json:"new_value"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	Actor         ActorLite              `json:"actor"`
}

// AuditTrailResponse wraps the full history of one application.
type AuditTrailResponse struct {
	ApplicationID uint                 `json:"application_id"`
	Entries       []AuditEntryResponse `json:"entries"`
	Total         int64                `json:"total"`
}

// NewAuditEntryResponse converts an AuditLog model into a DTO.
func NewAuditEntryResponse(model models.AuditLog) AuditEntryResponse {
	response := AuditEntryResponse{
		ID:            model.ID,
		ApplicationID: model.ApplicationID,
		ActorID:       model.ActorID,
		Action:        model.Action,
		FieldName:     model.FieldName,
		OldValue:      model.OldValue,
		NewValue:      model.NewValue,
		CreatedAt:     model.CreatedAt,
	}

	if len(model.Metadata) > 0 {
		response.Metadata = map[string]interface{}(model.Metadata)
	}

	if model.Actor.ID != 0 {
		response.Actor = ActorLite{
			ID:    model.Actor.ID,
			Name:  model.Actor.Name,
			Email: model.Actor.Email,
		}
	}

	return response
}

// NewAuditEntryResponseSlice converts audit log models into DTOs.
func NewAuditEntryResponseSlice(items []models.AuditLog) []AuditEntryResponse {
	responses := make([]AuditEntryResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewAuditEntryResponse(item))
	}

	return responses
}
