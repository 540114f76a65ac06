package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an immutable record of one change to an application. Entries
// are only ever appended; there is no update or delete path.
type AuditLog struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ApplicationID uint              `gorm:"not null;index" json:"application_id"`
	ActorID       uint              `gorm:"not null" json:"actor_id"`
	Action        string            `gorm:"size:32;not null" json:"action"`
	FieldName     *string           `gorm:"size:64" json:"field_name"`
	OldValue      *string           `gorm:"type:text" json:"old_value"`
	NewValue      *string           `gorm:"type:text" json:"new_value"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
	Actor         User              `gorm:"foreignKey:ActorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"actor"`
}

const (
	// AuditActionCreated marks the initial creation of an application.
	AuditActionCreated = "CREATED"
	// AuditActionStatusChanged marks an administrator status transition.
	AuditActionStatusChanged = "STATUS_CHANGED"
	// AuditActionReviewNoteAdded marks a review note set alongside a transition.
	AuditActionReviewNoteAdded = "REVIEW_NOTE_ADDED"
	// AuditActionUpdated marks a content field or score change.
	AuditActionUpdated = "UPDATED"
)

// IsValidAuditAction reports whether value is a known audit action.
func IsValidAuditAction(value string) bool {
	switch value {
	case AuditActionCreated, AuditActionStatusChanged, AuditActionReviewNoteAdded, AuditActionUpdated:
		return true
	}
	return false
}
