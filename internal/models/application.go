package models

import "time"

// Application represents a project proposal submitted for review.
type Application struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	TechnicalDesc string    `gorm:"type:text;not null" json:"technical_desc"`
	ProjectType   string    `gorm:"size:32;not null" json:"project_type"`
	Duration      int       `gorm:"not null" json:"duration"`
	Cost          float64   `gorm:"not null" json:"cost"`
	DocumentLink  *string   `gorm:"size:512" json:"document_link"`
	Status        string    `gorm:"size:16;not null;default:PENDING" json:"status"`
	RiskScore     int       `gorm:"not null" json:"risk_score"`
	ReviewNote    *string   `gorm:"type:text" json:"review_note"`
	SubmitterID   uint      `gorm:"not null;index" json:"submitter_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Submitter     User      `gorm:"foreignKey:SubmitterID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submitter"`
}

const (
	// StatusPending indicates the application awaits an administrator decision.
	StatusPending = "PENDING"
	// StatusApproved indicates the application has been approved.
	StatusApproved = "APPROVED"
	// StatusRejected indicates the application has been rejected.
	StatusRejected = "REJECTED"
)

// Project type enumeration used by the risk scorer and filters.
const (
	ProjectTypeWebDevelopment = "WEB_DEVELOPMENT"
	ProjectTypeMobileApp      = "MOBILE_APP"
	ProjectTypeDataAnalysis   = "DATA_ANALYSIS"
	ProjectTypeInfrastructure = "INFRASTRUCTURE"
	ProjectTypeSecurity       = "SECURITY"
	ProjectTypeResearch       = "RESEARCH"
	ProjectTypeOther          = "OTHER"
)

// ProjectTypes lists every accepted project type value.
var ProjectTypes = []string{
	ProjectTypeWebDevelopment,
	ProjectTypeMobileApp,
	ProjectTypeDataAnalysis,
	ProjectTypeInfrastructure,
	ProjectTypeSecurity,
	ProjectTypeResearch,
	ProjectTypeOther,
}

// IsValidProjectType reports whether value is a known project type.
func IsValidProjectType(value string) bool {
	for _, t := range ProjectTypes {
		if t == value {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether value is a known application status.
func IsValidStatus(value string) bool {
	return value == StatusPending || value == StatusApproved || value == StatusRejected
}

// IsDecided reports whether the application has left the pending state.
func (a Application) IsDecided() bool {
	return a.Status == StatusApproved || a.Status == StatusRejected
}

// IsOwnedBy reports whether the given actor submitted this application.
func (a Application) IsOwnedBy(actorID uint) bool {
	return a.SubmitterID == actorID
}
