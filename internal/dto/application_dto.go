package dto

import (
	"time"

	"github.com/projectdesk/review-api/internal/models"
	"github.com/projectdesk/review-api/internal/risk"
)

// ApplicationCreateRequest describes the payload for submitting a proposal.
type ApplicationCreateRequest struct {
	Title         string  `json:"title" validate:"required"`
	Description   string  `json:"description" validate:"required,min=20"`
	TechnicalDesc string  `json:"technical_desc" validate:"required,min=50"`
	ProjectType   string  `json:"project_type" validate:"required,oneof=WEB_DEVELOPMENT MOBILE_APP DATA_ANALYSIS INFRASTRUCTURE SECURITY RESEARCH OTHER"`
	Duration      int     `json:"duration" validate:"required,gte=1"`
	Cost          float64 `json:"cost" validate:"gte=0"`
	DocumentLink  *string `json:"document_link" validate:"omitempty,url"`
}

// ApplicationUpdateRequest carries partial edits to content fields. Status
// and review notes are never settable here; those travel through the review
// endpoints.
type ApplicationUpdateRequest struct {
	Title         *string  `json:"title" validate:"omitempty,min=1"`
	Description   *string  `json:"description" validate:"omitempty,min=20"`
	TechnicalDesc *string  `json:"technical_desc" validate:"omitempty,min=50"`
	ProjectType   *string  `json:"project_type" validate:"omitempty,oneof=WEB_DEVELOPMENT MOBILE_APP DATA_ANALYSIS INFRASTRUCTURE SECURITY RESEARCH OTHER"`
	Duration      *int     `json:"duration" validate:"omitempty,gte=1"`
	Cost          *float64 `json:"cost" validate:"omitempty,gte=0"`
	DocumentLink  *string  `json:"document_link" validate:"omitempty,url"`
}

// ApplicationFilter describes query string filters for listing applications.
type ApplicationFilter struct {
	Status      *string `query:"status" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
	ProjectType *string `query:"project_type" validate:"omitempty,oneof=WEB_DEVELOPMENT MOBILE_APP DATA_ANALYSIS INFRASTRUCTURE SECURITY RESEARCH OTHER"`
	MinScore    *int    `query:"min_score" validate:"omitempty,gte=0,lte=100"`
	MaxScore    *int    `query:"max_score" validate:"omitempty,gte=0,lte=100"`
	Search      string  `query:"search"`
	Page        int     `query:"page"`
	PageSize    int     `query:"page_size"`
}

// SubmitterLite summarizes the owning user without exposing full profile data.
type SubmitterLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ApplicationResponse is returned to API clients when viewing applications.
type ApplicationResponse struct {
	ID            uint           `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	TechnicalDesc string         `json:"technical_desc"`
	ProjectType   string         `json:"project_type"`
	Duration      int            `json:"duration"`
	Cost          float64        `json:"cost"`
	DocumentLink  *string        `json:"document_link"`
	Status        string         `json:"status"`
	RiskScore     int            `json:"risk_score"`
	RiskLevel     risk.LevelInfo `json:"risk_level"`
	ReviewNote    *string        `json:"review_note"`
	SubmitterID   uint           `json:"submitter_id"`
	AuditEntries  int64          `json:"audit_entries"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Submitter     SubmitterLite  `json:"submitter"`
}

// ApplicationListResponse wraps a page of applications.
type ApplicationListResponse struct {
	Items      []ApplicationResponse `json:"items"`
	Pagination PaginationMeta        `json:"pagination"`
}

// RiskAnalysisResponse explains how an application's score was derived.
type RiskAnalysisResponse struct {
	OldScore *int           `json:"old_score,omitempty"`
	Score    int            `json:"score"`
	Level    risk.LevelInfo `json:"level"`
	Factors  RiskFactors    `json:"factors"`
}

// RiskFactors echoes the scorer inputs back to the caller.
type RiskFactors struct {
	Cost                float64 `json:"cost"`
	Duration            int     `json:"duration"`
	ProjectType         string  `json:"project_type"`
	TechnicalComplexity int     `json:"technical_complexity"`
}

// NewApplicationResponse converts an Application model into a DTO.
func NewApplicationResponse(model models.Application) ApplicationResponse {
	response := ApplicationResponse{
		ID:            model.ID,
		Title:         model.Title,
		Description:   model.Description,
		TechnicalDesc: model.TechnicalDesc,
		ProjectType:   model.ProjectType,
		Duration:      model.Duration,
		Cost:          model.Cost,
		DocumentLink:  model.DocumentLink,
		Status:        model.Status,
		RiskScore:     model.RiskScore,
		RiskLevel:     risk.Level(model.RiskScore),
		ReviewNote:    model.ReviewNote,
		SubmitterID:   model.SubmitterID,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}

	if model.Submitter.ID != 0 {
		response.Submitter = SubmitterLite{
			ID:    model.Submitter.ID,
			Name:  model.Submitter.Name,
			Email: model.Submitter.Email,
		}
	}

	return response
}

// NewApplicationResponseSlice converts application models into DTOs.
func NewApplicationResponseSlice(items []models.Application) []ApplicationResponse {
	responses := make([]ApplicationResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewApplicationResponse(item))
	}

	return responses
}
