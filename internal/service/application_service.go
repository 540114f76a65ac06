package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/projectdesk/review-api/internal/dto"
	"github.com/projectdesk/review-api/internal/models"
	"github.com/projectdesk/review-api/internal/observability"
	"github.com/projectdesk/review-api/internal/repository"
	"github.com/projectdesk/review-api/internal/risk"
)

// ErrApplicationNotFound indicates an application could not be located.
var ErrApplicationNotFound = errors.New("application not found")

// ErrNotAuthorized indicates the actor lacks the capability or ownership an
// operation requires. Operations failing with it perform no mutation and
// append no audit entry.
var ErrNotAuthorized = errors.New("not authorized")

// ErrNoEditableFields indicates an edit request carried nothing to change.
var ErrNoEditableFields = errors.New("no editable fields in request")

// FileUploader stores proposal documents and returns a public URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// ApplicationService orchestrates the proposal lifecycle outside of review
// decisions: submission, content edits, score recomputation and documents.
type ApplicationService interface {
	Create(ctx context.Context, actor Actor, payload dto.ApplicationCreateRequest) (dto.ApplicationResponse, error)
	Get(ctx context.Context, id uint, actor Actor) (dto.ApplicationResponse, error)
	List(ctx context.Context, actor Actor, filter dto.ApplicationFilter) (dto.ApplicationListResponse, error)
	EditFields(ctx context.Context, id uint, actor Actor, payload dto.ApplicationUpdateRequest) (dto.ApplicationResponse, error)
	Delete(ctx context.Context, id uint, actor Actor) error
	RecomputeScore(ctx context.Context, id uint, actor Actor) (dto.ApplicationResponse, dto.RiskAnalysisResponse, error)
	RiskAnalysis(ctx context.Context, id uint, actor Actor) (dto.RiskAnalysisResponse, error)
	AttachDocument(ctx context.Context, id uint, actor Actor, file *multipart.FileHeader) (dto.ApplicationResponse, error)
}

type applicationService struct {
	applications repository.ApplicationRepository
	auditLogs    repository.AuditLogRepository
	audit        AuditRecorder
	validator    *validator.Validate
	uploader     FileUploader
	policy       *bluemonday.Policy
	logger       zerolog.Logger
}

// NewApplicationService constructs an ApplicationService instance.
func NewApplicationService(
	applications repository.ApplicationRepository,
	auditLogs repository.AuditLogRepository,
	audit AuditRecorder,
	validate *validator.Validate,
	uploader FileUploader,
	logger zerolog.Logger,
) ApplicationService {
	return &applicationService{
		applications: applications,
		auditLogs:    auditLogs,
		audit:        audit,
		validator:    validate,
		uploader:     uploader,
		policy:       bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "application_service").Logger(),
	}
}

func (s *applicationService) Create(ctx context.Context, actor Actor, payload dto.ApplicationCreateRequest) (dto.ApplicationResponse, error) {
	if actor.ID == 0 {
		return dto.ApplicationResponse{}, ErrNotAuthorized
	}

	payload.Title = strings.TrimSpace(s.policy.Sanitize(payload.Title))
	payload.Description = strings.TrimSpace(s.policy.Sanitize(payload.Description))
	payload.TechnicalDesc = strings.TrimSpace(s.policy.Sanitize(payload.TechnicalDesc))

	if err := s.validator.Struct(payload); err != nil {
		return dto.ApplicationResponse{}, err
	}

	complexity := risk.Complexity(payload.TechnicalDesc)
	score := risk.Score(risk.Factors{
		Cost:                payload.Cost,
		Duration:            payload.Duration,
		ProjectType:         payload.ProjectType,
		TechnicalComplexity: complexity,
	})
	observability.ObserveRiskScore(score)

	application := models.Application{
		Title:         payload.Title,
		Description:   payload.Description,
		TechnicalDesc: payload.TechnicalDesc,
		ProjectType:   payload.ProjectType,
		Duration:      payload.Duration,
		Cost:          payload.Cost,
		DocumentLink:  payload.DocumentLink,
		Status:        models.StatusPending,
		RiskScore:     score,
		SubmitterID:   actor.ID,
	}

	if err := s.applications.Create(ctx, &application); err != nil {
		return dto.ApplicationResponse{}, err
	}

	s.recordBestEffort(ctx, AuditEntry{
		ApplicationID: application.ID,
		ActorID:       actor.ID,
		Action:        models.AuditActionCreated,
		FieldName:     stringPtr("status"),
		NewValue:      stringPtr(models.StatusPending),
	})

	created, err := s.applications.GetByID(ctx, application.ID)
	if err != nil {
		return dto.ApplicationResponse{}, err
	}

	s.logger.Info().
		Uint("application_id", created.ID).
		Int("risk_score", created.RiskScore).
		Msg("application created")

	return s.withAuditCount(ctx, created), nil
}

func (s *applicationService) Get(ctx context.Context, id uint, actor Actor) (dto.ApplicationResponse, error) {
	application, err := s.load(ctx, id)
	if err != nil {
		return dto.ApplicationResponse{}, err
	}

	if !actor.IsAdmin() && !application.IsOwnedBy(actor.ID) {
		return dto.ApplicationResponse{}, ErrNotAuthorized
	}

	return s.withAuditCount(ctx, application), nil
}

func (s *applicationService) List(ctx context.Context, actor Actor, filter dto.ApplicationFilter) (dto.ApplicationListResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.ApplicationListResponse{}, err
	}

	repoFilter := repository.ApplicationFilter{
		Status:      filter.Status,
		ProjectType: filter.ProjectType,
		MinScore:    filter.MinScore,
		MaxScore:    filter.MaxScore,
		Search:      filter.Search,
		Page:        filter.Page,
		PageSize:    filter.PageSize,
	}

	// Non-administrators only ever see their own submissions.
	if !actor.IsAdmin() {
		submitterID := actor.ID
		repoFilter.SubmitterID = &submitterID
	}

	applications, total, err := s.applications.List(ctx, repoFilter)
	if err != nil {
		return dto.ApplicationListResponse{}, err
	}

	pagination := dto.PaginationMeta{
		Page:       maxInt(filter.Page, 1),
		PageSize:   filter.PageSize,
		TotalItems: total,
		TotalPages: 1,
	}
	if filter.PageSize > 0 {
		pagination.TotalPages = int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	}

	return dto.ApplicationListResponse{
		Items:      dto.NewApplicationResponseSlice(applications),
		Pagination: pagination,
	}, nil
}

// fieldChange pairs an audit field name with its column and old/new values.
type fieldChange struct {
	field    string
	column   string
	oldValue string
	newValue string
	value    interface{}
}

func (s *applicationService) EditFields(ctx context.Context, id uint, actor Actor, payload dto.ApplicationUpdateRequest) (dto.ApplicationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ApplicationResponse{}, err
	}

	application, err := s.load(ctx, id)
	if err != nil {
		return dto.ApplicationResponse{}, err
	}

	if !actor.IsAdmin() && !application.IsOwnedBy(actor.ID) {
		return dto.ApplicationResponse{}, ErrNotAuthorized
	}

	changes := s.collectChanges(application, payload)
	if len(changes) == 0 {
		if payloadIsEmpty(payload) {
			return dto.ApplicationResponse{}, ErrNoEditableFields
		}
		// Everything matched the stored values; nothing to persist or audit.
		return s.withAuditCount(ctx, application), nil
	}

	// Authorization is all-or-nothing per operation: one forbidden field
	// fails the whole edit before anything is written.
	for _, change := range changes {
		if !canEditField(change.field, actor, application.SubmitterID) {
			return dto.ApplicationResponse{}, ErrNotAuthorized
		}
	}

	columns := make(map[string]interface{}, len(changes))
	for _, change := range changes {
		columns[change.column] = change.value
	}

	if err := s.applications.UpdateFields(ctx, id, columns); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, ErrApplicationNotFound
		}
		return dto.ApplicationResponse{}, err
	}

	for _, change := range changes {
		s.recordBestEffort(ctx, AuditEntry{
			ApplicationID: id,
			ActorID:       actor.ID,
			Action:        models.AuditActionUpdated,
			FieldName:     stringPtr(change.field),
			OldValue:      stringPtr(change.oldValue),
			NewValue:      stringPtr(change.newValue),
		})
	}

	updated, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return dto.ApplicationResponse{}, err
	}

	s.logger.Info().
		Uint("application_id", id).
		Int("changed_fields", len(changes)).
		Msg("application updated")

	return s.withAuditCount(ctx, updated), nil
}

func (s *applicationService) Delete(ctx context.Context, id uint, actor Actor) error {
	application, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if !actor.IsAdmin() && !application.IsOwnedBy(actor.ID) {
		return ErrNotAuthorized
	}

	if err := s.applications.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrApplicationNotFound
		}
		return err
	}

	s.logger.Info().Uint("application_id", id).Msg("application deleted")

	return nil
}

func (s *applicationService) RecomputeScore(ctx context.Context, id uint, actor Actor) (dto.ApplicationResponse, dto.RiskAnalysisResponse, error) {
	application, err := s.load(ctx, id)
	if err != nil {
		return dto.ApplicationResponse{}, dto.RiskAnalysisResponse{}, err
	}

	if !actor.IsAdmin() && !application.IsOwnedBy(actor.ID) {
		return dto.ApplicationResponse{}, dto.RiskAnalysisResponse{}, ErrNotAuthorized
	}

	complexity := risk.Complexity(application.TechnicalDesc)
	factors := risk.Factors{
		Cost:                application.Cost,
		Duration:            application.Duration,
		ProjectType:         application.ProjectType,
		TechnicalComplexity: complexity,
	}

	oldScore := application.RiskScore
	newScore := risk.Score(factors)
	observability.ObserveRiskScore(newScore)

	if err := s.applications.UpdateFields(ctx, id, map[string]interface{}{"risk_score": newScore}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, dto.RiskAnalysisResponse{}, ErrApplicationNotFound
		}
		return dto.ApplicationResponse{}, dto.RiskAnalysisResponse{}, err
	}

	s.recordBestEffort(ctx, AuditEntry{
		ApplicationID: id,
		ActorID:       actor.ID,
		Action:        models.AuditActionUpdated,
		FieldName:     stringPtr("riskScore"),
		OldValue:      stringPtr(strconv.Itoa(oldScore)),
		NewValue:      stringPtr(strconv.Itoa(newScore)),
		Metadata: map[string]interface{}{
			"cost":                 factors.Cost,
			"duration":             factors.Duration,
			"project_type":         factors.ProjectType,
			"technical_complexity": factors.TechnicalComplexity,
		},
	})

	updated, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return dto.ApplicationResponse{}, dto.RiskAnalysisResponse{}, err
	}

	analysis := dto.RiskAnalysisResponse{
		OldScore: &oldScore,
		Score:    newScore,
		Level:    risk.Level(newScore),
		Factors: dto.RiskFactors{
			Cost:                factors.Cost,
			Duration:            factors.Duration,
			ProjectType:         factors.ProjectType,
			TechnicalComplexity: complexity,
		},
	}

	s.logger.Info().
		Uint("application_id", id).
		Int("old_score", oldScore).
		Int("new_score", newScore).
		Msg("risk score recomputed")

	return s.withAuditCount(ctx, updated), analysis, nil
}

func (s *applicationService) RiskAnalysis(ctx context.Context, id uint, actor Actor) (dto.RiskAnalysisResponse, error) {
	application, err := s.load(ctx, id)
	if err != nil {
		return dto.RiskAnalysisResponse{}, err
	}

	if !actor.IsAdmin() && !application.IsOwnedBy(actor.ID) {
		return dto.RiskAnalysisResponse{}, ErrNotAuthorized
	}

	complexity := risk.Complexity(application.TechnicalDesc)

	return dto.RiskAnalysisResponse{
		Score: application.RiskScore,
		Level: risk.Level(application.RiskScore),
		Factors: dto.RiskFactors{
			Cost:                application.Cost,
			Duration:            application.Duration,
			ProjectType:         application.ProjectType,
			TechnicalComplexity: complexity,
		},
	}, nil
}

func (s *applicationService) AttachDocument(ctx context.Context, id uint, actor Actor, file *multipart.FileHeader) (dto.ApplicationResponse, error) {
	if file == nil {
		return dto.ApplicationResponse{}, fmt.Errorf("document file is required")
	}
	if s.uploader == nil {
		return dto.ApplicationResponse{}, fmt.Errorf("document storage is not configured")
	}

	application, err := s.load(ctx, id)
	if err != nil {
		return dto.ApplicationResponse{}, err
	}

	if !actor.IsAdmin() && !application.IsOwnedBy(actor.ID) {
		return dto.ApplicationResponse{}, ErrNotAuthorized
	}

	if err := validateDocumentType(file); err != nil {
		return dto.ApplicationResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("failed to upload document: %w", err)
	}

	oldLink := ""
	if application.DocumentLink != nil {
		oldLink = *application.DocumentLink
	}

	if err := s.applications.UpdateFields(ctx, id, map[string]interface{}{"document_link": url}); err != nil {
		return dto.ApplicationResponse{}, err
	}

	s.recordBestEffort(ctx, AuditEntry{
		ApplicationID: id,
		ActorID:       actor.ID,
		Action:        models.AuditActionUpdated,
		FieldName:     stringPtr("documentLink"),
		OldValue:      stringPtr(oldLink),
		NewValue:      stringPtr(url),
	})

	updated, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return dto.ApplicationResponse{}, err
	}

	s.logger.Info().Uint("application_id", id).Msg("proposal document attached")

	return s.withAuditCount(ctx, updated), nil
}

func (s *applicationService) load(ctx context.Context, id uint) (models.Application, error) {
	application, err := s.applications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Application{}, ErrApplicationNotFound
		}
		return models.Application{}, err
	}
	return application, nil
}

// recordBestEffort appends an audit entry without failing the caller. The
// primary mutation has already committed; a lost entry is logged, never
// rolled back.
func (s *applicationService) recordBestEffort(ctx context.Context, entry AuditEntry) {
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

func (s *applicationService) withAuditCount(ctx context.Context, application models.Application) dto.ApplicationResponse {
	response := dto.NewApplicationResponse(application)
	if s.auditLogs != nil {
		if total, err := s.auditLogs.CountByApplication(ctx, application.ID); err == nil {
			response.AuditEntries = total
		}
	}
	return response
}

func (s *applicationService) collectChanges(application models.Application, payload dto.ApplicationUpdateRequest) []fieldChange {
	changes := make([]fieldChange, 0, 7)

	if payload.Title != nil {
		title := strings.TrimSpace(s.policy.Sanitize(*payload.Title))
		if title != application.Title {
			changes = append(changes, fieldChange{"title", "title", application.Title, title, title})
		}
	}
	if payload.Description != nil {
		description := strings.TrimSpace(s.policy.Sanitize(*payload.Description))
		if description != application.Description {
			changes = append(changes, fieldChange{"description", "description", application.Description, description, description})
		}
	}
	if payload.TechnicalDesc != nil {
		technicalDesc := strings.TrimSpace(s.policy.Sanitize(*payload.TechnicalDesc))
		if technicalDesc != application.TechnicalDesc {
			changes = append(changes, fieldChange{"technicalDesc", "technical_desc", application.TechnicalDesc, technicalDesc, technicalDesc})
		}
	}
	if payload.ProjectType != nil && *payload.ProjectType != application.ProjectType {
		changes = append(changes, fieldChange{"projectType", "project_type", application.ProjectType, *payload.ProjectType, *payload.ProjectType})
	}
	if payload.Duration != nil && *payload.Duration != application.Duration {
		changes = append(changes, fieldChange{
			"duration", "duration",
			strconv.Itoa(application.Duration), strconv.Itoa(*payload.Duration), *payload.Duration,
		})
	}
	if payload.Cost != nil && *payload.Cost != application.Cost {
		changes = append(changes, fieldChange{
			"cost", "cost",
			formatFloat(application.Cost), formatFloat(*payload.Cost), *payload.Cost,
		})
	}
	if payload.DocumentLink != nil {
		oldLink := ""
		if application.DocumentLink != nil {
			oldLink = *application.DocumentLink
		}
		if *payload.DocumentLink != oldLink {
			changes = append(changes, fieldChange{"documentLink", "document_link", oldLink, *payload.DocumentLink, *payload.DocumentLink})
		}
	}

	return changes
}

func payloadIsEmpty(payload dto.ApplicationUpdateRequest) bool {
	return payload.Title == nil &&
		payload.Description == nil &&
		payload.TechnicalDesc == nil &&
		payload.ProjectType == nil &&
		payload.Duration == nil &&
		payload.Cost == nil &&
		payload.DocumentLink == nil
}

func validateDocumentType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/pdf", "application/zip", "application/x-zip-compressed", "text/plain"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("unsupported file type: %s", mime.String())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
