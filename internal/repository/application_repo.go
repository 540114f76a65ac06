package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/projectdesk/review-api/internal/models"
)

// ApplicationFilter narrows application listing queries.
type ApplicationFilter struct {
	SubmitterID *uint
	Status      *string
	ProjectType *string
	MinScore    *int
	MaxScore    *int
	Search      string
	Page        int
	PageSize    int
}

// ApplicationRepository defines data operations for project applications.
type ApplicationRepository interface {
	List(ctx context.Context, filter ApplicationFilter) ([]models.Application, int64, error)
	GetByID(ctx context.Context, id uint) (models.Application, error)
	Create(ctx context.Context, application *models.Application) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository instantiates the repository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Application{}).Preload("Submitter")
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]models.Application, int64, error) {
	query := r.baseQuery(ctx)

	if filter.SubmitterID != nil {
		query = query.Where("submitter_id = ?", *filter.SubmitterID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.ProjectType != nil {
		query = query.Where("project_type = ?", *filter.ProjectType)
	}

	if filter.MinScore != nil {
		query = query.Where("risk_score >= ?", *filter.MinScore)
	}

	if filter.MaxScore != nil {
		query = query.Where("risk_score <= ?", *filter.MaxScore)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			r.db.Where("LOWER(title) LIKE ?", pattern).
				Or("LOWER(description) LIKE ?", pattern).
				Or("LOWER(technical_desc) LIKE ?", pattern),
		)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var applications []models.Application
	if err := query.Order("created_at DESC").Find(&applications).Error; err != nil {
		return nil, 0, err
	}

	return applications, total, nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (models.Application, error) {
	var application models.Application
	if err := r.baseQuery(ctx).First(&application, id).Error; err != nil {
		return models.Application{}, err
	}

	return application, nil
}

func (r *applicationRepository) Create(ctx context.Context, application *models.Application) error {
	return r.db.WithContext(ctx).Create(application).Error
}

// UpdateFields applies a partial update to the identified application. Only
// the listed columns change, which keeps concurrent transitions from
// clobbering fields they never read.
func (r *applicationRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Application{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *applicationRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Application{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
