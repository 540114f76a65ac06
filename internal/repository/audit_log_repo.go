package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/projectdesk/review-api/internal/models"
)

// AuditLogRepository persists the append-only audit trail. There is
// deliberately no update or delete operation.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByApplication(ctx context.Context, applicationID uint) ([]models.AuditLog, error)
	CountByApplication(ctx context.Context, applicationID uint) (int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository constructs the audit log repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByApplication returns the full history for one application, newest
// first. IDs break ties so that entries written in the same instant keep
// their insertion order.
func (r *auditLogRepository) ListByApplication(ctx context.Context, applicationID uint) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.WithContext(ctx).Model(&models.AuditLog{}).
		Preload("Actor").
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *auditLogRepository) CountByApplication(ctx context.Context, applicationID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("application_id = ?", applicationID).
		Count(&total).Error
	return total, err
}
