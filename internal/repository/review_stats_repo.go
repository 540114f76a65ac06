package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/projectdesk/review-api/internal/models"
)

// ReviewStatsRepository supplies the raw figures behind the admin summary.
type ReviewStatsRepository interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
	ListRiskScores(ctx context.Context) ([]int, error)
	OldestPendingCreatedAt(ctx context.Context) (*time.Time, error)
}

type reviewStatsRepository struct {
	db *gorm.DB
}

// NewReviewStatsRepository constructs the stats repository.
func NewReviewStatsRepository(db *gorm.DB) ReviewStatsRepository {
	return &reviewStatsRepository{db: db}
}

func (r *reviewStatsRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Total  int64
	}

	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Application{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, item := range rows {
		counts[item.Status] = item.Total
	}

	return counts, nil
}

func (r *reviewStatsRepository) ListRiskScores(ctx context.Context) ([]int, error) {
	var scores []int
	err := r.db.WithContext(ctx).Model(&models.Application{}).
		Pluck("risk_score", &scores).Error
	if err != nil {
		return nil, err
	}

	return scores, nil
}

func (r *reviewStatsRepository) OldestPendingCreatedAt(ctx context.Context) (*time.Time, error) {
	var application models.Application
	err := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("status = ?", models.StatusPending).
		Order("created_at ASC").
		First(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	createdAt := application.CreatedAt
	return &createdAt, nil
}
