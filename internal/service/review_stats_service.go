package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/projectdesk/review-api/internal/dto"
	"github.com/projectdesk/review-api/internal/repository"
	"github.com/projectdesk/review-api/internal/risk"
)

const statsCacheKey = "review:stats:v1"

// ReviewStatsService produces the cached administrator summary of the
// review queue.
type ReviewStatsService interface {
	GetSummary(ctx context.Context) (dto.ReviewStatsResponse, error)
}

type reviewStatsService struct {
	repo   repository.ReviewStatsRepository
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewReviewStatsService constructs the stats service. A nil cache client
// disables caching without changing behaviour.
func NewReviewStatsService(repo repository.ReviewStatsRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ReviewStatsService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &reviewStatsService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "review_stats_service").Logger(),
		now:    time.Now,
	}
}

func (s *reviewStatsService) GetSummary(ctx context.Context) (dto.ReviewStatsResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, statsCacheKey).Result(); err == nil && cached != "" {
			var response dto.ReviewStatsResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				return response, nil
			}
		}
	}

	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return dto.ReviewStatsResponse{}, err
	}

	scores, err := s.repo.ListRiskScores(ctx)
	if err != nil {
		return dto.ReviewStatsResponse{}, err
	}

	byLevel := map[string]int64{
		risk.LevelLow:      0,
		risk.LevelMedium:   0,
		risk.LevelHigh:     0,
		risk.LevelCritical: 0,
	}
	sum := 0
	for _, score := range scores {
		byLevel[risk.Level(score).Level]++
		sum += score
	}

	response := dto.ReviewStatsResponse{
		TotalApplications: int64(len(scores)),
		ByStatus:          byStatus,
		ByRiskLevel:       byLevel,
	}
	if len(scores) > 0 {
		response.AverageRiskScore = float64(sum) / float64(len(scores))
	}

	oldest, err := s.repo.OldestPendingCreatedAt(ctx)
	if err != nil {
		return dto.ReviewStatsResponse{}, err
	}
	if oldest != nil {
		age := s.now().Sub(*oldest).Seconds()
		response.OldestPendingAge = &age
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache review stats")
			}
		}
	}

	return response, nil
}
