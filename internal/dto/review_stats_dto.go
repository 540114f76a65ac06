package dto

// ReviewStatsResponse summarizes the review queue for administrators.
type ReviewStatsResponse struct {
	TotalApplications int64            `json:"total_applications"`
	ByStatus          map[string]int64 `json:"by_status"`
	ByRiskLevel       map[string]int64 `json:"by_risk_level"`
	AverageRiskScore  float64          `json:"average_risk_score"`
	OldestPendingAge  *float64         `json:"oldest_pending_age_seconds,omitempty"`
	CacheHit          bool             `json:"cache_hit"`
}
