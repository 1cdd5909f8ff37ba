package models

import "time"

// DashboardSummary aggregates headline counts for the admin dashboard.
type DashboardSummary struct {
	Students          int            `json:"students"`
	Teachers          int            `json:"teachers"`
	Subjects          int            `json:"subjects"`
	GradeLevels       int            `json:"grade_levels"`
	ScoresEntered     int            `json:"scores_entered"`
	CurrentPeriod     *CurrentPeriod `json:"current_period,omitempty"`
	GradeDistribution map[string]int `json:"grade_distribution,omitempty"`
}

// SystemMetrics is a lightweight snapshot for the metrics endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"avg_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
