package models

import "time"

// SystemMetrics is an aggregated runtime snapshot served by the stats API.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	RoomConflictsTotal       uint64    `json:"room_conflicts_total"`
	ValidationsTotal         uint64    `json:"validations_total"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
