package entity

import "time"

// Stats aggregates a completed pipeline run. Every input document lands in
// exactly one outcome bucket, so the bucket counts always sum to Documents.
type Stats struct {
	RunID     string          `json:"run_id"`
	Documents int             `json:"documents"`
	Outcomes  map[Outcome]int `json:"outcomes"`

	TotalCost float64 `json:"total_cost"`
	// WastedSpend is money charged for enrichments later reclassified as
	// semantic duplicates. Sunk by policy, surfaced rather than hidden.
	WastedSpend float64 `json:"wasted_spend"`

	CacheHits    int     `json:"cache_hits"`
	CacheLookups int     `json:"cache_lookups"`
	CacheHitRate float64 `json:"cache_hit_rate"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}
