package request

import "time"

// DocumentPayload is one crawled document submitted for processing. Content
// is expected to be extracted text already. SourcePriority is optional; when
// absent the per-domain weight from configuration applies.
type DocumentPayload struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	Content        string    `json:"content"`
	FetchedAt      time.Time `json:"fetched_at"`
	SourcePriority *float64  `json:"source_priority,omitempty"`
}

// RunBatchRequest is the payload for a pipeline run.
type RunBatchRequest struct {
	Documents []DocumentPayload `json:"documents"`
}

// SetLimitRequest updates the daily budget ceiling.
type SetLimitRequest struct {
	DailyLimit float64 `json:"daily_limit"`
}

// SetModeRequest switches the active priority mode.
type SetModeRequest struct {
	Mode string `json:"mode"`
}
