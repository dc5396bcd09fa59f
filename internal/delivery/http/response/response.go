package response

import (
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

// DecisionResponse is a DTO for a per-document decision, mirroring
// entity.Decision.
type DecisionResponse struct {
	DocumentID  string                   `json:"document_id"`
	Outcome     string                   `json:"outcome"`
	CanonicalID string                   `json:"canonical_id,omitempty"`
	CostCharged float64                  `json:"cost_charged"`
	CacheHit    bool                     `json:"cache_hit"`
	FailReason  string                   `json:"fail_reason,omitempty"`
	Result      *entity.EnrichmentResult `json:"result,omitempty"`
}

// RunBatchResponse is the full result of a pipeline run.
type RunBatchResponse struct {
	RunID     string             `json:"run_id"`
	Decisions []DecisionResponse `json:"decisions"`
	Stats     *entity.Stats      `json:"stats"`
}

// ModeResponse reports the active priority mode.
type ModeResponse struct {
	Mode           string  `json:"mode"`
	TargetFraction float64 `json:"target_fraction"`
	ScoreFloor     float64 `json:"score_floor"`
}

// FromDecision maps an entity decision to its DTO.
func FromDecision(d entity.Decision) DecisionResponse {
	return DecisionResponse{
		DocumentID:  d.DocumentID,
		Outcome:     string(d.Outcome),
		CanonicalID: d.CanonicalID,
		CostCharged: d.CostCharged,
		CacheHit:    d.CacheHit,
		FailReason:  d.FailReason,
		Result:      d.Result,
	}
}
