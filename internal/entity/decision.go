package entity

// Outcome is the terminal disposition of a document within a run. Exactly one
// is produced per input document and it is never revised afterwards.
type Outcome string

const (
	OutcomeDuplicate        Outcome = "DUPLICATE"
	OutcomeCached           Outcome = "CACHED"
	OutcomeEnriched         Outcome = "ENRICHED"
	OutcomeSkippedBudget    Outcome = "SKIPPED_BUDGET"
	OutcomeSkippedLowValue  Outcome = "SKIPPED_LOW_VALUE"
	OutcomeEnrichmentFailed Outcome = "ENRICHMENT_FAILED"
	OutcomeSkippedCancelled Outcome = "SKIPPED_CANCELLED"
)

// Decision is the per-document result handed to downstream consumers.
type Decision struct {
	DocumentID  string
	Outcome     Outcome
	CanonicalID string // set when Outcome is DUPLICATE
	CostCharged float64
	CacheHit    bool
	FailReason  string            // set when Outcome is ENRICHMENT_FAILED
	Result      *EnrichmentResult // set when Outcome is ENRICHED or CACHED
}

// ValueScore is the deterministic enrichment-worthiness score of a
// non-duplicate document, with the contributing heuristics recorded in order
// for auditability.
type ValueScore struct {
	DocumentID string
	Score      float64 // in [0,1]
	Reasons    []string
}
