package selector

import "github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"

// CostEstimator prices an enrichment call before it is made. The estimate is
// what gets reserved against the budget; real API billing confirms after the
// call, and a failed attempt's reservation is sunk.
type CostEstimator struct {
	PerCall      float64 // flat component per call, in dollars
	PerKiloChars float64 // proportional component per 1000 content chars
}

// Estimate returns the projected cost of enriching doc.
func (e CostEstimator) Estimate(doc entity.Document) float64 {
	return e.PerCall + e.PerKiloChars*float64(len(doc.Content))/1000
}
