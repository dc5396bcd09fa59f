package entity

import "time"

// Document is a single unit of crawled content handed over by the
// fetch/extraction stage. Content is already plain text (HTML stripped) and is
// immutable once fetched; the pipeline only attaches derived state to it.
type Document struct {
	ID             string
	URL            string
	Content        string
	FetchedAt      time.Time
	SourcePriority float64 // per-domain trust weight in [0,1], supplied by the caller
}

// EnrichmentResult is the structured metadata produced by the external
// enrichment capability for a single document.
type EnrichmentResult struct {
	Category string   `json:"category"`
	Keywords []string `json:"keywords"`
	Entities []string `json:"entities"`
	Summary  string   `json:"summary,omitempty"`
}
