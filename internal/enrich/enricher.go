// Package enrich wraps the external LLM enrichment capability. The pipeline
// treats it as a black box with known latency and per-call cost.
package enrich

import (
	"context"
	"errors"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

var (
	// ErrUnavailable covers transient provider failures: timeouts, 5xx,
	// transport errors. Retried once, then the document degrades to
	// ENRICHMENT_FAILED.
	ErrUnavailable = errors.New("enrichment provider unavailable")
	// ErrMalformed covers unparseable provider responses. Treated identically
	// to a transient failure.
	ErrMalformed = errors.New("malformed enrichment response")
)

// Enricher produces structured metadata for document content.
type Enricher interface {
	Enrich(ctx context.Context, content string) (*entity.EnrichmentResult, error)
}

// Func adapts a plain function to the Enricher interface.
type Func func(ctx context.Context, content string) (*entity.EnrichmentResult, error)

func (f Func) Enrich(ctx context.Context, content string) (*entity.EnrichmentResult, error) {
	return f(ctx, content)
}
