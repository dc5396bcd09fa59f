package repository

import (
	"context"
	"time"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

// ResponseCache memoizes enrichment results by content fingerprint. A hit
// bypasses both the budget ledger and the enrichment call. Entries expire
// after their TTL; expiry is checked lazily on lookup. Concurrent writes for
// the same fingerprint are idempotent (last writer wins).
type ResponseCache interface {
	Get(ctx context.Context, fp entity.Fingerprint) (*entity.EnrichmentResult, bool, error)
	Put(ctx context.Context, fp entity.Fingerprint, res *entity.EnrichmentResult, ttl time.Duration) error
}
