// Package selector is the decision core: it combines value scores, the active
// priority mode, and ledger state into a final disposition per document, and
// drives the enrichment call for accepted candidates.
package selector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/budget"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/cache"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/enrich"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/repository"
)

// Selector processes accepted candidates: cache consult, budget reservation,
// enrichment call, semantic dedupe registration.
type Selector struct {
	cache     repository.ResponseCache
	ledger    *budget.Ledger
	enricher  enrich.Enricher
	estimator CostEstimator
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func New(
	respCache repository.ResponseCache,
	ledger *budget.Ledger,
	enricher enrich.Enricher,
	estimator CostEstimator,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *Selector {
	if cacheTTL <= 0 {
		cacheTTL = cache.DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{
		cache:     respCache,
		ledger:    ledger,
		enricher:  enricher,
		estimator: estimator,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Process decides an accepted candidate. The returned error is non-nil only
// for invariant violations (ledger corruption), which are fatal to the run;
// every document-local failure is absorbed into the decision.
func (s *Selector) Process(ctx context.Context, doc entity.Document, fp entity.Fingerprint, run *RunState) (entity.Decision, error) {
	if ctx.Err() != nil {
		return entity.Decision{DocumentID: doc.ID, Outcome: entity.OutcomeSkippedCancelled}, nil
	}

	// Cache first: a hit bypasses the ledger and the call entirely.
	if res, hit, err := s.cache.Get(ctx, fp); err != nil {
		s.logger.Warn("response cache lookup failed", zap.String("doc_id", doc.ID), zap.Error(err))
	} else if hit {
		return entity.Decision{
			DocumentID: doc.ID,
			Outcome:    entity.OutcomeCached,
			CacheHit:   true,
			Result:     res,
		}, nil
	}

	cost := s.estimator.Estimate(doc)
	reservation, err := s.ledger.TryReserve(cost)
	if err != nil {
		return entity.Decision{}, err
	}
	if !reservation.Granted {
		return entity.Decision{DocumentID: doc.ID, Outcome: entity.OutcomeSkippedBudget}, nil
	}

	// The call happens outside any lock; the reservation is already booked
	// and is sunk from here on, matching real API billing.
	res, err := s.enricher.Enrich(ctx, doc.Content)
	if err != nil {
		s.logger.Warn("enrichment failed",
			zap.String("doc_id", doc.ID),
			zap.Float64("cost_sunk", cost),
			zap.Error(err))
		return entity.Decision{
			DocumentID:  doc.ID,
			Outcome:     entity.OutcomeEnrichmentFailed,
			CostCharged: cost,
			FailReason:  err.Error(),
		}, nil
	}

	if putErr := s.cache.Put(ctx, fp, res, s.cacheTTL); putErr != nil {
		s.logger.Warn("response cache store failed", zap.String("doc_id", doc.ID), zap.Error(putErr))
	}

	if canonicalID, dup := run.Admit(doc.ID, res, cost); dup {
		// Paraphrased duplicate surfaced only after paying for the call.
		// The spend stays charged and is reported, not hidden.
		return entity.Decision{
			DocumentID:  doc.ID,
			Outcome:     entity.OutcomeDuplicate,
			CanonicalID: canonicalID,
			CostCharged: cost,
		}, nil
	}

	return entity.Decision{
		DocumentID:  doc.ID,
		Outcome:     entity.OutcomeEnriched,
		CostCharged: cost,
		Result:      res,
	}, nil
}
