// Package pipeline drives a batch of documents through dedupe, scoring,
// selection, and enrichment, and aggregates run statistics.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/assess"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/dedupe"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/fingerprint"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/monitoring"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/selector"
)

const defaultFanout = 4

// Coordinator owns a batch run end to end. Dedupe and scoring happen in
// document order; enrichment calls fan out to a bounded worker pool.
type Coordinator struct {
	index             *dedupe.Index
	assessor          *assess.Assessor
	selector          *selector.Selector
	semanticThreshold float64
	fanout            int
	metrics           *monitoring.Metrics
	logger            *zap.Logger

	mu      sync.Mutex
	mode    selector.Mode
	lastRun *entity.Stats
}

func NewCoordinator(
	index *dedupe.Index,
	assessor *assess.Assessor,
	sel *selector.Selector,
	mode selector.Mode,
	semanticThreshold float64,
	fanout int,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Coordinator {
	if fanout <= 0 {
		fanout = defaultFanout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		index:             index,
		assessor:          assessor,
		selector:          sel,
		semanticThreshold: semanticThreshold,
		fanout:            fanout,
		metrics:           metrics,
		logger:            logger,
		mode:              mode,
	}
}

// SetMode switches the active priority mode for subsequent runs.
func (c *Coordinator) SetMode(m selector.Mode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

// Mode returns the active priority mode.
func (c *Coordinator) Mode() selector.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// LastRun returns the stats of the most recent completed run, or nil.
func (c *Coordinator) LastRun() *entity.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRun
}

type candidate struct {
	idx int
	doc entity.Document
	fp  entity.Fingerprint
}

// Run processes a batch and returns one decision per input document, in input
// order, plus aggregated stats. Document-local failures never abort the
// batch; the returned error is non-nil only for invariant violations, which
// invalidate the whole run's accounting.
func (c *Coordinator) Run(ctx context.Context, batch []entity.Document) ([]entity.Decision, *entity.Stats, error) {
	started := time.Now()
	mode := c.Mode()
	runID := ulid.Make().String()
	c.logger.Info("pipeline run started",
		zap.String("run_id", runID),
		zap.String("mode", mode.Name),
		zap.Int("documents", len(batch)))

	decisions := make([]entity.Decision, len(batch))

	// Stage 1, in document order: fingerprint and dedupe. Duplicates are
	// decided here and never scored, billed, or sent to the LLM.
	var (
		survivors []candidate
		scores    []entity.ValueScore
	)
	for i, doc := range batch {
		fp := fingerprint.Compute(doc.Content)
		res := c.index.Resolve(ctx, fp, doc.ID)
		if res.IsDuplicate {
			decisions[i] = entity.Decision{
				DocumentID:  doc.ID,
				Outcome:     entity.OutcomeDuplicate,
				CanonicalID: res.CanonicalID,
			}
			continue
		}
		survivors = append(survivors, candidate{idx: i, doc: doc, fp: fp})
		scores = append(scores, c.assessor.Score(doc))
	}

	// Stage 2: batch-relative rank-and-cut over the non-duplicates.
	accepted := selector.Plan(scores, mode)
	var queue []candidate
	for _, cand := range survivors {
		if accepted[cand.doc.ID] {
			queue = append(queue, cand)
			continue
		}
		decisions[cand.idx] = entity.Decision{
			DocumentID: cand.doc.ID,
			Outcome:    entity.OutcomeSkippedLowValue,
		}
	}

	// Stage 3: enrichment calls fan out, bounded by the worker pool.
	if err := c.enrichAll(ctx, queue, decisions); err != nil {
		return nil, nil, err
	}

	stats := c.aggregate(runID, started, batch, decisions)
	c.mu.Lock()
	c.lastRun = stats
	c.mu.Unlock()

	c.logger.Info("pipeline run completed",
		zap.String("run_id", runID),
		zap.Int("enriched", stats.Outcomes[entity.OutcomeEnriched]),
		zap.Int("duplicates", stats.Outcomes[entity.OutcomeDuplicate]),
		zap.Float64("total_cost", stats.TotalCost),
		zap.Duration("duration", stats.Duration))
	return decisions, stats, nil
}

// enrichAll runs the selector over accepted candidates with bounded fanout.
// Cancellation stops dispatching; candidates never dispatched are decided as
// SKIPPED_CANCELLED rather than left undecided.
func (c *Coordinator) enrichAll(ctx context.Context, queue []candidate, decisions []entity.Decision) error {
	if len(queue) == 0 {
		return nil
	}

	run := selector.NewRunState(c.semanticThreshold)
	tasks := make(chan candidate)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		fatalErr error
	)

	workers := c.fanout
	if workers > len(queue) {
		workers = len(queue)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				dec, err := c.selector.Process(ctx, t.doc, t.fp, run)
				if err != nil {
					mu.Lock()
					if fatalErr == nil {
						fatalErr = err
					}
					mu.Unlock()
					dec = entity.Decision{DocumentID: t.doc.ID, Outcome: entity.OutcomeSkippedCancelled}
				}
				decisions[t.idx] = dec
			}
		}()
	}

dispatch:
	for i, t := range queue {
		select {
		case <-ctx.Done():
			for _, rest := range queue[i:] {
				decisions[rest.idx] = entity.Decision{
					DocumentID: rest.doc.ID,
					Outcome:    entity.OutcomeSkippedCancelled,
				}
			}
			break dispatch
		case tasks <- t:
		}
	}
	close(tasks)
	wg.Wait()

	if fatalErr != nil {
		c.logger.Error("run aborted on invariant violation", zap.Error(fatalErr))
		return fatalErr
	}

	wasted, lateDupes := run.WastedSpend()
	if lateDupes > 0 {
		c.logger.Info("late-detected semantic duplicates",
			zap.Int("count", lateDupes),
			zap.Float64("wasted_spend", wasted))
	}
	return nil
}

func (c *Coordinator) aggregate(runID string, started time.Time, batch []entity.Document, decisions []entity.Decision) *entity.Stats {
	stats := &entity.Stats{
		RunID:     runID,
		Documents: len(batch),
		Outcomes:  make(map[entity.Outcome]int),
		StartedAt: started,
	}

	var wasted float64
	for _, dec := range decisions {
		stats.Outcomes[dec.Outcome]++
		stats.TotalCost += dec.CostCharged
		if dec.CacheHit {
			stats.CacheHits++
		}
		switch dec.Outcome {
		case entity.OutcomeCached:
			stats.CacheLookups++
		case entity.OutcomeEnriched, entity.OutcomeEnrichmentFailed, entity.OutcomeSkippedBudget:
			stats.CacheLookups++
		case entity.OutcomeDuplicate:
			if dec.CostCharged > 0 {
				// Semantic duplicate detected after the call was paid for.
				wasted += dec.CostCharged
				stats.CacheLookups++
			}
		}
		c.metrics.ObserveDecision(string(dec.Outcome), dec.CostCharged)
	}
	stats.WastedSpend = wasted
	if stats.CacheLookups > 0 {
		stats.CacheHitRate = float64(stats.CacheHits) / float64(stats.CacheLookups)
	}
	stats.Duration = time.Since(started)

	c.metrics.ObserveRun(stats.Documents, wasted)
	return stats
}
