package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/assess"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/budget"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/cache"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/dedupe"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/enrich"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/fingerprint"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/selector"
)

// uniqueDoc builds a document whose content differs enough from its siblings
// that neither exact nor simhash dedupe collapses them.
func uniqueDoc(id string, n int) entity.Document {
	var b strings.Builder
	fmt.Fprintf(&b, "Report number %d on topic %d\n\n", n, n)
	for p := 0; p < 4; p++ {
		fmt.Fprintf(&b, "Paragraph %d of report %d covers subject area %d-%d with detailed and distinct findings about matter %d. ", p, n, n, p, n*100+p)
		fmt.Fprintf(&b, "Additional sentences describe the regional development case %d in depth, referencing project %d and initiative %d. ", n*7+p, n*13+p, n*17+p)
		b.WriteString("\n\n")
	}
	return entity.Document{
		ID:             id,
		URL:            fmt.Sprintf("https://news.example.com/report/%d", n),
		Content:        b.String(),
		FetchedAt:      time.Now().Add(-time.Hour),
		SourcePriority: 0.9,
	}
}

func okEnricher(n int) *entity.EnrichmentResult {
	return &entity.EnrichmentResult{
		Category: fmt.Sprintf("category-%d", n),
		Keywords: []string{fmt.Sprintf("kw-%d-a", n), fmt.Sprintf("kw-%d-b", n), fmt.Sprintf("kw-%d-c", n)},
		Summary:  fmt.Sprintf("Distinct summary %d about subject %d and project %d.", n, n*3, n*5),
	}
}

type testRig struct {
	coord  *Coordinator
	ledger *budget.Ledger
	cache  *cache.Memory
}

func newRig(t *testing.T, dailyLimit, perCall float64, mode selector.Mode, enricher enrich.Enricher) *testRig {
	t.Helper()
	mem, err := cache.NewMemory(128)
	if err != nil {
		t.Fatal(err)
	}
	ledger := budget.NewLedger(dailyLimit, 0.8, nil, nil)
	sel := selector.New(mem, ledger, enricher,
		selector.CostEstimator{PerCall: perCall}, time.Hour, nil)
	coord := NewCoordinator(
		dedupe.NewIndex(dedupe.DefaultHammingThreshold, nil, nil),
		assess.NewAssessor(0, 0),
		sel, mode, selector.DefaultSemanticThreshold, 4, nil, nil)
	return &testRig{coord: coord, ledger: ledger, cache: mem}
}

func countingEnricher(calls *int64) enrich.Enricher {
	return enrich.Func(func(ctx context.Context, content string) (*entity.EnrichmentResult, error) {
		n := int(atomic.AddInt64(calls, 1))
		return okEnricher(n), nil
	})
}

func TestRunBalancedBatchWithDuplicatePairs(t *testing.T) {
	var calls int64
	rig := newRig(t, 1.00, 0.10, selector.ModeBalanced, countingEnricher(&calls))

	// 10 documents: 8 unique plus one byte-identical twin each for docs 0 and 1.
	var batch []entity.Document
	for i := 0; i < 8; i++ {
		batch = append(batch, uniqueDoc(fmt.Sprintf("doc-%d", i), i))
	}
	twinA := batch[0]
	twinA.ID = "twin-a"
	twinB := batch[1]
	twinB.ID = "twin-b"
	batch = append(batch, twinA, twinB)

	decisions, stats, err := rig.coord.Run(context.Background(), batch)
	if err != nil {
		t.Fatal(err)
	}
	if len(decisions) != 10 {
		t.Fatalf("got %d decisions for 10 documents", len(decisions))
	}

	if got := stats.Outcomes[entity.OutcomeDuplicate]; got != 2 {
		t.Fatalf("duplicates = %d, want 2", got)
	}
	enriched := stats.Outcomes[entity.OutcomeEnriched]
	if enriched == 0 || enriched > 3 {
		t.Fatalf("enriched = %d, want 1..3 (ceil(0.3*8)=3 slots)", enriched)
	}
	if got := stats.Outcomes[entity.OutcomeSkippedLowValue]; got != 8-enriched {
		t.Fatalf("skipped low value = %d, want %d", got, 8-enriched)
	}

	wantSpend := 0.10 * float64(enriched)
	if st := rig.ledger.Report(); math.Abs(st.SpentToday-wantSpend) > 1e-9 {
		t.Fatalf("spent = %.4f, want %.4f", st.SpentToday, wantSpend)
	}
	if math.Abs(stats.TotalCost-wantSpend) > 1e-9 {
		t.Fatalf("stats total cost = %.4f, want %.4f", stats.TotalCost, wantSpend)
	}

	// The duplicate twins must point at their canonical originals.
	for _, dec := range decisions {
		if dec.DocumentID == "twin-a" {
			if dec.Outcome != entity.OutcomeDuplicate || dec.CanonicalID != "doc-0" {
				t.Fatalf("twin-a decision %+v", dec)
			}
			if dec.CostCharged != 0 {
				t.Fatal("hash duplicate must never be billed")
			}
		}
	}
}

func TestRunBudgetExhaustion(t *testing.T) {
	var calls int64
	rig := newRig(t, 0.05, 0.10, selector.ModeHigh, countingEnricher(&calls))

	batch := []entity.Document{uniqueDoc("doc-0", 0)}
	decisions, stats, err := rig.coord.Run(context.Background(), batch)
	if err != nil {
		t.Fatal(err)
	}

	if decisions[0].Outcome != entity.OutcomeSkippedBudget {
		t.Fatalf("outcome = %s, want SKIPPED_BUDGET", decisions[0].Outcome)
	}
	if st := rig.ledger.Report(); st.SpentToday != 0 {
		t.Fatalf("spent = %.4f, want 0 after rejection", st.SpentToday)
	}
	if calls != 0 {
		t.Fatalf("enricher called %d times despite exhausted budget", calls)
	}
	if stats.Outcomes[entity.OutcomeSkippedBudget] != 1 {
		t.Fatalf("stats missing budget skip: %v", stats.Outcomes)
	}
}

func TestRunProviderDown(t *testing.T) {
	failing := enrich.Func(func(ctx context.Context, content string) (*entity.EnrichmentResult, error) {
		return nil, enrich.ErrUnavailable
	})
	rig := newRig(t, 10.00, 0.10, selector.ModeHigh, failing)

	var batch []entity.Document
	for i := 0; i < 5; i++ {
		batch = append(batch, uniqueDoc(fmt.Sprintf("doc-%d", i), i))
	}

	decisions, stats, err := rig.coord.Run(context.Background(), batch)
	if err != nil {
		t.Fatal(err)
	}
	if len(decisions) != 5 {
		t.Fatalf("run must complete with a decision per document, got %d", len(decisions))
	}

	total := 0
	for _, n := range stats.Outcomes {
		total += n
	}
	if total != 5 {
		t.Fatalf("outcome buckets sum to %d, want 5: %v", total, stats.Outcomes)
	}
	failed := stats.Outcomes[entity.OutcomeEnrichmentFailed]
	if failed == 0 {
		t.Fatal("expected ENRICHMENT_FAILED outcomes with the provider down")
	}
	// Attempted calls keep their reservation: cost is sunk.
	if math.Abs(stats.TotalCost-0.10*float64(failed)) > 1e-9 {
		t.Fatalf("total cost %.4f does not match %d sunk attempts", stats.TotalCost, failed)
	}
}

func TestRunCacheHitBypassesBudget(t *testing.T) {
	var calls int64
	rig := newRig(t, 1.00, 0.10, selector.ModeHigh, countingEnricher(&calls))

	doc := uniqueDoc("doc-0", 0)
	fp := fingerprint.Compute(doc.Content)
	if err := rig.cache.Put(context.Background(), fp, okEnricher(99), time.Hour); err != nil {
		t.Fatal(err)
	}

	decisions, stats, err := rig.coord.Run(context.Background(), []entity.Document{doc})
	if err != nil {
		t.Fatal(err)
	}

	dec := decisions[0]
	if dec.Outcome != entity.OutcomeCached || !dec.CacheHit {
		t.Fatalf("decision %+v, want CACHED", dec)
	}
	if dec.CostCharged != 0 {
		t.Fatal("cache hit must cost nothing")
	}
	if dec.Result == nil || dec.Result.Category != "category-99" {
		t.Fatalf("cached result not propagated: %+v", dec.Result)
	}
	if st := rig.ledger.Report(); st.SpentToday != 0 {
		t.Fatalf("ledger touched on a cache hit: spent %.4f", st.SpentToday)
	}
	if calls != 0 {
		t.Fatal("enricher called despite cache hit")
	}
	if stats.CacheHitRate != 1.0 {
		t.Fatalf("cache hit rate = %.2f, want 1.0", stats.CacheHitRate)
	}
}

func TestRunSemanticDuplicateSunkCost(t *testing.T) {
	// Every document enriches to near-identical metadata, so all but the
	// first enriched one are late-detected duplicates.
	same := enrich.Func(func(ctx context.Context, content string) (*entity.EnrichmentResult, error) {
		return &entity.EnrichmentResult{
			Category: "economy",
			Keywords: []string{"gdp", "growth", "province"},
			Summary:  "Provincial GDP grew strongly this quarter.",
		}, nil
	})
	rig := newRig(t, 10.00, 0.10, selector.ModeHigh, same)

	var batch []entity.Document
	for i := 0; i < 3; i++ {
		batch = append(batch, uniqueDoc(fmt.Sprintf("doc-%d", i), i))
	}

	decisions, stats, err := rig.coord.Run(context.Background(), batch)
	if err != nil {
		t.Fatal(err)
	}

	enriched := stats.Outcomes[entity.OutcomeEnriched]
	dupes := stats.Outcomes[entity.OutcomeDuplicate]
	if enriched != 1 || dupes != 2 {
		t.Fatalf("enriched=%d dupes=%d, want 1 and 2", enriched, dupes)
	}
	// Sunk-cost accounting: the duplicates' spend stays charged and is
	// reported as wasted.
	if math.Abs(stats.TotalCost-0.30) > 1e-9 {
		t.Fatalf("total cost = %.4f, want 0.30", stats.TotalCost)
	}
	if math.Abs(stats.WastedSpend-0.20) > 1e-9 {
		t.Fatalf("wasted spend = %.4f, want 0.20", stats.WastedSpend)
	}
	for _, dec := range decisions {
		if dec.Outcome == entity.OutcomeDuplicate && dec.CanonicalID == "" {
			t.Fatalf("semantic duplicate without canonical ID: %+v", dec)
		}
	}
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	var once int64

	slow := enrich.Func(func(ctx context.Context, content string) (*entity.EnrichmentResult, error) {
		if atomic.AddInt64(&once, 1) == 1 {
			close(started)
		}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return okEnricher(1), nil
	})

	rig := newRig(t, 10.00, 0.10, selector.ModeHigh, slow)
	rig.coord.fanout = 1

	var batch []entity.Document
	for i := 0; i < 6; i++ {
		batch = append(batch, uniqueDoc(fmt.Sprintf("doc-%d", i), i))
	}

	done := make(chan struct{})
	var decisions []entity.Decision
	var stats *entity.Stats
	go func() {
		defer close(done)
		var err error
		decisions, stats, err = rig.coord.Run(ctx, batch)
		if err != nil {
			t.Error(err)
		}
	}()

	<-started
	cancel()
	close(release)
	<-done

	if len(decisions) != 6 {
		t.Fatalf("every document needs a decision, got %d", len(decisions))
	}
	if stats.Outcomes[entity.OutcomeSkippedCancelled] == 0 {
		t.Fatalf("expected SKIPPED_CANCELLED outcomes, got %v", stats.Outcomes)
	}
	total := 0
	for _, n := range stats.Outcomes {
		total += n
	}
	if total != 6 {
		t.Fatalf("outcome buckets sum to %d, want 6: %v", total, stats.Outcomes)
	}
}

func TestRunDeterministicSelection(t *testing.T) {
	var batch []entity.Document
	for i := 0; i < 8; i++ {
		batch = append(batch, uniqueDoc(fmt.Sprintf("doc-%d", i), i))
	}

	pick := func() map[string]entity.Outcome {
		var calls int64
		rig := newRig(t, 10.00, 0.10, selector.ModeBalanced, countingEnricher(&calls))
		decisions, _, err := rig.coord.Run(context.Background(), batch)
		if err != nil {
			t.Fatal(err)
		}
		out := make(map[string]entity.Outcome)
		for _, d := range decisions {
			out[d.DocumentID] = d.Outcome
		}
		return out
	}

	first := pick()
	second := pick()
	for id, outcome := range first {
		if second[id] != outcome {
			t.Fatalf("selection not reproducible for %s: %s vs %s", id, outcome, second[id])
		}
	}
}
