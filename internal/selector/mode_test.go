package selector

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

func scores(vals ...float64) []entity.ValueScore {
	out := make([]entity.ValueScore, len(vals))
	for i, v := range vals {
		out[i] = entity.ValueScore{DocumentID: fmt.Sprintf("doc-%d", i), Score: v}
	}
	return out
}

func TestModeByName(t *testing.T) {
	for _, name := range []string{"low", "balanced", "high"} {
		m, err := ModeByName(name)
		if err != nil || m.Name != name {
			t.Errorf("ModeByName(%q) = %+v, %v", name, m, err)
		}
	}
	if _, err := ModeByName("turbo"); err == nil {
		t.Error("unknown mode must be rejected")
	}
}

func TestPlanFloorFiltering(t *testing.T) {
	batch := scores(0.9, 0.4, 0.6, 0.3)
	accepted := Plan(batch, ModeBalanced) // floor 0.50, fraction 0.30

	// ceil(0.3 * 4) = 2 slots; only doc-0 (0.9) and doc-2 (0.6) clear the floor.
	want := map[string]bool{"doc-0": true, "doc-2": true}
	if !reflect.DeepEqual(accepted, want) {
		t.Fatalf("accepted = %v, want %v", accepted, want)
	}
}

func TestPlanCutBelowCandidates(t *testing.T) {
	// Everyone clears the low floor in high mode, but the cut still bounds
	// acceptance to the top fraction.
	batch := scores(0.9, 0.8, 0.7, 0.6, 0.5, 0.45, 0.4, 0.35, 0.3, 0.28)
	accepted := Plan(batch, ModeLow) // floor 0.75, fraction 0.10 -> 1 slot

	if len(accepted) != 1 || !accepted["doc-0"] {
		t.Fatalf("low mode must accept only the top document, got %v", accepted)
	}
}

func TestPlanFewerCandidatesThanCut(t *testing.T) {
	batch := scores(0.9, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1)
	accepted := Plan(batch, ModeHigh) // fraction 0.80 -> 8 slots, 1 candidate

	if len(accepted) != 1 || !accepted["doc-0"] {
		t.Fatalf("cut must not admit documents below the floor, got %v", accepted)
	}
}

func TestPlanDeterministic(t *testing.T) {
	batch := scores(0.7, 0.7, 0.7, 0.7, 0.6, 0.5)
	first := Plan(batch, ModeBalanced)
	for i := 0; i < 10; i++ {
		if got := Plan(batch, ModeBalanced); !reflect.DeepEqual(got, first) {
			t.Fatalf("partition changed across runs: %v vs %v", got, first)
		}
	}
	// Ties break on input order: ceil(0.3*6) = 2 slots go to doc-0 and doc-1.
	if !first["doc-0"] || !first["doc-1"] || len(first) != 2 {
		t.Fatalf("tie-break must follow input order, got %v", first)
	}
}

func TestCostEstimator(t *testing.T) {
	e := CostEstimator{PerCall: 0.10, PerKiloChars: 0.02}
	doc := entity.Document{Content: string(make([]byte, 1500))}
	if got, want := e.Estimate(doc), 0.13; got != want {
		t.Fatalf("Estimate = %.4f, want %.4f", got, want)
	}

	flat := CostEstimator{PerCall: 0.10}
	if got := flat.Estimate(doc); got != 0.10 {
		t.Fatalf("flat estimate = %.4f, want 0.10", got)
	}
}
