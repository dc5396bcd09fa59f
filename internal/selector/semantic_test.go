package selector

import (
	"testing"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

func TestRunStateLateDuplicate(t *testing.T) {
	rs := NewRunState(0.85)

	first := &entity.EnrichmentResult{
		Category: "economy",
		Keywords: []string{"gdp", "growth", "province", "industry"},
		Summary:  "Provincial GDP grew on strong industrial output this quarter.",
	}
	paraphrase := &entity.EnrichmentResult{
		Category: "economy",
		Keywords: []string{"gdp", "growth", "province", "industry"},
		Summary:  "Provincial GDP grew on strong industrial output this quarter again.",
	}
	unrelated := &entity.EnrichmentResult{
		Category: "sports",
		Keywords: []string{"football", "final", "stadium"},
		Summary:  "The cup final drew a record stadium crowd on Sunday evening.",
	}

	if id, dup := rs.Admit("doc-1", first, 0.10); dup {
		t.Fatalf("first admission flagged duplicate of %q", id)
	}
	if id, dup := rs.Admit("doc-2", unrelated, 0.10); dup {
		t.Fatalf("unrelated admission flagged duplicate of %q", id)
	}
	id, dup := rs.Admit("doc-3", paraphrase, 0.10)
	if !dup || id != "doc-1" {
		t.Fatalf("paraphrase must point at doc-1, got dup=%v id=%q", dup, id)
	}

	wasted, count := rs.WastedSpend()
	if wasted != 0.10 || count != 1 {
		t.Fatalf("wasted spend = %.2f over %d dupes, want 0.10 over 1", wasted, count)
	}
}

func TestCosine(t *testing.T) {
	a := termVector("gdp growth province")
	if got := cosine(a, a); got < 0.999 {
		t.Fatalf("self-similarity = %.3f, want 1.0", got)
	}
	b := termVector("football final stadium")
	if got := cosine(a, b); got != 0 {
		t.Fatalf("disjoint similarity = %.3f, want 0", got)
	}
	if got := cosine(a, termVector("")); got != 0 {
		t.Fatalf("empty vector similarity = %.3f, want 0", got)
	}
}
