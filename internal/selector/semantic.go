package selector

import (
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

// DefaultSemanticThreshold is the cosine similarity above which two enriched
// documents count as paraphrased duplicates.
const DefaultSemanticThreshold = 0.85

type enrichedEntry struct {
	docID  string
	vector map[string]float64
}

// RunState is the per-run registry for the semantic dedupe stage. It sees
// only documents that reached ENRICHED in the current run; the cheap hash
// stage has already removed exact and near-exact text matches. Admission
// order under the mutex defines which of two semantic duplicates is "later".
type RunState struct {
	mu        sync.Mutex
	threshold float64
	entries   []enrichedEntry

	wastedSpend float64
	lateDupes   int
}

// NewRunState creates a registry with the given similarity threshold.
func NewRunState(threshold float64) *RunState {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSemanticThreshold
	}
	return &RunState{threshold: threshold}
}

// Admit registers an enriched document. If it is semantically a duplicate of
// an earlier enriched document, Admit reports that document's canonical ID
// and records the already-charged cost as wasted spend, which stays sunk.
func (rs *RunState) Admit(docID string, res *entity.EnrichmentResult, cost float64) (canonicalID string, duplicate bool) {
	vec := termVector(enrichmentText(res))

	rs.mu.Lock()
	defer rs.mu.Unlock()

	for _, e := range rs.entries {
		if cosine(vec, e.vector) >= rs.threshold {
			rs.wastedSpend += cost
			rs.lateDupes++
			return e.docID, true
		}
	}
	rs.entries = append(rs.entries, enrichedEntry{docID: docID, vector: vec})
	return "", false
}

// WastedSpend reports money charged for enrichments that turned out to be
// late-detected duplicates, and how many there were.
func (rs *RunState) WastedSpend() (float64, int) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.wastedSpend, rs.lateDupes
}

// enrichmentText flattens the fields that carry the document's meaning.
func enrichmentText(res *entity.EnrichmentResult) string {
	parts := make([]string, 0, 4)
	parts = append(parts, res.Category)
	parts = append(parts, strings.Join(res.Keywords, " "))
	parts = append(parts, strings.Join(res.Entities, " "))
	parts = append(parts, res.Summary)
	return strings.Join(parts, " ")
}

func termVector(text string) map[string]float64 {
	vec := make(map[string]float64)
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			vec[current.String()]++
			current.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return vec
}

func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for term, wa := range a {
		normA += wa * wa
		if wb, ok := b[term]; ok {
			dot += wa * wb
		}
	}
	for _, wb := range b {
		normB += wb * wb
	}
	if dot == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
