// Package assess scores a non-duplicate document's enrichment worthiness.
// Scoring is a pure function of the document's fields: deterministic,
// idempotent, no external calls.
package assess

import (
	"fmt"
	"strings"
	"time"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

const (
	// MinContentChars is the floor below which a document scores near zero;
	// shorter content is unlikely to justify an LLM call.
	MinContentChars = 200

	// DefaultFreshnessWindow is how long a document counts as fresh before
	// the decay penalty kicks in.
	DefaultFreshnessWindow = 7 * 24 * time.Hour

	// richContentChars is where the length component saturates.
	richContentChars = 2000
)

// Heuristic weights. They sum to 1 so the score stays in [0,1].
const (
	weightLength    = 0.35
	weightStructure = 0.25
	weightSource    = 0.25
	weightFreshness = 0.15
)

// Assessor computes value scores. The clock is injected so freshness decay is
// testable; production uses time.Now.
type Assessor struct {
	minChars        int
	freshnessWindow time.Duration
	now             func() time.Time
}

func NewAssessor(minChars int, freshnessWindow time.Duration) *Assessor {
	if minChars <= 0 {
		minChars = MinContentChars
	}
	if freshnessWindow <= 0 {
		freshnessWindow = DefaultFreshnessWindow
	}
	return &Assessor{minChars: minChars, freshnessWindow: freshnessWindow, now: time.Now}
}

// Score computes the document's value score with every contributing heuristic
// recorded in order.
func (a *Assessor) Score(doc entity.Document) entity.ValueScore {
	length := len(doc.Content)
	if length < a.minChars {
		return entity.ValueScore{
			DocumentID: doc.ID,
			Score:      0.0,
			Reasons:    []string{fmt.Sprintf("content %d chars, below %d char minimum", length, a.minChars)},
		}
	}

	reasons := make([]string, 0, 4)

	lengthComp := float64(length) / richContentChars
	if lengthComp > 1 {
		lengthComp = 1
	}
	reasons = append(reasons, fmt.Sprintf("length %d chars (%.2f)", length, lengthComp))

	structComp := structureSignal(doc.Content)
	reasons = append(reasons, fmt.Sprintf("structure (%.2f)", structComp))

	sourceComp := clamp01(doc.SourcePriority)
	reasons = append(reasons, fmt.Sprintf("source priority (%.2f)", sourceComp))

	freshComp := a.freshnessSignal(doc.FetchedAt)
	reasons = append(reasons, fmt.Sprintf("freshness (%.2f)", freshComp))

	score := weightLength*lengthComp +
		weightStructure*structComp +
		weightSource*sourceComp +
		weightFreshness*freshComp

	return entity.ValueScore{DocumentID: doc.ID, Score: clamp01(score), Reasons: reasons}
}

// structureSignal rewards documents that look like articles rather than link
// farms or fragments: a title-like first line, several paragraphs, and
// sentences of prose length.
func structureSignal(content string) float64 {
	var s float64

	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 1 {
		first := strings.TrimSpace(lines[0])
		if first != "" && len(first) <= 120 && !strings.HasSuffix(first, ".") {
			s += 0.4
		}
	}

	if countParagraphs(content) >= 3 {
		s += 0.4
	}

	if avgSentenceLength(content) > 50 {
		s += 0.2
	}

	return s
}

func countParagraphs(content string) int {
	n := 0
	for _, p := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

func avgSentenceLength(content string) float64 {
	sentences := strings.Split(content, ".")
	if len(sentences) == 0 {
		return 0
	}
	total := 0
	for _, s := range sentences {
		total += len(strings.TrimSpace(s))
	}
	return float64(total) / float64(len(sentences))
}

func (a *Assessor) freshnessSignal(fetchedAt time.Time) float64 {
	age := a.now().Sub(fetchedAt)
	if age <= a.freshnessWindow {
		return 1
	}
	// Decay proportionally once past the window: twice the window halves it.
	return clamp01(float64(a.freshnessWindow) / float64(age))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
