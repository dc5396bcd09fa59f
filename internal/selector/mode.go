package selector

import (
	"fmt"
	"math"
	"sort"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

// Mode is a priority policy bundle: the fraction of a batch that receives paid
// enrichment and the minimum value score required to compete. Modes form a
// closed enumeration, not free-form strings.
type Mode struct {
	Name           string
	TargetFraction float64
	ScoreFloor     float64
}

var (
	ModeLow      = Mode{Name: "low", TargetFraction: 0.10, ScoreFloor: 0.75}
	ModeBalanced = Mode{Name: "balanced", TargetFraction: 0.30, ScoreFloor: 0.50}
	ModeHigh     = Mode{Name: "high", TargetFraction: 0.80, ScoreFloor: 0.25}
)

// ModeByName resolves a configured mode name.
func ModeByName(name string) (Mode, error) {
	switch name {
	case ModeLow.Name:
		return ModeLow, nil
	case ModeBalanced.Name:
		return ModeBalanced, nil
	case ModeHigh.Name:
		return ModeHigh, nil
	default:
		return Mode{}, fmt.Errorf("unknown priority mode %q", name)
	}
}

// Plan applies the batch-relative rank-and-cut policy: documents clearing the
// floor are ranked by score descending and the top fraction of the batch is
// accepted. Ties break on input order, so the partition is deterministic for
// a given batch ordering and score distribution.
func Plan(scores []entity.ValueScore, mode Mode) map[string]bool {
	type ranked struct {
		idx   int
		score entity.ValueScore
	}

	candidates := make([]ranked, 0, len(scores))
	for i, vs := range scores {
		if vs.Score >= mode.ScoreFloor {
			candidates = append(candidates, ranked{idx: i, score: vs})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].score.Score != candidates[b].score.Score {
			return candidates[a].score.Score > candidates[b].score.Score
		}
		return candidates[a].idx < candidates[b].idx
	})

	cut := int(math.Ceil(mode.TargetFraction * float64(len(scores))))
	if cut > len(candidates) {
		cut = len(candidates)
	}

	accepted := make(map[string]bool, cut)
	for _, c := range candidates[:cut] {
		accepted[c.score.DocumentID] = true
	}
	return accepted
}
