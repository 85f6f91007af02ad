package recovery

import (
	"sort"

	"github.com/rcliao/session-recall/internal/model"
)

const (
	// DefaultBudget is the character budget for recovered excerpts.
	DefaultBudget = 8000
	// CharsPerLine is the per-record size guess used to gate selection.
	// It only decides inclusion; it does not size the rendered output.
	CharsPerLine = 100
)

// SizeEstimator guesses how many characters a segment will contribute.
type SizeEstimator func(seg model.Segment) int

// LineEstimator estimates size as line_count × charsPerLine.
func LineEstimator(charsPerLine int) SizeEstimator {
	if charsPerLine <= 0 {
		charsPerLine = CharsPerLine
	}
	return func(seg model.Segment) int { return seg.LineCount * charsPerLine }
}

// Candidate is a scored segment.
type Candidate struct {
	Segment  model.Segment `json:"segment"`
	Score    float64       `json:"score"`
	Detail   Breakdown     `json:"breakdown"`
	Estimate int           `json:"estimate"`
}

// Selector picks the highest scoring segments that fit a budget.
type Selector struct {
	Scorer   Scorer
	Budget   int
	Estimate SizeEstimator
}

// NewSelector returns a selector with the default budget and estimator.
func NewSelector() *Selector {
	return &Selector{Budget: DefaultBudget, Estimate: LineEstimator(CharsPerLine)}
}

// Rank scores every segment and orders them by score, highest first.
// Equal scores keep their index order.
func (s *Selector) Rank(segs []model.Segment, tasks []string) []Candidate {
	est := s.Estimate
	if est == nil {
		est = LineEstimator(CharsPerLine)
	}
	out := make([]Candidate, len(segs))
	for i, seg := range segs {
		d := s.Scorer.Score(seg, tasks)
		out[i] = Candidate{Segment: seg, Score: d.Total(), Detail: d, Estimate: est(seg)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Select walks the ranking with a running size estimate. A segment that
// would overflow the budget is skipped, not truncated, and the walk goes on
// to smaller ones. The walk stops once the budget is used up.
func (s *Selector) Select(segs []model.Segment, tasks []string) []Candidate {
	if s.Budget <= 0 {
		return nil
	}
	var (
		picked []Candidate
		used   int
	)
	for _, c := range s.Rank(segs, tasks) {
		if used+c.Estimate > s.Budget {
			continue
		}
		picked = append(picked, c)
		used += c.Estimate
		if used >= s.Budget {
			break
		}
	}
	return picked
}
