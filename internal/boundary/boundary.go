// Package boundary decides where one conversation segment ends and the next
// begins. Detection is an ordered decision list: the first rule whose
// predicate matches decides the outcome.
package boundary

import (
	"time"
	"unicode/utf8"

	"github.com/rcliao/session-recall/internal/model"
	"github.com/rcliao/session-recall/internal/transcript"
)

const (
	DefaultMinLines      = 10
	DefaultMaxLines      = 100
	DefaultTimeGap       = 5 * time.Minute
	DefaultNewTopicChars = 50
)

// Placement says which side of the current record the boundary falls on.
type Placement int

const (
	// Before: the current record opens the next segment.
	Before Placement = iota
	// After: the current record is the last record of the sealed segment.
	After
)

// Input is what a rule looks at.
type Input struct {
	Current  *model.Record
	Previous *model.Record // nil at the start of a transcript
	// LineCount is the number of counted records in the open segment,
	// including Current.
	LineCount int
}

// Sealed is the size of the segment a boundary at p would close. A Before
// boundary leaves Current out of it.
func (in Input) Sealed(p Placement) int {
	if p == Before {
		return in.LineCount - 1
	}
	return in.LineCount
}

// Rule is one row of the decision list. A matching rule with an empty
// Label ends evaluation without a boundary.
type Rule struct {
	Label     string
	Placement Placement
	Match     func(in Input) bool
}

// Decision is the outcome of Detect.
type Decision struct {
	Boundary  bool
	Label     string
	Placement Placement
}

// Options configures the default rule set.
type Options struct {
	MinLines      int
	MaxLines      int
	TimeGap       time.Duration
	NewTopicChars int
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{
		MinLines:      DefaultMinLines,
		MaxLines:      DefaultMaxLines,
		TimeGap:       DefaultTimeGap,
		NewTopicChars: DefaultNewTopicChars,
	}
}

// Detector evaluates a decision list.
type Detector struct {
	rules []Rule
}

// New builds a detector with the default rule order.
func New(opts Options) *Detector {
	def := DefaultOptions()
	if opts.MinLines <= 0 {
		opts.MinLines = def.MinLines
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = def.MaxLines
	}
	if opts.TimeGap <= 0 {
		opts.TimeGap = def.TimeGap
	}
	if opts.NewTopicChars <= 0 {
		opts.NewTopicChars = def.NewTopicChars
	}
	return NewWithRules(Rules(opts))
}

// NewWithRules builds a detector over an explicit decision list.
func NewWithRules(rules []Rule) *Detector {
	return &Detector{rules: rules}
}

// Rules returns the stock decision list in priority order.
func Rules(opts Options) []Rule {
	return []Rule{
		{
			Label:     model.BoundaryMaxLines,
			Placement: After,
			Match:     func(in Input) bool { return in.LineCount >= opts.MaxLines },
		},
		{
			// Floor: nothing below MinLines may seal a segment. Before rules
			// also check the floor against the segment they would close.
			Match: func(in Input) bool { return in.LineCount < opts.MinLines },
		},
		{
			Label:     model.BoundaryTimeGap,
			Placement: Before,
			Match: func(in Input) bool {
				return in.Sealed(Before) >= opts.MinLines && gapExceeds(in.Previous, in.Current, opts.TimeGap)
			},
		},
		{
			Label:     model.BoundaryTaskCompleted,
			Placement: After,
			Match:     func(in Input) bool { return completesTask(in.Current) },
		},
		{
			Label:     model.BoundaryNewTopic,
			Placement: Before,
			Match: func(in Input) bool {
				return in.Sealed(Before) >= opts.MinLines && opensTopic(in.Previous, in.Current, opts.NewTopicChars)
			},
		},
	}
}

// Detect runs the decision list for one record.
func (d *Detector) Detect(cur, prev *model.Record, lineCount int) Decision {
	in := Input{Current: cur, Previous: prev, LineCount: lineCount}
	for _, r := range d.rules {
		if !r.Match(in) {
			continue
		}
		if r.Label == "" {
			return Decision{}
		}
		return Decision{Boundary: true, Label: r.Label, Placement: r.Placement}
	}
	return Decision{}
}

func gapExceeds(prev, cur *model.Record, gap time.Duration) bool {
	if prev == nil || cur == nil {
		return false
	}
	pt, ok := prev.Time()
	if !ok {
		return false
	}
	ct, ok := cur.Time()
	if !ok {
		return false
	}
	return ct.Sub(pt) > gap
}

func completesTask(cur *model.Record) bool {
	if cur == nil || cur.Kind != model.KindOutbound {
		return false
	}
	for _, b := range cur.Tools() {
		if transcript.CompletesTask(b) {
			return true
		}
	}
	return false
}

func opensTopic(prev, cur *model.Record, minChars int) bool {
	if prev == nil || cur == nil {
		return false
	}
	if cur.Kind != model.KindInbound || prev.Kind != model.KindOutbound {
		return false
	}
	return utf8.RuneCountInString(cur.Text) > minChars
}
