package summarize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minDecisionChars = 10
	maxDecisionChars = 200
)

// DecisionMatcher pulls decision phrases out of outbound text. Pattern
// families are applied in order, each scanning the whole text.
type DecisionMatcher struct {
	patterns []*regexp.Regexp
}

// DefaultDecisionPatterns are the stock phrase families.
var DefaultDecisionPatterns = []string{
	`(?i)(?:I['’]ll|Let['’]s|We should|I['’]ve decided|decided to|going to)\s+([^.!?\n]+)`,
	`(?i)(?:approach|strategy|solution):\s*([^.!?\n]+)`,
}

// NewDecisionMatcher compiles the given pattern families. Each pattern must
// have one capture group holding the decision text.
func NewDecisionMatcher(patterns []string) *DecisionMatcher {
	m := &DecisionMatcher{}
	for _, p := range patterns {
		m.patterns = append(m.patterns, regexp.MustCompile(p))
	}
	return m
}

// Match returns decisions in scan order, keeping only captures longer than
// 10 and shorter than 200 characters.
func (d *DecisionMatcher) Match(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, re := range d.patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			n := utf8.RuneCountInString(m[1])
			if n <= minDecisionChars || n >= maxDecisionChars {
				continue
			}
			out = append(out, strings.TrimSpace(m[1]))
		}
	}
	return out
}
