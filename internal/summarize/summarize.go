// Package summarize condenses the records of a segment into topics, touched
// files, tool usage and decisions.
package summarize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rcliao/session-recall/internal/model"
	"github.com/rcliao/session-recall/internal/transcript"
)

const (
	MaxTopics      = 10
	MaxFiles       = 10
	MaxTools       = 5
	MaxDecisions   = 3
	summaryTopics  = 5
	summaryTools   = 3
	generalSummary = "General discussion"
)

// Summary is what a sealed segment records about its content.
type Summary struct {
	Topics    []string
	Files     []string
	Tools     map[string]int
	Decisions []string
	Text      string
}

// Apply copies the summary onto a segment.
func (s Summary) Apply(seg *model.Segment) {
	seg.Topics = s.Topics
	seg.FilesTouched = s.Files
	seg.ToolsUsed = s.Tools
	seg.Decisions = s.Decisions
	seg.Summary = s.Text
}

// Summarizer extracts summaries. Topic and file extraction are pluggable.
type Summarizer struct {
	Topics    Tagger
	Files     Tagger
	Decisions *DecisionMatcher
}

// New returns a summarizer with the stock vocabulary extended by extraTopics.
func New(extraTopics ...string) *Summarizer {
	return &Summarizer{
		Topics:    NewVocabularyTagger(DefaultVocabulary, extraTopics...),
		Files:     NewPathTagger(DefaultExtensions),
		Decisions: NewDecisionMatcher(DefaultDecisionPatterns),
	}
}

// Summarize is the one-shot form over a closed segment's records.
func (s *Summarizer) Summarize(records []model.Record) Summary {
	var d model.Digest
	for i := range records {
		s.Add(&d, &records[i])
	}
	return s.Seal(d)
}

// Add folds one record into a running digest.
func (s *Summarizer) Add(d *model.Digest, r *model.Record) {
	switch r.Kind {
	case model.KindInbound:
		d.Topics = addAll(d.Topics, s.Topics.Tag(r.Text))
		d.Files = addAll(d.Files, s.Files.Tag(r.Text))
	case model.KindOutbound:
		for _, b := range r.Blocks {
			switch b.Type {
			case model.BlockText:
				d.Topics = addAll(d.Topics, s.Topics.Tag(b.Text))
				if room := MaxDecisions - len(d.Decisions); room > 0 {
					found := s.Decisions.Match(b.Text)
					if len(found) > room {
						found = found[:room]
					}
					d.Decisions = append(d.Decisions, found...)
				}
			case model.BlockTool:
				if d.Tools == nil {
					d.Tools = make(map[string]int)
				}
				d.Tools[b.Name]++
				for _, v := range transcript.StringInputs(b) {
					d.Files = addAll(d.Files, s.Files.Tag(v))
				}
			}
		}
	}
}

// Seal turns a digest into the capped, deterministic summary of a segment.
func (s *Summarizer) Seal(d model.Digest) Summary {
	sum := Summary{
		Topics:    capStrings(d.Topics, MaxTopics),
		Files:     capStrings(d.Files, MaxFiles),
		Tools:     topTools(d.Tools, MaxTools),
		Decisions: capStrings(d.Decisions, MaxDecisions),
	}

	var parts []string
	if len(sum.Topics) > 0 {
		parts = append(parts, "Topics: "+strings.Join(capStrings(sum.Topics, summaryTopics), ", "))
	}
	if len(sum.Files) > 0 {
		parts = append(parts, fmt.Sprintf("Files: %d", len(sum.Files)))
	}
	if len(sum.Tools) > 0 {
		ranked := RankTools(sum.Tools)
		if len(ranked) > summaryTools {
			ranked = ranked[:summaryTools]
		}
		parts = append(parts, "Tools: "+strings.Join(ranked, ", "))
	}
	if len(parts) == 0 {
		sum.Text = generalSummary
	} else {
		sum.Text = strings.Join(parts, " | ")
	}
	return sum
}

// RankTools orders tool names by count descending, then by name.
func RankTools(tools map[string]int) []string {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if tools[names[i]] != tools[names[j]] {
			return tools[names[i]] > tools[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

func topTools(tools map[string]int, n int) map[string]int {
	out := make(map[string]int)
	for i, name := range RankTools(tools) {
		if i == n {
			break
		}
		out[name] = tools[name]
	}
	return out
}

// addAll inserts values into a sorted set.
func addAll(set []string, values []string) []string {
	for _, v := range values {
		i := sort.SearchStrings(set, v)
		if i < len(set) && set[i] == v {
			continue
		}
		set = append(set, "")
		copy(set[i+1:], set[i:])
		set[i] = v
	}
	return set
}

func capStrings(s []string, n int) []string {
	out := make([]string, 0, n)
	for i, v := range s {
		if i == n {
			break
		}
		out = append(out, v)
	}
	return out
}
