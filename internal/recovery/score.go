// Package recovery rebuilds working context from a session's segment index:
// it scores sealed segments against pending work, picks a subset under a
// character budget and renders literal excerpts of the picked segments.
package recovery

import (
	"math"
	"strings"
	"time"

	"github.com/rcliao/session-recall/internal/model"
)

// Score weights.
const (
	RecencyMax         = 50.0
	RecencyPerHour     = 5.0
	TopicMatchPoints   = 10.0
	DecisionPoints     = 10.0
	ContentToolPoints  = 15.0
	TaskToolPoints     = 5.0
	TaskCompletedBonus = 10.0
	NewTopicBonus      = 5.0
)

// Breakdown is a segment score split by signal.
type Breakdown struct {
	Recency      float64 `json:"recency"`
	TaskOverlap  float64 `json:"task_overlap"`
	Decisions    float64 `json:"decisions"`
	ContentTools float64 `json:"content_tools"`
	TaskTool     float64 `json:"task_tool"`
	Boundary     float64 `json:"boundary"`
}

// Total is the additive score.
func (b Breakdown) Total() float64 {
	return b.Recency + b.TaskOverlap + b.Decisions + b.ContentTools + b.TaskTool + b.Boundary
}

// Scorer computes relevance scores. Now defaults to time.Now.
type Scorer struct {
	Now func() time.Time
}

// Score rates seg against the pending task phrases.
func (s Scorer) Score(seg model.Segment, tasks []string) Breakdown {
	var b Breakdown

	if t, ok := model.ParseTimestamp(seg.Timestamp); ok {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		hours := math.Max(0, now().Sub(t).Hours())
		b.Recency = math.Max(0, RecencyMax-RecencyPerHour*hours)
	}

	if len(tasks) > 0 && len(seg.Topics) > 0 {
		topics := make(map[string]bool, len(seg.Topics))
		for _, t := range seg.Topics {
			topics[strings.ToLower(t)] = true
		}
		for _, task := range tasks {
			for w := range words(task) {
				if topics[w] {
					b.TaskOverlap += TopicMatchPoints
				}
			}
		}
	}

	if len(seg.Decisions) > 0 {
		b.Decisions = DecisionPoints
	}
	for name := range seg.ToolsUsed {
		if model.ContentModifyingTools[name] {
			b.ContentTools = ContentToolPoints
		}
	}
	if _, ok := seg.ToolsUsed[model.ToolTaskList]; ok {
		b.TaskTool = TaskToolPoints
	}

	switch seg.BoundaryType {
	case model.BoundaryTaskCompleted:
		b.Boundary = TaskCompletedBonus
	case model.BoundaryNewTopic:
		b.Boundary = NewTopicBonus
	}
	return b
}

// words splits a task phrase into its distinct lowercase words.
func words(task string) map[string]bool {
	fields := strings.Fields(strings.ToLower(task))
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
