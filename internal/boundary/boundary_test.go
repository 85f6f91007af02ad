package boundary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcliao/session-recall/internal/model"
)

var longText = strings.Repeat("x", 51)

func inbound(ts, text string) *model.Record {
	return &model.Record{Kind: model.KindInbound, Timestamp: ts, Text: text}
}

func outbound(ts string, blocks ...model.Block) *model.Record {
	return &model.Record{Kind: model.KindOutbound, Timestamp: ts, Blocks: blocks}
}

func todo(status string) model.Block {
	return model.Block{
		Type:  model.BlockTool,
		Name:  model.ToolTaskList,
		Input: []byte(`{"todos":[{"content":"step","status":"` + status + `"}]}`),
	}
}

func TestDetect_RuleOrder(t *testing.T) {
	const (
		t0     = "2025-03-01T09:00:00Z"
		t1     = "2025-03-01T09:01:00Z"
		t10min = "2025-03-01T09:10:00Z"
	)

	tests := []struct {
		name      string
		cur       *model.Record
		prev      *model.Record
		count     int
		want      string
		placement Placement
	}{
		{name: "max lines with no other signal", cur: inbound(t1, "hi"), prev: inbound(t0, "hi"), count: 100, want: model.BoundaryMaxLines, placement: After},
		{name: "max lines beats time gap", cur: inbound(t10min, "hi"), prev: inbound(t0, "hi"), count: 100, want: model.BoundaryMaxLines, placement: After},
		{name: "max lines beats task completion", cur: outbound(t1, todo("completed")), prev: inbound(t0, "hi"), count: 120, want: model.BoundaryMaxLines, placement: After},
		{name: "floor vetoes time gap", cur: inbound(t10min, "hi"), prev: inbound(t0, "hi"), count: 9, want: ""},
		{name: "floor vetoes task completion", cur: outbound(t1, todo("completed")), prev: inbound(t0, "hi"), count: 9, want: ""},
		{name: "floor vetoes new topic", cur: inbound(t1, longText), prev: outbound(t0), count: 1, want: ""},
		{name: "time gap would seal nine records", cur: inbound(t10min, "hi"), prev: inbound(t0, "hi"), count: 10, want: ""},
		{name: "time gap at floor", cur: inbound(t10min, "hi"), prev: inbound(t0, "hi"), count: 11, want: model.BoundaryTimeGap, placement: Before},
		{name: "task completion at floor", cur: outbound(t1, todo("completed")), prev: inbound(t0, "hi"), count: 10, want: model.BoundaryTaskCompleted, placement: After},
		{name: "task completion still seals when time gap is below floor", cur: outbound(t10min, todo("completed")), prev: inbound(t0, "hi"), count: 10, want: model.BoundaryTaskCompleted, placement: After},
		{name: "new topic would seal nine records", cur: inbound(t1, longText), prev: outbound(t0), count: 10, want: ""},
		{name: "new topic at floor", cur: inbound(t1, longText), prev: outbound(t0), count: 11, want: model.BoundaryNewTopic, placement: Before},
		{name: "time gap beats task completion", cur: outbound(t10min, todo("completed")), prev: inbound(t0, "hi"), count: 20, want: model.BoundaryTimeGap, placement: Before},
		{name: "time gap beats new topic", cur: inbound(t10min, longText), prev: outbound(t0), count: 20, want: model.BoundaryTimeGap, placement: Before},
		{name: "exactly five minutes is not a gap", cur: inbound("2025-03-01T09:05:00Z", "hi"), prev: inbound(t0, "hi"), count: 20, want: ""},
		{name: "missing timestamp never gaps", cur: inbound("", "hi"), prev: inbound(t0, "hi"), count: 20, want: ""},
		{name: "unparseable timestamp never gaps", cur: inbound("yesterday", "hi"), prev: inbound(t0, "hi"), count: 20, want: ""},
		{name: "task completed", cur: outbound(t1, todo("completed")), prev: inbound(t0, "hi"), count: 17, want: model.BoundaryTaskCompleted, placement: After},
		{name: "task in progress is not a boundary", cur: outbound(t1, todo("in_progress")), prev: inbound(t0, "hi"), count: 17, want: ""},
		{name: "new topic", cur: inbound(t1, longText), prev: outbound(t0), count: 12, want: model.BoundaryNewTopic, placement: Before},
		{name: "short inbound is not a new topic", cur: inbound(t1, strings.Repeat("x", 50)), prev: outbound(t0), count: 12, want: ""},
		{name: "inbound after inbound is not a new topic", cur: inbound(t1, longText), prev: inbound(t0, "hi"), count: 12, want: ""},
		{name: "no previous record", cur: inbound(t1, longText), prev: nil, count: 12, want: ""},
	}

	d := New(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.cur, tt.prev, tt.count)
			assert.Equal(t, tt.want != "", got.Boundary)
			assert.Equal(t, tt.want, got.Label)
			if tt.want != "" {
				assert.Equal(t, tt.placement, got.Placement)
			}
		})
	}
}

func TestNew_FillsZeroOptions(t *testing.T) {
	d := New(Options{})
	got := d.Detect(inbound("", "hi"), nil, DefaultMaxLines)
	assert.Equal(t, model.BoundaryMaxLines, got.Label)

	got = d.Detect(inbound("", "hi"), nil, DefaultMaxLines-1)
	assert.False(t, got.Boundary)
}

func TestInput_Sealed(t *testing.T) {
	in := Input{LineCount: 10}
	assert.Equal(t, 9, in.Sealed(Before))
	assert.Equal(t, 10, in.Sealed(After))
}

func TestNewWithRules_CustomDecisionList(t *testing.T) {
	d := NewWithRules([]Rule{
		{Label: "always", Placement: Before, Match: func(Input) bool { return true }},
	})
	got := d.Detect(inbound("", "hi"), nil, 1)
	assert.Equal(t, Decision{Boundary: true, Label: "always", Placement: Before}, got)
}
