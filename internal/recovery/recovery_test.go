package recovery

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/session-recall/internal/config"
	"github.com/rcliao/session-recall/internal/logging"
	"github.com/rcliao/session-recall/internal/model"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedScorer() Scorer { return Scorer{Now: func() time.Time { return now }} }

func TestScore_ContentToolDelta(t *testing.T) {
	s := fixedScorer()
	plain := model.Segment{
		Timestamp: now.Add(-90 * time.Minute).Format(time.RFC3339),
		Topics:    []string{"api"},
		ToolsUsed: map[string]int{"Read": 2},
	}
	edited := plain
	edited.ToolsUsed = map[string]int{"Read": 2, "Edit": 1}

	delta := s.Score(edited, nil).Total() - s.Score(plain, nil).Total()
	assert.InDelta(t, 15.0, delta, 1e-9)
}

func TestScore_Breakdown(t *testing.T) {
	s := fixedScorer()
	seg := model.Segment{
		Timestamp:    now.Add(-2 * time.Hour).Format(time.RFC3339),
		Topics:       []string{"auth", "api", "testing"},
		Decisions:    []string{"use jwt middleware"},
		ToolsUsed:    map[string]int{"Write": 1, "MultiEdit": 1, "TodoWrite": 3},
		BoundaryType: model.BoundaryTaskCompleted,
	}
	tasks := []string{"fix auth api", "add api testing", "api api"}

	b := s.Score(seg, tasks)
	assert.InDelta(t, 40.0, b.Recency, 1e-9)
	// auth+api, api+testing, api (words are a set per task)
	assert.InDelta(t, 50.0, b.TaskOverlap, 1e-9)
	assert.Equal(t, DecisionPoints, b.Decisions)
	assert.Equal(t, ContentToolPoints, b.ContentTools)
	assert.Equal(t, TaskToolPoints, b.TaskTool)
	assert.Equal(t, TaskCompletedBonus, b.Boundary)
	assert.InDelta(t, 130.0, b.Total(), 1e-9)
}

func TestScore_Recency(t *testing.T) {
	s := fixedScorer()
	tests := []struct {
		name string
		ts   string
		want float64
	}{
		{"missing", "", 0},
		{"garbage", "yesterday", 0},
		{"fresh", now.Format(time.RFC3339), 50},
		{"future clamps", now.Add(3 * time.Hour).Format(time.RFC3339), 50},
		{"half hour", now.Add(-30 * time.Minute).Format(time.RFC3339), 47.5},
		{"ten hours", now.Add(-10 * time.Hour).Format(time.RFC3339), 0},
		{"days", now.Add(-72 * time.Hour).Format(time.RFC3339), 0},
		{"zoneless", "2025-03-01T11:00:00.123", 50 - 5*(1-0.123/3600)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(model.Segment{Timestamp: tt.ts}, nil).Recency
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestScore_NewTopicBonus(t *testing.T) {
	b := fixedScorer().Score(model.Segment{BoundaryType: model.BoundaryNewTopic}, nil)
	assert.Equal(t, NewTopicBonus, b.Total())
	b = fixedScorer().Score(model.Segment{BoundaryType: model.BoundaryMaxLines}, nil)
	assert.Zero(t, b.Total())
}

func segs(counts ...int) []model.Segment {
	out := make([]model.Segment, len(counts))
	for i, c := range counts {
		out[i] = model.Segment{ID: "seg-" + string(rune('a'+i)), LineCount: c}
	}
	return out
}

func ids(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Segment.ID
	}
	return out
}

func TestSelect_ZeroBudget(t *testing.T) {
	sel := NewSelector()
	sel.Scorer = fixedScorer()
	sel.Budget = 0
	assert.Empty(t, sel.Select(segs(1, 2, 3), nil))
}

func TestSelect_BudgetRespect(t *testing.T) {
	in := segs(30, 50, 10, 25, 40, 5, 60, 15)
	for _, budget := range []int{1, 500, 1000, 2500, 4000, 8000, 100000} {
		sel := NewSelector()
		sel.Scorer = fixedScorer()
		sel.Budget = budget

		total := 0
		for _, c := range sel.Select(in, nil) {
			total += c.Segment.LineCount * CharsPerLine
		}
		assert.LessOrEqual(t, total, budget, "budget %d", budget)
	}
}

func TestSelect_SkipsOversizedAndKeepsScanning(t *testing.T) {
	in := segs(60, 50, 20, 30)
	// Only the first one scores; the rest tie at zero and keep index order.
	in[0].BoundaryType = model.BoundaryTaskCompleted

	sel := NewSelector()
	sel.Scorer = fixedScorer()
	sel.Budget = 8000
	assert.Equal(t, []string{"seg-a", "seg-c"}, ids(sel.Select(in, nil)))
}

func TestSelect_StopsWhenBudgetReached(t *testing.T) {
	sel := NewSelector()
	sel.Scorer = fixedScorer()
	sel.Budget = 3000
	assert.Equal(t, []string{"seg-a"}, ids(sel.Select(segs(30, 1, 1), nil)))
}

func TestRank_StableTies(t *testing.T) {
	in := segs(1, 1, 1, 1)
	in[2].Decisions = []string{"ship it"}
	sel := NewSelector()
	sel.Scorer = fixedScorer()
	assert.Equal(t, []string{"seg-c", "seg-a", "seg-b", "seg-d"}, ids(sel.Rank(in, nil)))
}

func TestLineEstimator(t *testing.T) {
	assert.Equal(t, 700, LineEstimator(0)(model.Segment{LineCount: 7}))
	assert.Equal(t, 70, LineEstimator(10)(model.Segment{LineCount: 7}))
}

func TestParsePending(t *testing.T) {
	doc := strings.Join([]string{
		"# Todos",
		"- [ ] not in a section",
		"## In Progress",
		"- [ ] Wire the API Gateway",
		"- [x] finished thing",
		"  * [ ] Indented Star item",
		"- [ ]   ",
		"## Done",
		"- [ ] stale",
		"## Pending",
		"- [ ] write docs\r",
	}, "\n")
	assert.Equal(t, []string{"wire the api gateway", "indented star item", "write docs"}, ParsePending(doc))
	assert.Empty(t, ParsePending(""))
}

func writeLines(t *testing.T, path string, recs ...map[string]any) {
	t.Helper()
	var b strings.Builder
	for _, r := range recs {
		data, err := json.Marshal(r)
		require.NoError(t, err)
		b.Write(data)
		b.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func user(text string) map[string]any {
	return map[string]any{"type": "user", "message": map[string]any{"content": text}}
}

func assistant(blocks ...map[string]any) map[string]any {
	return map[string]any{"type": "assistant", "message": map[string]any{"content": blocks}}
}

func TestExtractor_Render(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	long := strings.Repeat("é", 600)
	writeLines(t, path,
		user("before the segment"),
		user(long),
		map[string]any{"type": "summary", "summary": "ignored"},
		assistant(
			map[string]any{"type": "text", "text": "Editing now"},
			map[string]any{"type": "tool_use", "name": "Edit", "input": map[string]any{"file_path": "/repo/internal/app.go"}},
			map[string]any{"type": "tool_use", "name": "Read", "input": map[string]any{"file_path": "/repo/x.go"}},
			map[string]any{"type": "tool_use", "name": "TodoWrite", "input": map[string]any{"todos": []map[string]any{
				{"content": "a", "status": "completed"},
				{"content": "b", "status": "completed"},
				{"content": "c", "status": "completed"},
				{"content": "d", "status": "completed"},
				{"content": "e", "status": "in_progress"},
				{"content": "f", "status": "in_progress"},
				{"content": "g", "status": "in_progress"},
			}}},
		),
		user("after the segment"),
	)

	got, err := (&Extractor{Path: path}).Render(model.Segment{StartLine: 1, EndLine: 3})
	require.NoError(t, err)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "USER: "+strings.Repeat("é", 500), lines[0])
	assert.Equal(t, "ASSISTANT: Editing now", lines[1])
	assert.Equal(t, "[Modified: app.go]", lines[2])
	assert.Equal(t, "[Completed: a, b, c]", lines[3])
	assert.Equal(t, "[Working on: e, f]", lines[4])
}

func TestExtractor_SeeksByOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	writeLines(t, path, user("zero"), user("one"), user("two"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	off := int64(strings.Index(string(data), "\n") + 1)

	got, err := (&Extractor{Path: path}).Render(model.Segment{StartLine: 1, EndLine: 1, StartOffset: off})
	require.NoError(t, err)
	assert.Equal(t, "USER: one", got)
}

func TestBuilder_Build(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "context.md"), []byte(strings.Repeat("x", 3000)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(project, "todos.md"), []byte("## In Progress\n- [ ] finish docker deploy\n"), 0o644))

	path := filepath.Join(t.TempDir(), "s.jsonl")
	writeLines(t, path, user("deploy with docker please"), assistant(map[string]any{"type": "text", "text": "on it"}), user("thanks"))

	idx := model.NewIndex()
	idx.SessionID = "s"
	idx.TranscriptPath = path
	idx.Segments = []model.Segment{
		{ID: "seg-000", StartLine: 0, EndLine: 1, LineCount: 2, Topics: []string{"deploy", "docker"}, Summary: "Topics: deploy, docker"},
		{ID: "seg-001", StartLine: 2, EndLine: 2, LineCount: 1, Summary: "General discussion"},
	}

	b := NewBuilder(config.Default().Recovery)
	b.Selector.Scorer = fixedScorer()
	doc, err := b.Build(idx, "", project)
	require.NoError(t, err)

	require.Len(t, doc.Sections, 2)
	assert.True(t, doc.Sections[0].Truncated)
	assert.True(t, strings.HasSuffix(doc.Sections[0].Content, "\n... [truncated]"))
	assert.Equal(t, []string{"finish docker deploy"}, doc.Pending)

	require.Len(t, doc.Excerpts, 2)
	assert.Equal(t, "seg-000", doc.Excerpts[0].Segment.ID)
	assert.InDelta(t, 20.0, doc.Excerpts[0].Score, 1e-9)
	assert.Equal(t, "USER: deploy with docker please\nASSISTANT: on it", doc.Excerpts[0].Content)

	text := doc.String()
	assert.Contains(t, text, "### Current Goal & Decisions (context.md)")
	assert.Contains(t, text, "--- Segment seg-000 (score: 20) ---")
	assert.Contains(t, text, "Topics: deploy, docker")
	assert.Contains(t, text, "[Loaded 2 relevant segments from session history]")
	assert.Contains(t, text, "Update persistence files (context.md, todos.md) as you work.")
}

func TestBuilder_NoDocumentsNoIndex(t *testing.T) {
	b := NewBuilder(config.Default().Recovery)
	doc, err := b.Build(nil, "", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, doc.Sections)
	assert.Empty(t, doc.Excerpts)
	assert.Contains(t, doc.String(), "No persistence files found")
}

func TestBuilder_UnreadableTranscriptKeepsSections(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "context.md"), []byte("ship the gateway"), 0o644))

	idx := model.NewIndex()
	idx.SessionID = "s"
	idx.TranscriptPath = filepath.Join(t.TempDir(), "gone.jsonl")
	idx.Segments = []model.Segment{{ID: "seg-000", EndLine: 9, LineCount: 10, Summary: "General discussion"}}

	var logs bytes.Buffer
	b := NewBuilder(config.Default().Recovery)
	b.Selector.Scorer = fixedScorer()
	b.Log = logging.NewWriter(&logs, "test", "debug")

	doc, err := b.Build(idx, "", project)
	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "ship the gateway", doc.Sections[0].Content)
	assert.Empty(t, doc.Excerpts)
	assert.Contains(t, logs.String(), "render failed")
	assert.Contains(t, logs.String(), "seg-000")
}

func TestBuilder_NoTranscriptPathKeepsSections(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "context.md"), []byte("ship the gateway"), 0o644))

	idx := model.NewIndex()
	idx.SessionID = "s"
	idx.Segments = []model.Segment{{ID: "seg-000", EndLine: 9, LineCount: 10}}

	doc, err := NewBuilder(config.Default().Recovery).Build(idx, "", project)
	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	assert.Empty(t, doc.Excerpts)
}
