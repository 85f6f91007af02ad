package model

import "time"

// ArchivedSegment is a sealed segment mirrored into the cross-session archive.
type ArchivedSegment struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Project    string    `json:"project"`
	Segment    Segment   `json:"segment"`
	Excerpt    string    `json:"excerpt,omitempty"`
	IndexedAt  time.Time `json:"indexed_at"`
	ChunkCount int       `json:"chunks,omitempty"`
}

// Chunk is a searchable slice of an archived segment's excerpt.
type Chunk struct {
	ID        string `json:"id"`
	SegmentID string `json:"segment_id"`
	Seq       int    `json:"seq"`
	Text      string `json:"text"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
}

// Boundary labels recorded on segments.
const (
	BoundaryMaxLines      = "max_lines"
	BoundaryTimeGap       = "time_gap"
	BoundaryTaskCompleted = "task_completed"
	BoundaryNewTopic      = "new_topic"
)

// Tool names with special meaning for scoring and rendering.
const (
	ToolTaskList = "TodoWrite"
)

// ContentModifyingTools are the edit/write-class tools.
var ContentModifyingTools = map[string]bool{
	"Edit":         true,
	"Write":        true,
	"MultiEdit":    true,
	"NotebookEdit": true,
}
