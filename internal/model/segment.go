package model

// IndexVersion is the on-disk format version of a segment index.
const IndexVersion = 1

// Segment is a sealed, contiguous range of transcript lines.
type Segment struct {
	ID           string         `json:"segment_id"`
	StartLine    int            `json:"start_line"`
	EndLine      int            `json:"end_line"`
	LineCount    int            `json:"line_count"`
	BoundaryType string         `json:"boundary_type"`
	Timestamp    string         `json:"timestamp"`
	Topics       []string       `json:"topics"`
	FilesTouched []string       `json:"files_touched"`
	ToolsUsed    map[string]int `json:"tools_used"`
	Decisions    []string       `json:"decisions"`
	Summary      string         `json:"summary"`
	StartOffset  int64          `json:"start_offset,omitempty"`
	EndOffset    int64          `json:"end_offset,omitempty"`
}

// Digest accumulates what a segment is about while it is still open.
type Digest struct {
	Topics    []string       `json:"topics,omitempty"`
	Files     []string       `json:"files,omitempty"`
	Tools     map[string]int `json:"tools,omitempty"`
	Decisions []string       `json:"decisions,omitempty"`
}

// Tail is the minimal view of the last counted record, kept so boundary
// rules that look at the previous record keep working across runs.
type Tail struct {
	Kind      Kind   `json:"kind"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Record rebuilds a record stub from the tail.
func (t *Tail) Record() *Record {
	if t == nil {
		return nil
	}
	return &Record{Kind: t.Kind, Timestamp: t.Timestamp}
}

// ActiveSegment is the unsealed suffix of the transcript.
type ActiveSegment struct {
	ID          string `json:"segment_id"`
	StartLine   int    `json:"start_line"`
	StartOffset int64  `json:"start_offset,omitempty"`
	LineCount   int    `json:"line_count"`
	Timestamp   string `json:"timestamp,omitempty"`
	Digest      Digest `json:"digest"`
	Tail        *Tail  `json:"tail,omitempty"`
}

// Index is the persisted per-session segment index.
type Index struct {
	Version           int            `json:"version"`
	SessionID         string         `json:"session_id"`
	Project           string         `json:"project"`
	TranscriptPath    string         `json:"jsonl_file"`
	LastIndexedLine   int            `json:"last_indexed_line"`
	LastIndexedOffset int64          `json:"last_indexed_offset"`
	TotalSegments     int            `json:"total_segments"`
	Segments          []Segment      `json:"segments"`
	Active            *ActiveSegment `json:"active_segment"`
	LastUpdated       string         `json:"last_updated,omitempty"`
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{Version: IndexVersion, Segments: []Segment{}}
}
