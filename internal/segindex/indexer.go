package segindex

import (
	"errors"
	"fmt"

	"github.com/rcliao/session-recall/internal/boundary"
	"github.com/rcliao/session-recall/internal/logging"
	"github.com/rcliao/session-recall/internal/model"
	"github.com/rcliao/session-recall/internal/summarize"
	"github.com/rcliao/session-recall/internal/transcript"
)

// Indexer extends an index with the lines appended to its transcript since
// the last run.
type Indexer struct {
	Detector   *boundary.Detector
	Summarizer *summarize.Summarizer
	Log        *logging.Logger
}

// NewIndexer returns an indexer with default thresholds and vocabulary.
func NewIndexer() *Indexer {
	return &Indexer{
		Detector:   boundary.New(boundary.DefaultOptions()),
		Summarizer: summarize.New(),
	}
}

// Result reports what one Update changed.
type Result struct {
	NewSegments []model.Segment
	LinesRead   int
	Records     int
}

// run is the mutable state of one Update. The caller's index is only
// touched once the whole append has been read.
type run struct {
	ix       *Indexer
	segments []model.Segment
	active   *model.ActiveSegment
	sealed   []model.Segment
}

// Update reads transcriptPath from the index cursor to the last complete
// line. When the transcript is shorter than the cursor it returns
// ErrTruncated and leaves idx unchanged.
func (ix *Indexer) Update(idx *model.Index, transcriptPath string) (Result, error) {
	var res Result

	sc, err := transcript.Open(transcriptPath, idx.LastIndexedLine, idx.LastIndexedOffset)
	if errors.Is(err, transcript.ErrBeyondEOF) {
		return res, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if err != nil {
		return res, fmt.Errorf("open transcript: %w", err)
	}
	defer sc.Close()

	if line, _ := sc.Pos(); line < idx.LastIndexedLine {
		return res, fmt.Errorf("%w: %d lines, indexed %d", ErrTruncated, line, idx.LastIndexedLine)
	}

	r := &run{
		ix:       ix,
		segments: append(make([]model.Segment, 0, len(idx.Segments)+1), idx.Segments...),
		active:   cloneActive(idx.Active),
	}
	if r.active == nil {
		r.active = r.open(idx.LastIndexedLine, idx.LastIndexedOffset)
	}

	for sc.Next() {
		line := sc.Line()
		res.LinesRead++
		rec, ok := transcript.Decode(line)
		if !ok || !rec.Kind.Counted() {
			continue
		}
		res.Records++
		r.step(&rec, line)
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("read transcript: %w", err)
	}

	lineNo, offset := sc.Pos()
	idx.Segments = r.segments
	idx.Active = r.active
	idx.LastIndexedLine = lineNo
	idx.LastIndexedOffset = offset
	idx.TotalSegments = len(idx.Segments)
	if idx.TranscriptPath == "" {
		idx.TranscriptPath = transcriptPath
	}

	res.NewSegments = r.sealed
	ix.Log.Debug("index updated",
		"session", idx.SessionID,
		"lines", res.LinesRead,
		"records", res.Records,
		"sealed", len(r.sealed),
		"cursor", lineNo)
	return res, nil
}

func (r *run) open(line int, offset int64) *model.ActiveSegment {
	return &model.ActiveSegment{
		ID:          fmt.Sprintf("seg-%03d", len(r.segments)),
		StartLine:   line,
		StartOffset: offset,
	}
}

func (r *run) step(rec *model.Record, line transcript.Line) {
	a := r.active
	d := r.ix.Detector.Detect(rec, a.Tail.Record(), a.LineCount+1)

	if d.Boundary && d.Placement == boundary.Before && a.LineCount > 0 {
		r.seal(d.Label, line.Number-1, line.Offset)
		a = r.active
	}

	r.add(a, rec)

	if d.Boundary && d.Placement == boundary.After {
		r.seal(d.Label, line.Number, line.End)
	}
}

func (r *run) add(a *model.ActiveSegment, rec *model.Record) {
	if a.LineCount == 0 {
		a.Timestamp = rec.Timestamp
	}
	a.LineCount++
	r.ix.Summarizer.Add(&a.Digest, rec)
	a.Tail = &model.Tail{Kind: rec.Kind, Timestamp: rec.Timestamp}
}

// seal closes the active segment at endLine and opens a new one after it.
// The tail carries over so the next record still sees its predecessor.
func (r *run) seal(label string, endLine int, endOffset int64) {
	a := r.active
	seg := model.Segment{
		ID:           a.ID,
		StartLine:    a.StartLine,
		EndLine:      endLine,
		LineCount:    a.LineCount,
		BoundaryType: label,
		Timestamp:    a.Timestamp,
		StartOffset:  a.StartOffset,
		EndOffset:    endOffset,
	}
	r.ix.Summarizer.Seal(a.Digest).Apply(&seg)

	r.segments = append(r.segments, seg)
	r.sealed = append(r.sealed, seg)
	r.ix.Log.Debug("segment sealed", "segment", seg.ID, "boundary", label, "start", seg.StartLine, "end", seg.EndLine)

	next := r.open(endLine+1, endOffset)
	next.Tail = a.Tail
	r.active = next
}

func cloneActive(a *model.ActiveSegment) *model.ActiveSegment {
	if a == nil {
		return nil
	}
	c := *a
	c.Digest = model.Digest{
		Topics:    append([]string(nil), a.Digest.Topics...),
		Files:     append([]string(nil), a.Digest.Files...),
		Decisions: append([]string(nil), a.Digest.Decisions...),
	}
	if a.Digest.Tools != nil {
		c.Digest.Tools = make(map[string]int, len(a.Digest.Tools))
		for k, v := range a.Digest.Tools {
			c.Digest.Tools[k] = v
		}
	}
	if a.Tail != nil {
		t := *a.Tail
		c.Tail = &t
	}
	return &c
}
