package recovery

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rcliao/session-recall/internal/model"
	"github.com/rcliao/session-recall/internal/transcript"
)

const (
	// MaxExcerptRunes bounds each rendered message.
	MaxExcerptRunes = 500
	maxCompleted    = 3
	maxWorkingOn    = 2
)

// Extractor renders literal excerpts of segments from their transcript.
type Extractor struct {
	Path string
}

// Render re-reads the segment's lines and renders them. Seeks to the
// segment's start offset when the index recorded one.
func (e *Extractor) Render(seg model.Segment) (string, error) {
	sc, err := transcript.Open(e.Path, seg.StartLine, seg.StartOffset)
	if err != nil {
		return "", fmt.Errorf("open transcript: %w", err)
	}
	defer sc.Close()

	var recs []model.Record
	for sc.Next() {
		line := sc.Line()
		if line.Number > seg.EndLine {
			break
		}
		if rec, ok := transcript.Decode(line); ok && rec.Kind.Counted() {
			recs = append(recs, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return RenderRecords(recs), nil
}

// RenderRecords formats records as role-prefixed lines with short tool
// annotations.
func RenderRecords(recs []model.Record) string {
	return strings.Join(RenderLines(recs), "\n")
}

// RenderLines is RenderRecords without the final join.
func RenderLines(recs []model.Record) []string {
	var out []string
	for _, r := range recs {
		switch r.Kind {
		case model.KindInbound:
			if strings.TrimSpace(r.Text) != "" {
				out = append(out, "USER: "+truncateRunes(r.Text, MaxExcerptRunes))
			}
		case model.KindOutbound:
			for _, b := range r.Blocks {
				out = append(out, renderBlock(b)...)
			}
		}
	}
	return out
}

func renderBlock(b model.Block) []string {
	switch {
	case b.Type == model.BlockText:
		if strings.TrimSpace(b.Text) == "" {
			return nil
		}
		return []string{"ASSISTANT: " + truncateRunes(b.Text, MaxExcerptRunes)}
	case model.ContentModifyingTools[b.Name]:
		if p := transcript.TargetPath(b); p != "" {
			return []string{fmt.Sprintf("[Modified: %s]", filepath.Base(p))}
		}
	case b.Name == model.ToolTaskList:
		var out []string
		if done := transcript.TodosWithStatus(b, transcript.StatusCompleted); len(done) > 0 {
			out = append(out, fmt.Sprintf("[Completed: %s]", strings.Join(head(done, maxCompleted), ", ")))
		}
		if doing := transcript.TodosWithStatus(b, transcript.StatusInProgress); len(doing) > 0 {
			out = append(out, fmt.Sprintf("[Working on: %s]", strings.Join(head(doing, maxWorkingOn), ", ")))
		}
		return out
	}
	return nil
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
