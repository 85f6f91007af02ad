package recovery

import (
	"errors"

	"github.com/rcliao/session-recall/internal/config"
	"github.com/rcliao/session-recall/internal/hook"
	"github.com/rcliao/session-recall/internal/logging"
	"github.com/rcliao/session-recall/internal/model"
	"github.com/rcliao/session-recall/internal/segindex"
)

// Builder assembles recovery documents.
type Builder struct {
	Selector    *Selector
	Documents   []config.Document
	MaxDocChars int
	Log         *logging.Logger
}

// NewBuilder returns a builder using the recovery settings from cfg.
func NewBuilder(cfg config.Recovery) *Builder {
	sel := NewSelector()
	sel.Budget = cfg.Budget
	sel.Estimate = LineEstimator(cfg.CharsPerLine)
	return &Builder{
		Selector:    sel,
		Documents:   cfg.Documents,
		MaxDocChars: cfg.MaxDocChars,
	}
}

// Build reads the persistence documents in projectDir and, when idx is not
// nil, selects and renders segments from it. transcriptPath is used when
// the index does not name its transcript. A segment that cannot be rendered
// is logged and left out; the rest of the document is still returned.
func (b *Builder) Build(idx *model.Index, transcriptPath, projectDir string) (*Document, error) {
	doc := &Document{}

	sections, taskDoc, err := ReadSections(projectDir, b.Documents, b.MaxDocChars)
	if err != nil {
		return nil, err
	}
	doc.Sections = sections
	doc.Pending = ParsePending(taskDoc)

	if idx == nil || len(idx.Segments) == 0 {
		b.Log.Debug("no sealed segments", "sections", len(sections))
		return doc, nil
	}
	if idx.TranscriptPath != "" {
		transcriptPath = idx.TranscriptPath
	}
	if transcriptPath == "" {
		b.Log.Warn("no transcript path", "session", idx.SessionID)
		return doc, nil
	}

	picked := b.Selector.Select(idx.Segments, doc.Pending)
	ex := &Extractor{Path: transcriptPath}
	for _, c := range picked {
		content, err := ex.Render(c.Segment)
		if err != nil {
			b.Log.Warn("render failed", "session", idx.SessionID, "segment", c.Segment.ID, "err", err)
			continue
		}
		if content == "" {
			continue
		}
		doc.Excerpts = append(doc.Excerpts, Excerpt{Candidate: c, Content: content})
	}
	b.Log.Info("recovery built",
		"session", idx.SessionID,
		"segments", len(idx.Segments),
		"selected", len(doc.Excerpts),
		"pending", len(doc.Pending))
	return doc, nil
}

// ForSession resolves the session named by in, loads its index when one
// exists and builds the document. Without a session only the persistence
// documents are included. A corrupt index is ignored.
func ForSession(cfg *config.Config, log *logging.Logger, in hook.Input, projectDir string) (*Document, error) {
	b := NewBuilder(cfg.Recovery)
	b.Log = log.With("builder")

	res, err := hook.NewResolver(cfg.ProjectsDir, cfg.Discovery.Exclude)
	if err != nil {
		return nil, err
	}
	sess, err := res.Resolve(in)
	if errors.Is(err, hook.ErrNoSession) {
		log.Info("no session found", "cwd", in.CWD)
		return b.Build(nil, "", projectDir)
	}
	if err != nil {
		return nil, err
	}

	idx, err := segindex.NewFileStore(cfg.SessionsDir).Load(sess.ID)
	if errors.Is(err, segindex.ErrCorrupt) {
		log.Warn("ignoring corrupt index", "session", sess.ID, "err", err)
	} else if err != nil {
		return nil, err
	}
	return b.Build(idx, sess.TranscriptPath, projectDir)
}
