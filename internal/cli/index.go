package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/rcliao/session-recall/internal/boundary"
	"github.com/rcliao/session-recall/internal/config"
	"github.com/rcliao/session-recall/internal/hook"
	"github.com/rcliao/session-recall/internal/logging"
	"github.com/rcliao/session-recall/internal/model"
	"github.com/rcliao/session-recall/internal/recovery"
	"github.com/rcliao/session-recall/internal/segindex"
	"github.com/rcliao/session-recall/internal/store"
	"github.com/rcliao/session-recall/internal/summarize"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index new transcript lines into segments (Stop hook)",
		Long: "Reads hook JSON from stdin, appends the transcript lines written since the last run " +
			"to the session's segment index and archives newly sealed segments. Always exits 0.",
		Args: cobra.NoArgs,
		Run:  runIndex,
	}

	cmd.Flags().String("transcript", "", "Transcript path (overrides hook input)")
	cmd.Flags().String("session", "", "Session id (overrides hook input)")

	RootCmd.AddCommand(cmd)
}

func runIndex(cmd *cobra.Command, args []string) {
	cfg, log := loadHookConfig("session-indexer")
	defer log.Close()
	defer guard(log)

	in, err := readHookInput(os.Stdin)
	if err != nil {
		log.Warn("hook input", "err", err)
	}
	if v, _ := cmd.Flags().GetString("transcript"); v != "" {
		in.TranscriptPath = v
	}
	if v, _ := cmd.Flags().GetString("session"); v != "" {
		in.SessionID = v
	}

	if _, err := indexSession(cmd.Context(), cfg, log, in); err != nil {
		log.Error("index failed", "session", in.SessionID, "err", err)
	}
}

// indexReport summarizes one index run.
type indexReport struct {
	Session  hook.Session
	Result   segindex.Result
	Archived int
}

// indexSession brings the session's index up to date with its transcript and
// mirrors newly sealed segments into the archive. Archive failures are
// logged and do not fail the run.
func indexSession(ctx context.Context, cfg *config.Config, log *logging.Logger, in hook.Input) (indexReport, error) {
	var rep indexReport

	res, err := hook.NewResolver(cfg.ProjectsDir, cfg.Discovery.Exclude)
	if err != nil {
		return rep, err
	}
	sess, err := res.Resolve(in)
	if err != nil {
		return rep, err
	}
	rep.Session = sess

	fs := segindex.NewFileStore(cfg.SessionsDir)
	idx, err := fs.Load(sess.ID)
	switch {
	case errors.Is(err, segindex.ErrCorrupt):
		log.Warn("rebuilding corrupt index", "session", sess.ID, "err", err)
	case err != nil:
		return rep, err
	}

	ix := newIndexer(cfg, log)
	rep.Result, err = ix.Update(idx, sess.TranscriptPath)
	if err != nil {
		return rep, err
	}
	if idx.Project == "" {
		idx.Project = sess.Project
	}
	if err := fs.Save(idx); err != nil {
		return rep, err
	}
	log.Info("indexed",
		"session", sess.ID,
		"lines", rep.Result.LinesRead,
		"new_segments", len(rep.Result.NewSegments),
		"total_segments", idx.TotalSegments)

	if cfg.Archive.Enabled && len(rep.Result.NewSegments) > 0 {
		n, err := archiveSegments(ctx, cfg.Archive.Path, idx, rep.Result.NewSegments)
		rep.Archived = n
		if err != nil {
			log.Warn("archive failed", "session", sess.ID, "archived", n, "err", err)
		}
	}
	return rep, nil
}

func newIndexer(cfg *config.Config, log *logging.Logger) *segindex.Indexer {
	s := cfg.Segmentation
	return &segindex.Indexer{
		Detector: boundary.New(boundary.Options{
			MinLines:      s.MinLines,
			MaxLines:      s.MaxLines,
			TimeGap:       s.TimeGap,
			NewTopicChars: s.NewTopicChars,
		}),
		Summarizer: summarize.New(cfg.Topics.Extra...),
		Log:        log.With("indexer"),
	}
}

func archiveSegments(ctx context.Context, path string, idx *model.Index, segs []model.Segment) (int, error) {
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	ex := &recovery.Extractor{Path: idx.TranscriptPath}
	archived := 0
	for _, seg := range segs {
		excerpt, err := ex.Render(seg)
		if err != nil {
			return archived, err
		}
		_, created, err := s.Put(ctx, store.PutParams{
			SessionID: idx.SessionID,
			Project:   idx.Project,
			Segment:   seg,
			Excerpt:   excerpt,
		})
		if err != nil {
			return archived, err
		}
		if created {
			archived++
		}
	}
	return archived, nil
}

// readHookInput reads hook JSON from stdin unless stdin is a terminal.
func readHookInput(f *os.File) (hook.Input, error) {
	stat, err := f.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return hook.Input{}, nil
	}
	return hook.ReadInput(io.LimitReader(f, 1<<20))
}
