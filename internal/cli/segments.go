package cli

import (
	"errors"
	"fmt"

	"github.com/rcliao/session-recall/internal/segindex"
	"github.com/spf13/cobra"
)

var errNotIndexed = errors.New("not indexed")

func init() {
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Show the segment index of a session",
		Long:  "Show the live segment index of a session. Defaults to the most recently indexed session.",
		Args:  cobra.NoArgs,
		Run:   runSegments,
	}

	cmd.Flags().StringP("session", "s", "", "Session id")

	RootCmd.AddCommand(cmd)
}

func runSegments(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	sessionID, _ := cmd.Flags().GetString("session")

	fs := segindex.NewFileStore(cfg.SessionsDir)
	if sessionID == "" {
		sessions, err := fs.Sessions()
		if err != nil {
			exitErr("list sessions", err)
		}
		if len(sessions) == 0 {
			exitErr("segments", fmt.Errorf("no indexed sessions in %s", cfg.SessionsDir))
		}
		sessionID = sessions[0].SessionID
	}

	idx, err := fs.Load(sessionID)
	if err != nil {
		exitErr("load index", err)
	}
	if len(idx.Segments) == 0 && idx.Active == nil {
		exitErr("segments", fmt.Errorf("session %s: %w", sessionID, errNotIndexed))
	}

	if !textFormat() {
		printJSON(idx)
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Session %s", idx.SessionID)))
	fmt.Println(labelStyle.Render(fmt.Sprintf("project %s, %d segments, indexed through line %d",
		idx.Project, len(idx.Segments), idx.LastIndexedLine)))
	for _, seg := range idx.Segments {
		fmt.Println(renderSegment(seg))
	}
	if a := idx.Active; a != nil && a.LineCount > 0 {
		fmt.Printf("%s  %s  %s\n",
			idStyle.Render(a.ID),
			labelStyle.Render(fmt.Sprintf("from line %d (%d records)", a.StartLine, a.LineCount)),
			boundaryStyle.Render("active"))
	}
}
