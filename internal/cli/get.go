package cli

import (
	"fmt"

	"github.com/rcliao/session-recall/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Retrieve an archived segment",
		Run:   runGet,
	}

	cmd.Flags().StringP("session", "s", "", "Session id (required)")
	cmd.Flags().String("segment", "", "Segment id, e.g. seg-003 (required)")

	cmd.MarkFlagRequired("session")
	cmd.MarkFlagRequired("segment")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	session, _ := cmd.Flags().GetString("session")
	segment, _ := cmd.Flags().GetString("segment")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	a, err := s.Get(cmd.Context(), store.GetParams{SessionID: session, SegmentID: segment})
	if err != nil {
		exitErr("get", err)
	}

	if textFormat() {
		fmt.Println(headerStyle.Render(a.Project) + labelStyle.Render(" / "+a.SessionID))
		fmt.Println(renderSegment(a.Segment))
		fmt.Println()
		fmt.Println(a.Excerpt)
		return
	}
	printJSON(a)
}
