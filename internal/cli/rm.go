package cli

import (
	"fmt"

	"github.com/rcliao/session-recall/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Delete archived segments",
		Long:  "Delete one archived segment, or every segment of a session when --segment is omitted.",
		Run:   runRm,
	}

	cmd.Flags().StringP("session", "s", "", "Session id (required)")
	cmd.Flags().String("segment", "", "Segment id")

	cmd.MarkFlagRequired("session")

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	session, _ := cmd.Flags().GetString("session")
	segment, _ := cmd.Flags().GetString("segment")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	n, err := s.Rm(cmd.Context(), store.RmParams{SessionID: session, SegmentID: segment})
	if err != nil {
		exitErr("rm", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"session_id":%q,"deleted":%d}`+"\n", session, n)
}
