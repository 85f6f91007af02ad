package cli

import (
	"fmt"

	"github.com/rcliao/session-recall/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived segments",
		Run:   runList,
	}

	cmd.Flags().StringP("project", "p", "", "Filter by project")
	cmd.Flags().StringP("session", "s", "", "Filter by session")
	cmd.Flags().String("boundary", "", "Filter by boundary type: max_lines, time_gap, task_completed, new_topic")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("ids-only", false, "Only output session/segment pairs")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	session, _ := cmd.Flags().GetString("session")
	boundary, _ := cmd.Flags().GetString("boundary")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	segments, err := s.List(cmd.Context(), store.ListParams{
		Project:   project,
		SessionID: session,
		Boundary:  boundary,
		Limit:     limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	if idsOnly {
		for _, a := range segments {
			fmt.Printf("%s/%s\n", a.SessionID, a.Segment.ID)
		}
		return
	}
	if textFormat() {
		for _, a := range segments {
			fmt.Println(renderSegment(a.Segment))
		}
		return
	}
	printJSON(segments)
}
