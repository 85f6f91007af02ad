package cli

import (
	"fmt"
	"strings"

	"github.com/rcliao/session-recall/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search archived segments",
		Long:  "Full-text search over the summaries, topics and excerpts of archived segments.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("project", "p", "", "Filter by project")
	cmd.Flags().StringP("session", "s", "", "Filter by session")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	session, _ := cmd.Flags().GetString("session")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.Search(cmd.Context(), store.SearchParams{
		Project:   project,
		SessionID: session,
		Query:     query,
		Limit:     limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if textFormat() {
		if len(results) == 0 {
			fmt.Println(labelStyle.Render("no matches"))
			return
		}
		for _, r := range results {
			fmt.Println(headerStyle.Render(r.Project) + labelStyle.Render(" / "+r.SessionID))
			fmt.Println(renderSegment(r.Segment))
			if r.MatchChunk != nil && r.MatchChunk.Seq > 0 {
				fmt.Println(excerptStyle.Render(snippet(r.MatchChunk.Text, 200)))
			}
		}
		return
	}

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}
	printJSON(results)
}
