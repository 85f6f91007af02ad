package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show archive statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), getDBPath())
	if err != nil {
		exitErr("stats", err)
	}

	if !textFormat() {
		printJSON(stats)
		return
	}

	fmt.Println(headerStyle.Render(stats.DBPath))
	fmt.Println(renderStat(stats.TotalSegments, "segments"))
	fmt.Println(renderStat(stats.TotalChunks, "chunks"))
	fmt.Println(renderStat(stats.Sessions, "sessions"))
	fmt.Println(renderStat(stats.DBSizeBytes, "bytes"))

	kinds := make([]string, 0, len(stats.Boundaries))
	for k := range stats.Boundaries {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Println(renderStat(stats.Boundaries[k], k))
	}
}
