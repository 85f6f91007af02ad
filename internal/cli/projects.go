package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List archived projects",
		Run:   runProjects,
	}

	RootCmd.AddCommand(cmd)
}

func runProjects(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	rows, err := s.ListProjects(cmd.Context())
	if err != nil {
		exitErr("list projects", err)
	}

	if textFormat() {
		for _, p := range rows {
			fmt.Println(renderStat(p.Segments, fmt.Sprintf("%s (%d sessions)", p.Project, p.Sessions)))
		}
		return
	}
	printJSON(rows)
}
