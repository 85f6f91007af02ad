package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export archived segments as JSON",
		Long:  "Export archived segments as a JSON array. Filter by session with -s.",
		Run:   runExport,
	}

	cmd.Flags().StringP("session", "s", "", "Filter by session")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	session, _ := cmd.Flags().GetString("session")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	segments, err := s.ExportAll(cmd.Context(), session)
	if err != nil {
		exitErr("export", err)
	}
	printJSON(segments)
}
