package cli

import (
	"github.com/rcliao/session-recall/internal/logging"
	"github.com/rcliao/session-recall/internal/mcp"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve archive search and recovery over MCP (stdio)",
		Args:  cobra.NoArgs,
		Run:   runMCP,
	}

	RootCmd.AddCommand(cmd)
}

func runMCP(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	log := logging.New(cfg.Log.Dir, "session-recall-mcp", cfg.Log.Level)
	defer log.Close()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := mcp.Serve(&mcp.Server{Store: s, Cfg: cfg, Log: log}); err != nil {
		exitErr("mcp", err)
	}
}
