// Package cli implements the session-recall CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rcliao/session-recall/internal/config"
	"github.com/rcliao/session-recall/internal/store"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "session-recall",
	Short: "Segment agent transcripts and recover context after compaction",
	Long: "Indexes agent session transcripts into topic segments on every Stop hook and " +
		"rebuilds a budgeted recovery document on SessionStart. Sealed segments are " +
		"archived in SQLite for search.",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $SESSION_RECALL_CONFIG or ~/.session-recall/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Archive path (default: $SESSION_RECALL_DB or ~/.session-recall/archive.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

// loadConfig returns the effective configuration. Interactive commands
// treat a broken config file as fatal; hooks use loadHookConfig.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	return applyFlags(cfg)
}

func applyFlags(cfg *config.Config) *config.Config {
	if dbPath != "" {
		cfg.Archive.Path = config.ExpandHome(dbPath)
	}
	return cfg
}

func getDBPath() string {
	if dbPath != "" {
		return config.ExpandHome(dbPath)
	}
	return loadConfig().Archive.Path
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func textFormat() bool {
	return formatFlag == "text"
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
