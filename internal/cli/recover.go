package cli

import (
	"bytes"
	"os"

	"github.com/rcliao/session-recall/internal/hook"
	"github.com/rcliao/session-recall/internal/recovery"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Print recovery context for a new session (SessionStart hook)",
		Long: "Assembles the persistence documents of the project and the highest scoring " +
			"segments of the session into one budgeted document. Prints nothing on failure.",
		Args: cobra.NoArgs,
		Run:  runRecover,
	}

	cmd.Flags().String("project-dir", "", "Project directory with persistence documents (default: hook cwd)")
	cmd.Flags().IntP("budget", "b", 0, "Character budget for conversation excerpts (default: recovery.budget)")
	cmd.Flags().Bool("raw", false, "Print plain text instead of hook JSON")

	RootCmd.AddCommand(cmd)
}

func runRecover(cmd *cobra.Command, args []string) {
	cfg, log := loadHookConfig("session-recovery")
	defer log.Close()
	defer guard(log)

	in, err := readHookInput(os.Stdin)
	if err != nil {
		log.Warn("hook input", "err", err)
	}
	projectDir, _ := cmd.Flags().GetString("project-dir")
	if projectDir == "" {
		projectDir = defaultProjectDir(in)
	}
	if cmd.Flags().Changed("budget") {
		cfg.Recovery.Budget, _ = cmd.Flags().GetInt("budget")
	}
	raw, _ := cmd.Flags().GetBool("raw")

	doc, err := recovery.ForSession(cfg, log, in, projectDir)
	if err != nil {
		log.Error("recovery failed", "err", err)
		return
	}

	var out bytes.Buffer
	if raw {
		out.WriteString(doc.String())
		out.WriteByte('\n')
	} else if err := hook.WriteContext(&out, hook.EventSessionStart, doc.String()); err != nil {
		log.Error("encode output", "err", err)
		return
	}
	os.Stdout.Write(out.Bytes())
}

func defaultProjectDir(in hook.Input) string {
	if in.CWD != "" {
		return in.CWD
	}
	if v := os.Getenv("CLAUDE_PROJECT_DIR"); v != "" {
		return v
	}
	wd, _ := os.Getwd()
	return wd
}
