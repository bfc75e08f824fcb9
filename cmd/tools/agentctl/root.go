package main

import (
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/agentdesk/backend/internal/config"
	"github.com/zhouzirui/agentdesk/backend/internal/logging"
)

// cli carries state shared by all subcommands of one invocation.
type cli struct {
	out     io.Writer
	cfg     *config.Config
	dbPath  string
	verbose bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:   "agentctl",
		Short: "Operate the agentdesk query router from the terminal",
		Long: `agentctl runs queries through the same router and workers as the HTTP API,
ingests documents for the document Q&A worker and manages meeting records.

Quick Start:
  agentctl ask "What's the weather in Paris?"
  agentctl ask --doc handbook.md "How many vacation days do I get?"
  agentctl meetings add --title "Standup" --start "2025-01-10 09:30"
  agentctl meetings list --format yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.dbPath != "" {
				cfg.Database.Path = c.dbPath
			}
			if c.verbose {
				cfg.Log.Level = "debug"
			}
			cfg.Log.Pretty = true
			logging.SetupWriter(cfg.Log, os.Stderr)

			c.cfg = cfg
			return nil
		},
	}

	root.SetOut(out)
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "Meeting database path (overrides DATABASE_PATH)")

	root.AddCommand(c.newAskCmd(), c.newIngestCmd(), c.newMeetingsCmd())
	return root
}
