// Package main provides the domem CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joss/domem/internal/logging"
	"github.com/joss/domem/internal/runtime"
)

var (
	version = "0.1.0"

	configPath  string
	noMigrate   bool
	asJSON      bool
	logLevel    string
	askPassword bool
)

func main() {
	defer logging.Recover("cli")

	rootCmd := &cobra.Command{
		Use:   "domem",
		Short: "Persistent working memory for agent sessions",
		Long: `domem stores development sessions, observations, summaries and plans
in an embedded SQLite file or a shared MySQL server, and renders a
token-budgeted digest of prior work for session restore.

The backend comes from DO_DB_* environment variables, or from
.do/db_config.json in the current directory, or defaults to ~/.do/memory.db.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetLevel(logging.ParseLevel(logLevel))
			runtime.ListenForSignals()
			if asJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
				color.NoColor = true
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeStore()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default .do/db_config.json)")
	rootCmd.PersistentFlags().BoolVar(&noMigrate, "no-migrate", false, "Do not apply pending migrations on open")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&askPassword, "ask-password", false, "Prompt for the database password")

	rootCmd.AddGroup(
		&cobra.Group{ID: "memory", Title: "Memory:"},
		&cobra.Group{ID: "admin", Title: "Administration:"},
	)

	for _, c := range []*cobra.Command{sessionCmd(), obsCmd(), summaryCmd(), planCmd(), teamCmd(), contextCmd()} {
		c.GroupID = "memory"
		rootCmd.AddCommand(c)
	}

	for _, c := range []*cobra.Command{migrateCmd(), backupCmd()} {
		c.GroupID = "admin"
		rootCmd.AddCommand(c)
	}

	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		closeStore()
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show domem version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("domem version %s\n", version)
		},
	}
}
