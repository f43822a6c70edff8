package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joss/domem/internal/render"
	"github.com/joss/domem/internal/runtime"
)

func migrateCmd() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Bring the configured database to the newest schema version.

Each version runs in its own transaction; a failed version is rolled back
and reported, and rerunning resumes from it. Use --status to only report
the current version.`,
		Run: func(cmd *cobra.Command, args []string) {
			// open without migrating so the before/after versions are visible
			noMigrate = true
			s := requireStore()
			a := s.Adapter()
			ctx := runtime.ShutdownContext()

			before, err := a.CurrentVersion(ctx)
			if err != nil {
				exitOnError(err)
			}
			latest := latestVersion(a.Backend())

			if statusOnly {
				emit(map[string]any{
					"backend":  a.Backend(),
					"location": location(storeCfg),
					"version":  before,
					"latest":   latest,
				}, render.New(true).Status(a.Backend(), location(storeCfg), before, latest))
				return
			}

			start := time.Now()
			if err := a.RunMigrations(ctx); err != nil {
				exitOnError(err)
			}
			after, err := a.CurrentVersion(ctx)
			if err != nil {
				exitOnError(err)
			}

			text := fmt.Sprintf("Schema is up to date (v%d)", after)
			if after != before {
				text = fmt.Sprintf("Migrated %s schema v%d → v%d in %s",
					a.Backend(), before, after, render.FormatDuration(time.Since(start)))
			}
			emit(map[string]any{"backend": a.Backend(), "from": before, "to": after}, text)
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "Only report the schema version")
	return cmd
}
