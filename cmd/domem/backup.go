package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joss/domem/internal/backup"
	"github.com/joss/domem/internal/runtime"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export and restore memory archives",
		Long: `Write every session, observation, summary and plan to a .tar.gz archive,
or restore one. Archives are backend-neutral: export from the embedded
database and import into a shared server to move a team over.`,
	}

	// domem backup export <file>
	var description string
	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write all memory tables to an archive",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			meta, err := backup.NewManager(requireStore()).Export(runtime.ShutdownContext(), args[0], description)
			if err != nil {
				exitOnError(err)
			}
			emit(meta, fmt.Sprintf("Exported %d sessions, %d observations, %d summaries, %d plans to %s",
				meta.Counts["sessions"], meta.Counts["observations"], meta.Counts["summaries"], meta.Counts["plans"], args[0]))
		},
	}
	exportCmd.Flags().StringVarP(&description, "description", "d", "", "Note stored in the archive")

	// domem backup import <file>
	var replace bool
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore an archive",
		Long:  "Restore an archive. Without --replace it is merged and sessions that already exist are left alone.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			_, stats, err := backup.NewManager(requireStore()).Import(runtime.ShutdownContext(), args[0], replace)
			if err != nil {
				exitOnError(err)
			}
			emit(stats, fmt.Sprintf("Restored %d sessions, %d observations, %d summaries, %d plans (%d skipped)",
				stats.Sessions, stats.Observations, stats.Summaries, stats.Plans, stats.Skipped))
		},
	}
	importCmd.Flags().BoolVar(&replace, "replace", false, "Drop current contents first")

	// domem backup list <file>
	listCmd := &cobra.Command{
		Use:   "list <file>",
		Short: "Show an archive's metadata",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			meta, err := backup.NewManager(requireStore()).List(args[0])
			if err != nil {
				exitOnError(err)
			}
			text := fmt.Sprintf("%s backup v%s, schema v%d, taken %s\n  sessions=%d observations=%d summaries=%d plans=%d",
				meta.Backend, meta.Version, meta.SchemaVersion, meta.CreatedAt.Local().Format("2006-01-02 15:04"),
				meta.Counts["sessions"], meta.Counts["observations"], meta.Counts["summaries"], meta.Counts["plans"])
			if meta.Description != "" {
				text += "\n  " + meta.Description
			}
			emit(meta, text)
		},
	}

	cmd.AddCommand(exportCmd, importCmd, listCmd)
	return cmd
}
