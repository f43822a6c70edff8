package main

import (
	"github.com/spf13/cobra"

	"github.com/joss/domem/internal/runtime"
)

func teamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Team-wide views of a shared database",
	}

	// domem team activity
	var project string
	var days int
	activityCmd := &cobra.Command{
		Use:   "activity",
		Short: "Sessions and observations per user",
		Run: func(cmd *cobra.Command, args []string) {
			act, err := requireStore().GetTeamActivity(runtime.ShutdownContext(), projectOrCwd(project), days)
			if err != nil {
				exitOnError(err)
			}
			emit(act, renderer().Activity(act, days))
		},
	}
	activityCmd.Flags().StringVarP(&project, "project", "p", "", "Project path (default: git root of cwd)")
	activityCmd.Flags().IntVarP(&days, "days", "d", 7, "Look back this many days")

	cmd.AddCommand(activityCmd)
	return cmd
}
