package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joss/domem/internal/runtime"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "End-of-session summary commands",
	}

	// domem summary add
	var session, request, investigation, result string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a session summary",
		Run: func(cmd *cobra.Command, args []string) {
			id, err := requireStore().AddSummary(runtime.ShutdownContext(),
				session, readArg(request), readArg(investigation), readArg(result))
			if err != nil {
				exitOnError(err)
			}
			emit(map[string]int64{"id": id}, fmt.Sprintf("%d", id))
		},
	}
	addCmd.Flags().StringVarP(&session, "session", "s", "", "Session id")
	addCmd.Flags().StringVar(&request, "request", "", "What was asked")
	addCmd.Flags().StringVar(&investigation, "investigation", "", "What was looked into")
	addCmd.Flags().StringVar(&result, "result", "", "What came out of it")
	_ = addCmd.MarkFlagRequired("session")

	// domem summary list
	var listSession string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List summaries, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			sums, err := requireStore().GetSummaries(runtime.ShutdownContext(), listSession)
			if err != nil {
				exitOnError(err)
			}
			emit(sums, renderer().Summaries(sums))
		},
	}
	listCmd.Flags().StringVarP(&listSession, "session", "s", "", "Only this session")

	// domem summary search <query>
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over summaries",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			sums, err := requireStore().SearchSummaries(runtime.ShutdownContext(), args[0])
			if err != nil {
				exitOnError(err)
			}
			emit(sums, renderer().Summaries(sums))
		},
	}

	// domem summary team
	var project string
	var days int
	teamCmd := &cobra.Command{
		Use:   "team",
		Short: "Summaries written on a project by anyone",
		Run: func(cmd *cobra.Command, args []string) {
			sums, err := requireStore().GetTeamSummaries(runtime.ShutdownContext(), projectOrCwd(project), days)
			if err != nil {
				exitOnError(err)
			}
			emit(sums, renderer().Summaries(sums))
		},
	}
	teamCmd.Flags().StringVarP(&project, "project", "p", "", "Project path (default: git root of cwd)")
	teamCmd.Flags().IntVarP(&days, "days", "d", 7, "Look back this many days")

	cmd.AddCommand(addCmd, listCmd, searchCmd, teamCmd)
	return cmd
}
