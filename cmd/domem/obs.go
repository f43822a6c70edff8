package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joss/domem/internal/memory"
	"github.com/joss/domem/internal/runtime"
)

func obsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "obs",
		Short: "Observation commands",
		Long:  "Record and query observations of tool use within sessions",
	}

	// domem obs add <content>
	var in memory.ObservationInput
	addCmd := &cobra.Command{
		Use:   "add <content|->",
		Short: "Record an observation",
		Long:  "Record an observation. Use - to read the content from stdin.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			in.Content = readArg(args[0])
			id, err := requireStore().AddObservation(runtime.ShutdownContext(), in)
			if err != nil {
				exitOnError(err)
			}
			emit(map[string]int64{"id": id}, fmt.Sprintf("%d", id))
		},
	}
	addCmd.Flags().StringVarP(&in.SessionID, "session", "s", "", "Session id")
	addCmd.Flags().StringVarP(&in.Type, "type", "t", memory.ObsFeature, "Observation type (decision|bugfix|feature|delegation|conversation|...)")
	addCmd.Flags().StringVarP(&in.FilePath, "file", "f", "", "File the observation is about")
	addCmd.Flags().StringVarP(&in.AgentName, "agent", "a", "", "Agent a delegation went to")
	_ = addCmd.MarkFlagRequired("session")

	// domem obs list
	var session, obsType string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List observations, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			obs, err := requireStore().GetObservations(runtime.ShutdownContext(), session, obsType)
			if err != nil {
				exitOnError(err)
			}
			emit(obs, renderer().Observations(obs))
		},
	}
	listCmd.Flags().StringVarP(&session, "session", "s", "", "Only this session")
	listCmd.Flags().StringVarP(&obsType, "type", "t", "", "Only this type")

	// domem obs search <query>
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over observation content",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			obs, err := requireStore().SearchObservations(runtime.ShutdownContext(), args[0])
			if err != nil {
				exitOnError(err)
			}
			emit(obs, renderer().Observations(obs))
		},
	}

	// domem obs team
	var project string
	var limit int
	teamCmd := &cobra.Command{
		Use:   "team",
		Short: "Recent observations of every user on a project",
		Run: func(cmd *cobra.Command, args []string) {
			obs, err := requireStore().GetTeamObservations(runtime.ShutdownContext(), projectOrCwd(project), limit)
			if err != nil {
				exitOnError(err)
			}
			emit(obs, renderer().Observations(obs))
		},
	}
	teamCmd.Flags().StringVarP(&project, "project", "p", "", "Project path (default: git root of cwd)")
	teamCmd.Flags().IntVarP(&limit, "limit", "n", 50, "Max observations")

	cmd.AddCommand(addCmd, listCmd, searchCmd, teamCmd)
	return cmd
}
