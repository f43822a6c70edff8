package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joss/domem/internal/runtime"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session lifecycle commands",
	}

	// domem session start
	var id, project, user string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start a session and print its id",
		Run: func(cmd *cobra.Command, args []string) {
			s := requireStore()
			if id == "" {
				id = uuid.NewString()
			}
			if err := s.CreateSession(runtime.ShutdownContext(), id, projectOrCwd(project), user); err != nil {
				exitOnError(err)
			}
			emit(map[string]string{"id": id}, id)
		},
	}
	startCmd.Flags().StringVar(&id, "id", "", "Session id (default: random UUID)")
	startCmd.Flags().StringVarP(&project, "project", "p", "", "Project path (default: git root of cwd)")
	startCmd.Flags().StringVarP(&user, "user", "u", "", "User name (default: DO_USER_NAME)")

	// domem session end <id>
	endCmd := &cobra.Command{
		Use:   "end <id>",
		Short: "End a session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := requireStore().EndSession(runtime.ShutdownContext(), args[0]); err != nil {
				exitOnError(err)
			}
			emit(map[string]string{"ended": args[0]}, "Ended "+args[0])
		},
	}

	// domem session archive <id>
	archiveCmd := &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a session, ending it if still open",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := requireStore().ArchiveSession(runtime.ShutdownContext(), args[0]); err != nil {
				exitOnError(err)
			}
			emit(map[string]string{"archived": args[0]}, "Archived "+args[0])
		},
	}

	// domem session get <id>
	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			sess, err := requireStore().GetSession(runtime.ShutdownContext(), args[0])
			if err != nil {
				exitOnError(err)
			}
			if sess == nil {
				exitOnError(fmt.Errorf("session %s not found", args[0]))
			}
			emit(sess, renderer().Session(sess))
		},
	}

	// domem session list
	var limit int
	var listUser string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		Run: func(cmd *cobra.Command, args []string) {
			sessions, err := requireStore().GetRecentSessions(runtime.ShutdownContext(), limit, listUser)
			if err != nil {
				exitOnError(err)
			}
			emit(sessions, renderer().Sessions(sessions))
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 10, "Max sessions")
	listCmd.Flags().StringVarP(&listUser, "user", "u", "", "Only this user's sessions")

	// domem session team
	var teamProject string
	var teamLimit int
	teamCmd := &cobra.Command{
		Use:   "team",
		Short: "List every user's sessions on a project",
		Run: func(cmd *cobra.Command, args []string) {
			sessions, err := requireStore().GetTeamSessions(runtime.ShutdownContext(), projectOrCwd(teamProject), teamLimit)
			if err != nil {
				exitOnError(err)
			}
			emit(sessions, renderer().Sessions(sessions))
		},
	}
	teamCmd.Flags().StringVarP(&teamProject, "project", "p", "", "Project path (default: git root of cwd)")
	teamCmd.Flags().IntVarP(&teamLimit, "limit", "n", 20, "Max sessions")

	cmd.AddCommand(startCmd, endCmd, archiveCmd, getCmd, listCmd, teamCmd)
	return cmd
}
