package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joss/domem/internal/memory"
	"github.com/joss/domem/internal/runtime"
)

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan document commands",
	}

	// domem plan create
	var session, title, file, content string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Store a draft plan",
		Run: func(cmd *cobra.Command, args []string) {
			id, err := requireStore().CreatePlan(runtime.ShutdownContext(), session, title, file, readArg(content))
			if err != nil {
				exitOnError(err)
			}
			emit(map[string]int64{"id": id}, fmt.Sprintf("%d", id))
		},
	}
	createCmd.Flags().StringVarP(&session, "session", "s", "", "Session id")
	createCmd.Flags().StringVar(&title, "title", "", "Plan title")
	createCmd.Flags().StringVarP(&file, "file", "f", "", "Plan file path")
	createCmd.Flags().StringVarP(&content, "content", "c", "", "Plan body (- reads stdin)")
	_ = createCmd.MarkFlagRequired("session")
	_ = createCmd.MarkFlagRequired("title")

	// domem plan status <id> <status>
	statusCmd := &cobra.Command{
		Use:   "status <id> <" + strings.Join(memory.PlanStatuses, "|") + ">",
		Short: "Change a plan's status",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			id := parseID(args[0])
			if err := requireStore().UpdatePlanStatus(runtime.ShutdownContext(), id, args[1]); err != nil {
				exitOnError(err)
			}
			emit(map[string]any{"id": id, "status": args[1]}, fmt.Sprintf("Plan #%d → %s", id, args[1]))
		},
	}

	// domem plan get <id>
	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one plan with its content",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id := parseID(args[0])
			p, err := requireStore().GetPlan(runtime.ShutdownContext(), id)
			if err != nil {
				exitOnError(err)
			}
			if p == nil {
				exitOnError(fmt.Errorf("plan %d not found", id))
			}
			emit(p, renderer().Plan(p))
		},
	}

	// domem plan list
	var status string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List plans by most recent update",
		Run: func(cmd *cobra.Command, args []string) {
			if status != "" {
				if err := memory.ValidatePlanStatus(status); err != nil {
					exitOnError(err)
				}
			}
			plans, err := requireStore().GetPlans(runtime.ShutdownContext(), status)
			if err != nil {
				exitOnError(err)
			}
			emit(plans, renderer().Plans(plans))
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "Only plans with this status")

	cmd.AddCommand(createCmd, statusCmd, getCmd, listCmd)
	return cmd
}
