package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joss/domem/internal/memory"
	"github.com/joss/domem/internal/runtime"
	"github.com/joss/domem/internal/tokens"
)

func contextCmd() *cobra.Command {
	var (
		project    string
		user       string
		level      int
		showTokens bool
	)

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the digest of prior work on a project",
		Long: `Render recent sessions of a project for injection into a new agent session.

Levels:
  1  last 3 sessions, counts only
  2  last 3 sessions, 5 newest observations each (truncated)
  3  last 10 sessions, 20 observations and 5 summaries each,
     plus what the rest of the team did this week when --user is set`,
		Run: func(cmd *cobra.Command, args []string) {
			d, err := requireStore().ContextDigest(runtime.ShutdownContext(), projectOrCwd(project), user, level)
			if err != nil {
				exitOnError(err)
			}

			if showTokens {
				approx := "~"
				if tokens.Exact() {
					approx = ""
				}
				fmt.Fprintf(os.Stderr, "level %d: %s%d tokens (budget %d)\n",
					d.Level, approx, d.Tokens, tokens.Budget[d.Level])
			}
			emit(d, d.Text)
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project path (default: git root of cwd)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "Only this user's sessions; adds team context at level 3")
	cmd.Flags().IntVarP(&level, "level", "l", memory.LevelBrief, "Disclosure level 1-3")
	cmd.Flags().BoolVar(&showTokens, "tokens", false, "Report the digest size on stderr")
	return cmd
}
