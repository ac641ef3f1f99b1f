package commands

import (
	"github.com/spf13/cobra"
	"go.zr.dev/zr/internal/app"
)

func (c *CLI) newWorkflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow <name>",
		Short: "Run a named workflow as an ordered sequence of stages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noCache, _ := cmd.Flags().GetBool("no-cache")
			inspect, _ := cmd.Flags().GetBool("inspect")
			inspectOnError, _ := cmd.Flags().GetBool("inspect-on-error")
			outputMode, _ := cmd.Flags().GetString("output-mode")
			ci, _ := cmd.Flags().GetBool("ci")
			noDaemon, _ := cmd.Flags().GetBool("no-daemon")
			failFast, _ := cmd.Flags().GetBool("fail-fast")

			if ci {
				outputMode = "linear"
			}

			return c.app.RunWorkflow(cmd.Context(), args[0], app.RunOptions{
				NoCache:        noCache,
				Inspect:        inspect,
				InspectOnError: inspectOnError,
				OutputMode:     outputMode,
				NoDaemon:       noDaemon,
				FailFast:       failFast,
			})
		},
	}
	cmd.Flags().BoolP("no-cache", "n", false, "Bypass the build cache and force execution")
	cmd.Flags().BoolP("inspect", "i", false, "Inspect the TUI after build completion (prevents auto-exit)")
	cmd.Flags().Bool("inspect-on-error", true, "Keep TUI open if build fails")
	cmd.Flags().StringP("output-mode", "o", "auto", "Output mode: auto, tui, or linear")
	cmd.Flags().Bool("ci", false, "Use linear output mode (shorthand for --output-mode=linear)")
	cmd.Flags().Bool("no-daemon", false, "Bypass remote daemon execution and run locally")
	cmd.Flags().Bool("fail-fast", false, "Cancel the rest of the run as soon as a non-allowed task fails")
	return cmd
}
