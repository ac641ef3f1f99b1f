package commands

import (
	"github.com/spf13/cobra"
	"go.zr.dev/zr/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [targets...]",
		Short: "Run specified tasks, then re-run the affected subset on every file change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noCache, _ := cmd.Flags().GetBool("no-cache")
			outputMode, _ := cmd.Flags().GetString("output-mode")
			ci, _ := cmd.Flags().GetBool("ci")
			noDaemon, _ := cmd.Flags().GetBool("no-daemon")
			failFast, _ := cmd.Flags().GetBool("fail-fast")

			if ci {
				outputMode = "linear"
			}

			return c.app.Watch(cmd.Context(), args, app.RunOptions{
				NoCache:    noCache,
				OutputMode: outputMode,
				NoDaemon:   noDaemon,
				FailFast:   failFast,
			})
		},
	}
	cmd.Flags().BoolP("no-cache", "n", false, "Bypass the build cache and force execution")
	cmd.Flags().StringP("output-mode", "o", "auto", "Output mode: auto, tui, or linear")
	cmd.Flags().Bool("ci", false, "Use linear output mode (shorthand for --output-mode=linear)")
	cmd.Flags().Bool("no-daemon", false, "Bypass remote daemon execution and run locally")
	cmd.Flags().Bool("fail-fast", false, "Cancel the rest of the run as soon as a non-allowed task fails")
	return cmd
}
