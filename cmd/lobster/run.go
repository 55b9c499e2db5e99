package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/lobster/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run '<pipeline>'",
	Short: "Run a pipeline",
	Long: `Runs a pipeline such as:

  lobster run 'exec --json --shell "gh pr list --json number,title" | pick number,title | head --n 5'

In tool mode (the default when not attached to a terminal) a single JSON
envelope is printed: {"ok":true,"status":"ok"|"needs_approval","output":[...]}.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := baseOptions(cmd)
		opts.Pipeline = strings.Join(args, " ")
		opts.Mode, _ = cmd.Flags().GetString("mode")
		opts.Input, _ = cmd.Flags().GetString("input")
		opts.JSON, _ = cmd.Flags().GetBool("json")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		err := cli.Execute(sigCtx, opts, cli.StdIO())
		if sigCtx.Signal() != nil {
			// Conventional exit status for a run stopped by the user.
			os.Exit(130)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("mode", "", "Run mode: tool, human or auto (env LOBSTER_MODE, default auto)")
	runCmd.Flags().String("input", "", "JSON array of items fed to the first stage")
	runCmd.Flags().Bool("json", false, "Always print the JSON envelope (forces tool mode)")
}
