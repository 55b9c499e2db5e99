package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/lobster/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate '<pipeline>'",
	Short: "Check a pipeline without running it",
	Long: `Parses the pipeline, resolves every command and checks flags against the
declared arguments. Exits non-zero when an error is found.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := baseOptions(cmd)
		opts.Pipeline = strings.Join(args, " ")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		return cli.Validate(opts, cli.StdIO())
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph '<pipeline>'",
	Short: "Print a pipeline as a Mermaid flowchart",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := baseOptions(cmd)
		opts.Pipeline = strings.Join(args, " ")
		opts.Input, _ = cmd.Flags().GetString("input")
		run, _ := cmd.Flags().GetBool("run")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		return cli.Graph(sigCtx, opts, run, cli.StdIO())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd, graphCmd)
	validateCmd.Flags().Bool("json", false, "Print problems as JSON")
	graphCmd.Flags().Bool("run", false, "Run the pipeline in tool mode and mark stage outcomes")
	graphCmd.Flags().String("input", "", "JSON array of items fed to the first stage (with --run)")
}
