package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/lobster/internal/cli"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and remove stored state snapshots",
	Long:  `List, inspect, and remove the snapshots that stateful commands keep across runs.`,
}

var stateLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List snapshot keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.StateList(cmd.Context(), baseOptions(cmd), os.Stdout)
	},
}

var stateGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a snapshot as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.StateGet(cmd.Context(), baseOptions(cmd), args[0], os.Stdout)
	},
}

var stateRmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Remove snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.StateRemove(cmd.Context(), baseOptions(cmd), args...); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Removed %d snapshot(s).\n", len(args))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateLsCmd, stateGetCmd, stateRmCmd)
}
