package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/lobster/internal/cli"
	"github.com/aretw0/lobster/internal/logging"
	"github.com/aretw0/lobster/internal/presentation/tui"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the available pipeline commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := cli.NewEngine(baseOptions(cmd), logging.New(logLevel(cmd)))
		if err != nil {
			return err
		}
		defer closeStore()

		infos := engine.Commands()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\n", info.Name, info.Description)
		}
		return w.Flush()
	},
}

var helpCmd = &cobra.Command{
	Use:   "help <command>",
	Short: "Show help for a pipeline command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := cli.NewEngine(baseOptions(cmd), logging.New(logLevel(cmd)))
		if err != nil {
			return err
		}
		defer closeStore()

		help, err := engine.Help(args[0])
		if err != nil {
			return err
		}
		if plain, _ := cmd.Flags().GetBool("plain"); plain || !cli.IsTerminal(os.Stdin, os.Stdout) {
			fmt.Print(help)
			return nil
		}

		out, err := tui.NewRenderer()(tui.HelpMarkdown(args[0], help))
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
	commandsCmd.Flags().Bool("json", false, "Print command metadata as JSON")

	// Replaces cobra's default help command; 'lobster <cmd> --help' still works.
	rootCmd.SetHelpCommand(helpCmd)
	helpCmd.Flags().Bool("plain", false, "Print help without markdown rendering")
}
