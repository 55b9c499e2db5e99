package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/lobster"
	"github.com/aretw0/lobster/internal/cli"
	"github.com/aretw0/lobster/internal/logging"
	"github.com/aretw0/lobster/internal/presentation/tui"
)

var rootCmd = &cobra.Command{
	Use:   "lobster",
	Short: "Lobster runs typed command pipelines",
	Long: `Lobster runs pipelines of commands connected by '|', passing JSON items
between stages. Pipelines can halt for approval and remember state across runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		_, err := logging.ParseLevel(level)
		return err
	},
	Run: func(cmd *cobra.Command, args []string) {
		tui.PrintBanner(cmd.OutOrStdout())
		_ = cmd.Usage()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var reported *cli.ReportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("state-dir", "", "Directory for state snapshots (env LOBSTER_STATE_DIR, default .lobster/state)")
	rootCmd.PersistentFlags().String("redis-url", "", "Redis URL for state snapshots (env LOBSTER_REDIS_URL)")
	rootCmd.PersistentFlags().String("commands", "", "YAML file declaring extra commands (env LOBSTER_COMMANDS, default commands.yaml)")
	rootCmd.PersistentFlags().String("state-ttl", "", "Expire Redis snapshots after this duration, e.g. 720h (env LOBSTER_STATE_TTL)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log stage events to stderr")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")
}

// baseOptions reads the persistent flags.
func baseOptions(cmd *cobra.Command) cli.RunOptions {
	flags := cmd.Flags()
	stateDir, _ := flags.GetString("state-dir")
	redisURL, _ := flags.GetString("redis-url")
	commandsFile, _ := flags.GetString("commands")
	stateTTL, _ := flags.GetString("state-ttl")
	debug, _ := flags.GetBool("debug")
	return cli.RunOptions{
		StateDir:     stateDir,
		RedisURL:     redisURL,
		CommandsFile: commandsFile,
		StateTTL:     stateTTL,
		Debug:        debug,
	}
}

// logLevel is debug with --debug and --log-level otherwise.
func logLevel(cmd *cobra.Command) slog.Level {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		return slog.LevelDebug
	}
	name, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(name)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

// DefaultHost keeps network surfaces on the loopback interface unless asked.
const DefaultHost = "127.0.0.1"

// addRemoteFlags registers the flags of commands serving remote callers.
func addRemoteFlags(cmd *cobra.Command) {
	cmd.Flags().String("host", DefaultHost, "Interface to listen on; use 0.0.0.0 to accept remote connections")
	cmd.Flags().Bool("allow-exec", false, "Let remote callers run exec and process-backed commands")
	cmd.Flags().StringSlice("allow-env", nil, "Environment variables remote callers may set (PATH, LD_*, LOBSTER_* are always refused)")
}

// remoteOptions turns the remote flags into engine options.
func remoteOptions(cmd *cobra.Command) []lobster.Option {
	allowExec, _ := cmd.Flags().GetBool("allow-exec")
	allowEnv, _ := cmd.Flags().GetStringSlice("allow-env")
	return []lobster.Option{
		lobster.WithRemoteExec(allowExec),
		lobster.WithRemoteEnv(allowEnv...),
	}
}
