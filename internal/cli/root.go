// Package cli wires the pipedeck commands together.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/qslice/pipedeck/internal/config"
	"github.com/qslice/pipedeck/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipedeck",
		Short: "pipedeck — live viewer for the qSlice agent pipeline",
		Long: "pipedeck connects to a qSlice support backend, streams the agent\n" +
			"pipeline events for each chat turn, and renders the routing, model\n" +
			"switches, tool calls, and costs live in the terminal.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Optional: secrets like PIPEDECK_BACKEND_APIKEY from .env.
			_ = godotenv.Load()

			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			level := logLevel
			if level == "" {
				level = "info"
			}
			log = logging.New(nil, level, "")
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.pipedeck/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newReplayCmd())
	cmd.AddCommand(newScenariosCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
