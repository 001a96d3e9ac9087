package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/qslice/pipedeck/internal/config"
	"github.com/qslice/pipedeck/internal/mockd"
)

func newServeCmd() *cobra.Command {
	var (
		port      int
		stepDelay int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the built-in mock backend",
		Long: "serve starts a local mock of the qSlice support backend: the same\n" +
			"WebSocket event stream and REST endpoints, driven by canned agents.\n" +
			"Point `pipedeck watch` at it for an offline demo.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Mock.Port = port
			}
			if stepDelay != 0 {
				cfg.Mock.StepDelayMs = stepDelay
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := mockd.NewServer(cfg.Mock.Port,
				time.Duration(cfg.Mock.StepDelayMs)*time.Millisecond, log)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (default 8000)")
	cmd.Flags().IntVar(&stepDelay, "step-delay", 0, "simulated latency between pipeline events, in ms")

	return cmd
}
