package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/qslice/pipedeck/internal/config"
	"github.com/qslice/pipedeck/internal/domain"
	"github.com/qslice/pipedeck/internal/session"
	"github.com/qslice/pipedeck/internal/stream"
	"github.com/qslice/pipedeck/internal/transcript"
	"github.com/qslice/pipedeck/internal/tui"
)

// nopSender discards outbound turns; a replayed session has no backend
// to talk to.
type nopSender struct{}

func (nopSender) Send(any) {}

func newReplayCmd() *cobra.Command {
	var speed float64

	cmd := &cobra.Command{
		Use:   "replay [transcript]",
		Short: "Replay a recorded event transcript",
		Long: "replay renders a previously recorded transcript with the original\n" +
			"inter-event timing. With no argument it lists the stored transcripts.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			db, err := transcript.Open(transcriptPath(cfg), log)
			if err != nil {
				return fmt.Errorf("opening transcript database: %w", err)
			}
			defer db.Close()
			store := transcript.NewStore(db)

			if len(args) == 0 {
				return listTranscripts(store)
			}

			info, err := store.Find(args[0])
			if err != nil {
				return err
			}
			events, err := store.Events(info.ID)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				return fmt.Errorf("transcript %q is empty", args[0])
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			ctrl := session.NewController(nopSender{}, session.Config{}, log)
			updates := make(chan session.Snapshot, 1)
			ctrl.OnUpdate(func(s session.Snapshot) { pushLatest(updates, s) })

			feed := make(chan domain.PipelineEvent, 16)
			status := make(chan stream.State, 1)
			status <- stream.StateOpen

			go ctrl.Run(ctx, feed, status)
			go func() {
				defer close(feed)
				_ = transcript.Replay(ctx, events, speed, func(ev domain.PipelineEvent) {
					select {
					case feed <- ev:
					case <-ctx.Done():
					}
				})
			}()

			program := tea.NewProgram(
				tui.New(ctrl, updates, nil, nil),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
			)
			if _, err := program.Run(); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&speed, "speed", 1.0, "playback speed multiplier")

	return cmd
}

func listTranscripts(store *transcript.Store) error {
	infos, err := store.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No transcripts recorded. Use `pipedeck watch --record <name>` to make one.")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%s  %-24s  %4d events  %s\n",
			info.ID, info.Name, info.Events, info.CreatedAt.Format(time.RFC3339))
	}
	return nil
}
