package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/qslice/pipedeck/internal/backend"
	"github.com/qslice/pipedeck/internal/config"
	"github.com/qslice/pipedeck/internal/domain"
	"github.com/qslice/pipedeck/internal/logging"
	"github.com/qslice/pipedeck/internal/session"
	"github.com/qslice/pipedeck/internal/stream"
	"github.com/qslice/pipedeck/internal/transcript"
	"github.com/qslice/pipedeck/internal/tui"
)

// sampleImage is a 1x1 PNG attached to image scenarios so the backend's
// vision path has something to receive.
const sampleImage = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func newWatchCmd() *cobra.Command {
	var (
		url      string
		customer string
		record   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to the backend and watch the pipeline live",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if url != "" {
				cfg.Backend.URL = url
			}
			if customer != "" {
				cfg.Client.CustomerID = customer
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			// The TUI owns the terminal, so logs go to a file.
			logFile, err := os.OpenFile(filepath.Join(paths.Logs, "pipedeck.log"),
				os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				return err
			}
			defer logFile.Close()
			log = logging.New(logFile, logLevel, "json")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mgr := stream.NewManager(cfg.Backend.URL,
				time.Duration(cfg.Client.ReconnectDelayMs)*time.Millisecond,
				cfg.Backend.APIKey, log)

			events := mgr.Events()
			if record != "" {
				db, err := transcript.Open(transcriptPath(cfg), log)
				if err != nil {
					return fmt.Errorf("opening transcript database: %w", err)
				}
				defer db.Close()
				rec, err := transcript.NewRecorder(transcript.NewStore(db), record)
				if err != nil {
					return err
				}
				log.Info().Str("transcript", rec.ID()).Str("name", record).Msg("recording events")
				events = tapEvents(events, rec)
			}

			ctrl := session.NewController(mgr, session.Config{
				CustomerID:     cfg.Client.CustomerID,
				InterTurnDelay: time.Duration(cfg.Client.InterTurnDelayMs) * time.Millisecond,
				SampleImage:    sampleImage,
			}, log)

			updates := make(chan session.Snapshot, 1)
			ctrl.OnUpdate(func(s session.Snapshot) { pushLatest(updates, s) })

			api := backend.NewClient(cfg.Backend.HTTPBase(), cfg.Backend.APIKey, log)
			scenarios := api.Scenarios()
			customers := api.Customers()

			go mgr.Run(ctx)
			go ctrl.Run(ctx, events, mgr.Status())

			program := tea.NewProgram(
				tui.New(ctrl, updates, scenarios, customers),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
			)
			if _, err := program.Run(); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "backend WebSocket URL (overrides config)")
	cmd.Flags().StringVar(&customer, "customer", "", "customer ID to chat as")
	cmd.Flags().StringVar(&record, "record", "", "record the event stream as a named transcript")

	return cmd
}

func transcriptPath(cfg config.Config) string {
	if cfg.Transcript.Path != "" {
		return cfg.Transcript.Path
	}
	return paths.TranscriptDB()
}

// tapEvents records each event as it passes through to the session.
func tapEvents(in <-chan domain.PipelineEvent, rec *transcript.Recorder) <-chan domain.PipelineEvent {
	out := make(chan domain.PipelineEvent, 64)
	go func() {
		defer close(out)
		for ev := range in {
			if err := rec.Record(ev); err != nil {
				log.Warn().Err(err).Str("type", ev.Type).Msg("recording event failed")
			}
			out <- ev
		}
	}()
	return out
}

// pushLatest delivers a snapshot without ever blocking the controller:
// an unread older snapshot is replaced by the new one.
func pushLatest(ch chan session.Snapshot, s session.Snapshot) {
	for {
		select {
		case ch <- s:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
