// Package mockd is a self-contained mock of the multi-agent
// orchestrator backend, good enough to drive the full demo without
// GPUs: it speaks the same WebSocket event grammar and serves the same
// REST surface.
package mockd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/qslice/pipedeck/internal/domain"
	"github.com/qslice/pipedeck/internal/logging"
)

// Server hosts the mock orchestrator.
type Server struct {
	orch     *orchestrator
	log      *logging.Logger
	upgrader websocket.Upgrader

	httpServer *http.Server
}

// NewServer creates a mock backend listening on the given port.
// stepDelay paces the emitted pipeline events so the visualization has
// something to animate.
func NewServer(port int, stepDelay time.Duration, log *logging.Logger) *Server {
	s := &Server{
		orch: newOrchestrator(stepDelay),
		log:  log.Sub("mockd"),
		upgrader: websocket.Upgrader{
			// demo server, any origin may connect
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP routes, exposed for httptest use.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/customers", s.handleCustomers)
	mux.HandleFunc("/scenarios", s.handleScenarios)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("mock backend listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// handleWS serves one client's turn loop: read a turn request, stream
// the pipeline events, finish with done, repeat.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()
	s.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")

	for {
		var req domain.TurnRequest
		if err := conn.ReadJSON(&req); err != nil {
			s.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client disconnected")
			return
		}
		if req.CustomerID == "" {
			req.CustomerID = "C-1001"
		}

		emit := func(eventType string, data map[string]any) {
			// send failures surface on the next read
			_ = conn.WriteJSON(map[string]any{"type": eventType, "data": data})
		}

		res := s.orch.process(req, emit)

		emit(domain.EventDone, map[string]any{
			"conversation_id":  req.ConversationID,
			"response":         res.Response,
			"agent":            res.Agent,
			"model":            res.Model.Model,
			"qgpu_slice":       res.Model.Slice,
			"classification":   res.Classification,
			"total_latency_ms": res.LatencyMs,
		})
	}
}

func (s *Server) handleCustomers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"customers": demoCustomers})
}

func (s *Server) handleScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"scenarios": demoScenarios})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"status": "healthy",
		"models": map[string]any{
			"model1": map[string]any{"name": model1.Model, "slice": model1.Slice},
			"model2": map[string]any{"name": model2.Model, "slice": model2.Slice},
		},
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
