// Package stream owns the persistent WebSocket connection to the
// pipeline backend: dialing, decode, and indefinite fixed-delay
// reconnection. Decoded events and connectivity changes are delivered
// over channels; the session controller is the single consumer.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/qslice/pipedeck/internal/domain"
	"github.com/qslice/pipedeck/internal/logging"
)

// State is the connection lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
)

// Manager maintains one logical connection to the backend event stream.
// A lost connection is redialed after a fixed delay, forever; the demo
// favors indefinite patience over backoff sophistication.
type Manager struct {
	url    string
	delay  time.Duration
	header http.Header
	dialer *websocket.Dialer
	log    *logging.Logger

	mu    sync.Mutex
	conn  *websocket.Conn
	state State

	events chan domain.PipelineEvent
	status chan State
}

// NewManager creates a manager for the given ws:// URL. apiKey, when
// non-empty, is sent as a bearer token on the upgrade request.
func NewManager(url string, reconnectDelay time.Duration, apiKey string, log *logging.Logger) *Manager {
	header := http.Header{}
	if apiKey != "" {
		header.Set("Authorization", "Bearer "+apiKey)
	}
	return &Manager{
		url:    url,
		delay:  reconnectDelay,
		header: header,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:    log.Sub("stream"),
		state:  StateIdle,
		events: make(chan domain.PipelineEvent, 64),
		status: make(chan State, 8),
	}
}

// Events returns the decoded inbound event channel. Closed when Run
// returns.
func (m *Manager) Events() <-chan domain.PipelineEvent {
	return m.events
}

// Status returns connectivity change notifications. Slow consumers miss
// intermediate states, never the channel itself.
func (m *Manager) Status() <-chan State {
	return m.status
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Send transmits a JSON payload if the connection is open. Anything
// sent while disconnected is dropped: no queue, no error. The demo
// surfaces connectivity through the status indicator instead.
func (m *Manager) Send(payload any) {
	m.mu.Lock()
	conn := m.conn
	open := m.state == StateOpen
	m.mu.Unlock()

	if !open || conn == nil {
		m.log.Debug().Msg("send while disconnected, dropping payload")
		return
	}
	if err := conn.WriteJSON(payload); err != nil {
		m.log.Warn().Err(err).Msg("send failed")
	}
}

// Run drives the connect→read→reconnect loop until ctx is cancelled.
// It closes the event and status channels on return.
func (m *Manager) Run(ctx context.Context) {
	defer func() {
		m.setState(StateClosed)
		close(m.events)
		close(m.status)
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		m.setState(StateConnecting)

		conn, _, err := m.dialer.DialContext(ctx, m.url, m.header)
		if err != nil {
			m.log.Warn().Err(err).Str("url", m.url).Msg("dial failed")
			m.setState(StateClosed)
			if !m.sleep(ctx) {
				return
			}
			continue
		}

		m.mu.Lock()
		m.conn = conn
		m.state = StateOpen
		m.mu.Unlock()
		m.notify(StateOpen)
		m.log.Info().Str("url", m.url).Msg("connected")

		m.readLoop(ctx, conn)

		// Any read failure forces the reconnect path; close our side
		// rather than waiting on the peer.
		conn.Close()
		m.mu.Lock()
		m.conn = nil
		m.state = StateClosed
		m.mu.Unlock()
		m.notify(StateClosed)

		if ctx.Err() != nil {
			return
		}
		m.log.Info().Dur("delay", m.delay).Msg("reconnecting after delay")
		if !m.sleep(ctx) {
			return
		}
	}
}

// readLoop reads frames until the connection fails or ctx is cancelled.
// The context watcher closes the socket to unblock ReadMessage.
func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				m.log.Warn().Err(err).Msg("connection lost")
			}
			return
		}

		var ev domain.PipelineEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Type == "" {
			// One bad frame is discarded; the connection is fine.
			m.log.Warn().Str("frame", truncate(raw, 200)).Msg("dropping malformed frame")
			continue
		}
		ev.Timestamp = time.Now().UnixMilli()

		select {
		case m.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.notify(s)
}

func (m *Manager) notify(s State) {
	select {
	case m.status <- s:
	default:
	}
}

// sleep waits one reconnect delay. Returns false if ctx was cancelled.
func (m *Manager) sleep(ctx context.Context) bool {
	t := time.NewTimer(m.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "…"
	}
	return string(b)
}
