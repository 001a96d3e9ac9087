// Package session holds the conversation state machine: one active
// conversation, its turn sequencing, and the pipeline view derived from
// the event buffer. The controller is the only writer of this state;
// stream events, user input, and scenario timers all funnel through it.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qslice/pipedeck/internal/domain"
	"github.com/qslice/pipedeck/internal/logging"
	"github.com/qslice/pipedeck/internal/pipeline"
	"github.com/qslice/pipedeck/internal/stream"
)

// Sender transmits outbound turn requests. *stream.Manager satisfies it.
type Sender interface {
	Send(payload any)
}

// Config tunes the controller.
type Config struct {
	CustomerID string
	// InterTurnDelay is the pause before a scripted second turn fires
	// once the first turn has completed.
	InterTurnDelay time.Duration
	// SampleImage is base64 image data attached to image scenarios.
	SampleImage string
}

// Snapshot is an immutable view of the session for rendering. The
// section list is recomputed from the buffer on every update; sections
// carry no identity between snapshots.
type Snapshot struct {
	ConversationID string
	CustomerID     string
	Messages       []domain.ChatMessage
	Sections       []pipeline.Section
	IsProcessing   bool
	ActiveSlice    string
	Connected      bool
}

// Controller sequences user turns against the backend and folds the
// inbound event stream into the session view.
type Controller struct {
	sender Sender
	cfg    Config
	log    *logging.Logger

	mu             sync.Mutex
	conversationID string
	customerID     string
	messages       []domain.ChatMessage
	buffer         *pipeline.Buffer
	processing     bool
	activeSlice    string
	connected      bool

	// pending second turn of a scripted scenario; exclusively owned
	// here, cleared the moment it fires or the session resets
	pendingSecond string
	pendingTimer  *time.Timer

	onUpdate func(Snapshot)
}

// NewController creates a controller for a fresh conversation.
func NewController(sender Sender, cfg Config, log *logging.Logger) *Controller {
	if cfg.InterTurnDelay <= 0 {
		cfg.InterTurnDelay = 800 * time.Millisecond
	}
	if cfg.CustomerID == "" {
		cfg.CustomerID = "C-1001"
	}
	return &Controller{
		sender:         sender,
		cfg:            cfg,
		log:            log.Sub("session"),
		conversationID: uuid.New().String(),
		customerID:     cfg.CustomerID,
		buffer:         pipeline.NewBuffer(),
	}
}

// OnUpdate registers the render callback, invoked with a fresh snapshot
// after every state change. Must be set before Run.
func (c *Controller) OnUpdate(fn func(Snapshot)) {
	c.onUpdate = fn
}

// Run consumes the stream's event and status channels until ctx is
// cancelled or the channels close. It is the single ingestion path.
func (c *Controller) Run(ctx context.Context, events <-chan domain.PipelineEvent, status <-chan stream.State) {
	defer c.stopPendingTimer()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.HandleEvent(ev)
		case st, ok := <-status:
			if !ok {
				return
			}
			c.setConnected(st == stream.StateOpen)
		}
	}
}

// SendTurn submits one user turn. Blank input is ignored, and a turn
// issued while the previous one is still in flight is dropped so two
// turns' events can never interleave in one buffer.
func (c *Controller) SendTurn(text, imageBase64 string) {
	c.mu.Lock()
	if strings.TrimSpace(text) == "" && imageBase64 == "" {
		c.mu.Unlock()
		return
	}
	if c.processing {
		c.mu.Unlock()
		c.log.Debug().Msg("turn in flight, ignoring send")
		return
	}
	req := c.startTurnLocked(text, imageBase64)
	c.mu.Unlock()

	c.sender.Send(req)
	c.notify()
}

// startTurnLocked appends the user message, clears the event buffer,
// and marks the turn in flight. Caller holds the lock.
func (c *Controller) startTurnLocked(text, imageBase64 string) domain.TurnRequest {
	c.messages = append(c.messages, domain.ChatMessage{
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	c.buffer.Reset()
	c.processing = true
	return domain.TurnRequest{
		Message:        text,
		CustomerID:     c.customerID,
		ConversationID: c.conversationID,
		Image:          imageBase64,
	}
}

// PlayScenario starts a scripted scenario: the session is reset (and
// switched to the scenario's customer), the first message is sent
// immediately, and a second message is parked until the first turn's
// round trip completes.
func (c *Controller) PlayScenario(sc domain.Scenario) {
	turns := sc.Turns()
	if len(turns) == 0 {
		return
	}

	c.mu.Lock()
	c.resetLocked(sc.CustomerID)
	if len(turns) > 1 {
		c.pendingSecond = turns[1]
	}
	image := ""
	if sc.Image {
		image = c.cfg.SampleImage
	}
	req := c.startTurnLocked(turns[0], image)
	c.mu.Unlock()

	c.log.Info().Str("scenario", sc.Name).Int("turns", len(turns)).Msg("playing scenario")
	c.sender.Send(req)
	c.notify()
}

// HandleEvent applies one inbound pipeline event.
func (c *Controller) HandleEvent(ev domain.PipelineEvent) {
	c.mu.Lock()
	switch {
	case ev.Type == domain.EventDone:
		c.finishTurnLocked(ev)
	case ev.OpensSection():
		c.activeSlice = ev.Str("qgpu_slice")
		c.buffer.Append(ev)
	default:
		c.buffer.Append(ev)
	}
	c.mu.Unlock()
	c.notify()
}

// finishTurnLocked consumes the terminal event of a turn: the assistant
// message is finalized and, if a scripted second turn is parked and the
// first round trip is on record, its timer is armed.
func (c *Controller) finishTurnLocked(ev domain.PipelineEvent) {
	c.processing = false
	c.activeSlice = ""
	c.messages = append(c.messages, domain.ChatMessage{
		Role:      domain.RoleAssistant,
		Content:   ev.Str("response"),
		Agent:     ev.Str("agent"),
		Model:     ev.Str("model"),
		Timestamp: time.Now(),
	})

	if c.pendingSecond != "" && len(c.messages) >= 2 {
		conv := c.conversationID
		c.pendingTimer = time.AfterFunc(c.cfg.InterTurnDelay, func() {
			c.fireSecondTurn(conv)
		})
	}
}

// fireSecondTurn sends the parked scenario message. A reset between
// scheduling and firing changes the conversation ID, which voids the
// pending turn.
func (c *Controller) fireSecondTurn(conversationID string) {
	c.mu.Lock()
	if c.pendingSecond == "" || c.conversationID != conversationID || c.processing {
		c.mu.Unlock()
		return
	}
	text := c.pendingSecond
	c.pendingSecond = ""
	req := c.startTurnLocked(text, "")
	c.mu.Unlock()

	c.sender.Send(req)
	c.notify()
}

// Reset starts a new conversation: fresh conversation ID, empty
// messages, empty buffer, no pending scripted turn. Atomic from the
// caller's perspective.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.resetLocked("")
	c.mu.Unlock()
	c.notify()
}

// SwitchCustomer resets the conversation under a new customer.
func (c *Controller) SwitchCustomer(customerID string) {
	c.mu.Lock()
	c.resetLocked(customerID)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) resetLocked(customerID string) {
	c.conversationID = uuid.New().String()
	c.messages = nil
	c.buffer.Reset()
	c.processing = false
	c.activeSlice = ""
	c.pendingSecond = ""
	if c.pendingTimer != nil {
		c.pendingTimer.Stop()
		c.pendingTimer = nil
	}
	if customerID != "" {
		c.customerID = customerID
	}
}

func (c *Controller) setConnected(connected bool) {
	c.mu.Lock()
	c.connected = connected
	c.mu.Unlock()
	c.notify()
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	msgs := make([]domain.ChatMessage, len(c.messages))
	copy(msgs, c.messages)
	return Snapshot{
		ConversationID: c.conversationID,
		CustomerID:     c.customerID,
		Messages:       msgs,
		Sections:       pipeline.BuildSections(c.buffer.Snapshot()),
		IsProcessing:   c.processing,
		ActiveSlice:    c.activeSlice,
		Connected:      c.connected,
	}
}

func (c *Controller) notify() {
	if c.onUpdate == nil {
		return
	}
	c.onUpdate(c.Snapshot())
}

func (c *Controller) stopPendingTimer() {
	c.mu.Lock()
	if c.pendingTimer != nil {
		c.pendingTimer.Stop()
		c.pendingTimer = nil
	}
	c.mu.Unlock()
}
