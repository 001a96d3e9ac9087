package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qslice/pipedeck/internal/domain"
	"github.com/qslice/pipedeck/internal/logging"
)

// mockSender records outbound turn requests.
type mockSender struct {
	mu   sync.Mutex
	sent []domain.TurnRequest
}

func (m *mockSender) Send(payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req, ok := payload.(domain.TurnRequest); ok {
		m.sent = append(m.sent, req)
	}
}

func (m *mockSender) requests() []domain.TurnRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TurnRequest, len(m.sent))
	copy(out, m.sent)
	return out
}

func newTestController(t *testing.T) (*Controller, *mockSender) {
	t.Helper()
	sender := &mockSender{}
	c := NewController(sender, Config{
		CustomerID:     "C-1001",
		InterTurnDelay: 10 * time.Millisecond,
	}, logging.Silent())
	return c, sender
}

func ev(typ string, data map[string]any) domain.PipelineEvent {
	return domain.PipelineEvent{Type: typ, Data: data}
}

func TestSendTurnBlankIgnored(t *testing.T) {
	c, sender := newTestController(t)

	c.SendTurn("", "")
	c.SendTurn("   ", "")

	assert.Empty(t, sender.requests())
	assert.Empty(t, c.Snapshot().Messages)
	assert.False(t, c.Snapshot().IsProcessing)
}

func TestSendTurnImageOnlyAllowed(t *testing.T) {
	c, sender := newTestController(t)

	c.SendTurn("", "aGVsbG8=")

	require.Len(t, sender.requests(), 1)
	assert.Equal(t, "aGVsbG8=", sender.requests()[0].Image)
}

func TestSendTurnBuildsRequest(t *testing.T) {
	c, sender := newTestController(t)

	c.SendTurn("Where is my order?", "")

	reqs := sender.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Where is my order?", reqs[0].Message)
	assert.Equal(t, "C-1001", reqs[0].CustomerID)
	assert.NotEmpty(t, reqs[0].ConversationID)

	snap := c.Snapshot()
	assert.True(t, snap.IsProcessing)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, domain.RoleUser, snap.Messages[0].Role)
}

func TestTurnLockBlocksInterleaving(t *testing.T) {
	c, sender := newTestController(t)

	c.SendTurn("first", "")
	c.HandleEvent(ev(domain.EventAgentStart, map[string]any{"agent": "router"}))

	// a second send while in flight must not clear the buffer or go out
	c.SendTurn("second", "")

	assert.Len(t, sender.requests(), 1)
	snap := c.Snapshot()
	assert.Len(t, snap.Messages, 1)
	require.Len(t, snap.Sections, 1)
	assert.Len(t, snap.Sections[0].Events, 1)
}

func TestActiveSliceFollowsOpeners(t *testing.T) {
	c, _ := newTestController(t)
	c.SendTurn("hi", "")

	c.HandleEvent(ev(domain.EventAgentStart, map[string]any{"agent": "router", "qgpu_slice": "Slice 1 (16GB)"}))
	assert.Equal(t, "Slice 1 (16GB)", c.Snapshot().ActiveSlice)

	c.HandleEvent(ev(domain.EventAgentStart, map[string]any{"agent": "returns", "qgpu_slice": "Slice 2 (16GB)"}))
	assert.Equal(t, "Slice 2 (16GB)", c.Snapshot().ActiveSlice)

	// openers without a slice clear the badge
	c.HandleEvent(ev(domain.EventAgentStart, map[string]any{"agent": "escalation"}))
	assert.Empty(t, c.Snapshot().ActiveSlice)
}

func TestDoneFinalizesTurn(t *testing.T) {
	c, _ := newTestController(t)
	c.SendTurn("Where is my order?", "")

	for _, e := range []domain.PipelineEvent{
		ev(domain.EventAgentStart, map[string]any{"agent": "router", "model": "M1", "qgpu_slice": "Slice 1"}),
		ev(domain.EventRouting, map[string]any{"category": "order_status", "confidence": 0.95}),
		ev(domain.EventToolCall, map[string]any{"tool": "get_order", "args": map[string]any{"id": "O-1"}}),
		ev(domain.EventToolResult, map[string]any{"tool": "get_order", "result": map[string]any{"status": "shipped"}}),
		ev(domain.EventDone, map[string]any{"response": "Your order has shipped.", "agent": "router", "model": "M1"}),
	} {
		c.HandleEvent(e)
	}

	snap := c.Snapshot()
	assert.False(t, snap.IsProcessing)
	assert.Empty(t, snap.ActiveSlice)

	require.Len(t, snap.Messages, 2)
	reply := snap.Messages[1]
	assert.Equal(t, domain.RoleAssistant, reply.Role)
	assert.Equal(t, "Your order has shipped.", reply.Content)
	assert.Equal(t, "router", reply.Agent)
	assert.Equal(t, "M1", reply.Model)

	require.Len(t, snap.Sections, 1)
	d := snap.Sections[0].Classify()
	require.Len(t, d.Tools, 1)
	assert.True(t, d.Tools[0].Resolved)
}

func TestResetIdempotent(t *testing.T) {
	c, _ := newTestController(t)
	c.SendTurn("hello", "")
	c.HandleEvent(ev(domain.EventAgentStart, map[string]any{"agent": "router"}))

	c.Reset()
	first := c.Snapshot()
	c.Reset()
	second := c.Snapshot()

	for _, snap := range []Snapshot{first, second} {
		assert.Empty(t, snap.Messages)
		assert.Empty(t, snap.Sections)
		assert.False(t, snap.IsProcessing)
		assert.Empty(t, snap.ActiveSlice)
	}
	// every reset is a new conversation
	assert.NotEqual(t, first.ConversationID, second.ConversationID)
}

func TestSwitchCustomerResets(t *testing.T) {
	c, _ := newTestController(t)
	c.SendTurn("hello", "")
	before := c.Snapshot().ConversationID

	c.SwitchCustomer("C-1003")

	snap := c.Snapshot()
	assert.Equal(t, "C-1003", snap.CustomerID)
	assert.Empty(t, snap.Messages)
	assert.NotEqual(t, before, snap.ConversationID)
}

func TestScenarioSecondTurnFiresAfterDone(t *testing.T) {
	c, sender := newTestController(t)

	c.PlayScenario(domain.Scenario{
		Name:       "Mid-conversation Reroute",
		Messages:   []string{"Where is my TV order?", "Actually I want to cancel it"},
		CustomerID: "C-1001",
	})

	reqs := sender.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Where is my TV order?", reqs[0].Message)

	// nothing fires before the first turn completes
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, sender.requests(), 1)

	c.HandleEvent(ev(domain.EventDone, map[string]any{"response": "It's in transit.", "agent": "order_tracker"}))

	require.Eventually(t, func() bool {
		return len(sender.requests()) == 2
	}, time.Second, 5*time.Millisecond)

	reqs = sender.requests()
	assert.Equal(t, "Actually I want to cancel it", reqs[1].Message)
	assert.Equal(t, reqs[0].ConversationID, reqs[1].ConversationID)

	snap := c.Snapshot()
	assert.True(t, snap.IsProcessing)
	// user, assistant, user
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, domain.RoleUser, snap.Messages[2].Role)
}

func TestScenarioSecondTurnFiresOnlyOnce(t *testing.T) {
	c, sender := newTestController(t)

	c.PlayScenario(domain.Scenario{
		Messages:   []string{"turn one", "turn two"},
		CustomerID: "C-1001",
	})
	c.HandleEvent(ev(domain.EventDone, map[string]any{"response": "r1"}))

	require.Eventually(t, func() bool {
		return len(sender.requests()) == 2
	}, time.Second, 5*time.Millisecond)

	c.HandleEvent(ev(domain.EventDone, map[string]any{"response": "r2"}))
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, sender.requests(), 2)
}

func TestResetClearsPendingSecondTurn(t *testing.T) {
	c, sender := newTestController(t)

	c.PlayScenario(domain.Scenario{
		Messages:   []string{"one", "two"},
		CustomerID: "C-1001",
	})
	c.HandleEvent(ev(domain.EventDone, map[string]any{"response": "r"}))
	c.Reset()

	time.Sleep(40 * time.Millisecond)
	assert.Len(t, sender.requests(), 1)
	assert.Empty(t, c.Snapshot().Messages)
}

func TestScenarioSingleMessageNoPending(t *testing.T) {
	c, sender := newTestController(t)

	c.PlayScenario(domain.Scenario{Message: "just one", CustomerID: "C-1003"})
	c.HandleEvent(ev(domain.EventDone, map[string]any{"response": "r"}))

	time.Sleep(40 * time.Millisecond)
	assert.Len(t, sender.requests(), 1)
	assert.Equal(t, "C-1003", c.Snapshot().CustomerID)
}

func TestScenarioImageAttached(t *testing.T) {
	sender := &mockSender{}
	c := NewController(sender, Config{
		CustomerID:     "C-1001",
		InterTurnDelay: 10 * time.Millisecond,
		SampleImage:    "base64-image-bytes",
	}, logging.Silent())

	c.PlayScenario(domain.Scenario{Message: "Can you find this order?", CustomerID: "C-1001", Image: true})

	reqs := sender.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "base64-image-bytes", reqs[0].Image)
}

func TestOnUpdateReceivesSnapshots(t *testing.T) {
	c, _ := newTestController(t)

	var mu sync.Mutex
	var snaps []Snapshot
	c.OnUpdate(func(s Snapshot) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	})

	c.SendTurn("hi", "")
	c.HandleEvent(ev(domain.EventAgentStart, map[string]any{"agent": "router"}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].IsProcessing)
	assert.Len(t, snaps[1].Sections, 1)
}
