package mockd

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qslice/pipedeck/internal/backend"
	"github.com/qslice/pipedeck/internal/domain"
	"github.com/qslice/pipedeck/internal/logging"
)

func newTestBackend(t *testing.T) *httptest.Server {
	t.Helper()
	s := NewServer(0, 0, logging.Silent())
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

// runTurn sends one turn over /ws and collects events through done.
func runTurn(t *testing.T, srv *httptest.Server, req domain.TurnRequest) []domain.PipelineEvent {
	t.Helper()
	url := "ws://" + strings.TrimPrefix(srv.URL, "http://") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	return runTurnOn(t, conn, req)
}

func runTurnOn(t *testing.T, conn *websocket.Conn, req domain.TurnRequest) []domain.PipelineEvent {
	t.Helper()
	require.NoError(t, conn.WriteJSON(req))

	var events []domain.PipelineEvent
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var ev domain.PipelineEvent
		require.NoError(t, conn.ReadJSON(&ev))
		events = append(events, ev)
		if ev.Type == domain.EventDone {
			return events
		}
	}
}

func types(events []domain.PipelineEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func TestOrderStatusPipeline(t *testing.T) {
	srv := newTestBackend(t)

	events := runTurn(t, srv, domain.TurnRequest{
		Message:        "Where is my Samsung order?",
		CustomerID:     "C-1001",
		ConversationID: "conv-1",
	})

	assert.Equal(t, []string{
		domain.EventAgentStart, // router
		domain.EventRouting,
		domain.EventModelSwitch, // slice 1 → slice 2
		domain.EventAgentStart,  // order_tracker
		domain.EventToolCall,
		domain.EventToolResult,
		domain.EventCost,
		domain.EventResponse,
		domain.EventDone,
	}, types(events))

	routing := events[1]
	assert.Equal(t, catOrderStatus, routing.Str("category"))
	assert.Greater(t, routing.Float("confidence"), 0.9)

	done := events[len(events)-1]
	assert.Equal(t, "order_tracker", done.Str("agent"))
	assert.Equal(t, "conv-1", done.Str("conversation_id"))
	assert.Contains(t, done.Str("response"), "ORD-78412")
}

func TestProductAdvisorStaysOnSlice(t *testing.T) {
	srv := newTestBackend(t)

	events := runTurn(t, srv, domain.TurnRequest{
		Message:        "Should I get the LG C4 OLED or Samsung S90D?",
		CustomerID:     "C-1001",
		ConversationID: "conv-2",
	})

	ts := types(events)
	assert.NotContains(t, ts, domain.EventModelSwitch)
	assert.Contains(t, ts, domain.EventThinking)
	assert.Equal(t, "product_advisor", events[len(events)-1].Str("agent"))
}

func TestEscalation(t *testing.T) {
	srv := newTestBackend(t)

	events := runTurn(t, srv, domain.TurnRequest{
		Message:        "I've called 5 times, nobody helps, I'm filing a complaint",
		CustomerID:     "C-1003",
		ConversationID: "conv-3",
	})

	done := events[len(events)-1]
	assert.Equal(t, "escalation", done.Str("agent"))
	assert.Contains(t, done.Str("response"), "ESC-")
}

func TestClarifyFallback(t *testing.T) {
	srv := newTestBackend(t)

	events := runTurn(t, srv, domain.TurnRequest{
		Message:        "hello there",
		ConversationID: "conv-4",
	})

	assert.Equal(t, []string{
		domain.EventAgentStart,
		domain.EventRouting,
		domain.EventResponse,
		domain.EventDone,
	}, types(events))
	assert.Equal(t, "router", events[len(events)-1].Str("agent"))
}

func TestCancelAfterOrderContextReroutes(t *testing.T) {
	srv := newTestBackend(t)
	url := "ws://" + strings.TrimPrefix(srv.URL, "http://") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := runTurnOn(t, conn, domain.TurnRequest{
		Message:        "Where is my TV order?",
		CustomerID:     "C-1001",
		ConversationID: "conv-5",
	})
	assert.NotContains(t, types(first), domain.EventReroute)

	second := runTurnOn(t, conn, domain.TurnRequest{
		Message:        "Actually I want to cancel it",
		CustomerID:     "C-1001",
		ConversationID: "conv-5",
	})

	ts := types(second)
	assert.Contains(t, ts, domain.EventReroute)
	done := second[len(second)-1]
	assert.Equal(t, "returns", done.Str("agent"))
	assert.Contains(t, done.Str("response"), "cancelled")
}

func TestCancelWithoutContextGoesStraightToReturns(t *testing.T) {
	srv := newTestBackend(t)

	events := runTurn(t, srv, domain.TurnRequest{
		Message:        "I want to cancel my subscription box",
		ConversationID: "conv-6",
	})

	assert.NotContains(t, types(events), domain.EventReroute)
	assert.Equal(t, "returns", events[len(events)-1].Str("agent"))
}

func TestRESTEndpoints(t *testing.T) {
	srv := newTestBackend(t)
	c := backend.NewClient(srv.URL, "", logging.Silent())

	customers := c.Customers()
	require.NotEmpty(t, customers)
	assert.Equal(t, "C-1001", customers[0].CustomerID)

	scenarios := c.Scenarios()
	require.Len(t, scenarios, 7)
	var reroute *domain.Scenario
	for i := range scenarios {
		if len(scenarios[i].Messages) > 1 {
			reroute = &scenarios[i]
		}
	}
	require.NotNil(t, reroute, "expected a multi-turn scenario")
	assert.Len(t, reroute.Turns(), 2)

	assert.NoError(t, c.Health())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		message  string
		hasImage bool
		want     string
	}{
		{"Where is my package?", false, catOrderStatus},
		{"this arrived broken", false, catReturns},
		{"which laptop should i buy", false, catProduct},
		{"I will sue you, lawyer is ready", false, catEscalate},
		{"good morning", false, catClarify},
		{"", true, catProduct}, // bare image defaults to product ID
		{"cancel my order", false, catReturns},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got := classify(tt.message, tt.hasImage)
			assert.Equal(t, tt.want, got["category"])
		})
	}
}
