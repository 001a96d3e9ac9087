// Package domain defines the shared types for the pipeline visualizer:
// inbound pipeline events, chat messages, demo customers and scenarios,
// and the wire shapes exchanged with the backend.
package domain

// Event type values emitted by the backend pipeline. The set is open;
// unknown types pass through the buffer untouched.
const (
	EventAgentStart  = "agent_start"
	EventRouting     = "routing"
	EventModelSwitch = "model_switch"
	EventReroute     = "reroute"
	EventToolCall    = "tool_call"
	EventToolResult  = "tool_result"
	EventThinking    = "thinking"
	EventCost        = "cost"
	EventResponse    = "response"
	EventDone        = "done"
)

// PipelineEvent is one event from the backend's pipeline stream.
// Timestamp is the local arrival time in Unix milliseconds; the backend
// does not supply one.
type PipelineEvent struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

// Str returns a string field from the event data, or "" if absent or
// not a string.
func (e PipelineEvent) Str(key string) string {
	s, _ := e.Data[key].(string)
	return s
}

// Float returns a numeric field from the event data. JSON numbers decode
// as float64; integer-typed values are accepted too.
func (e PipelineEvent) Float(key string) float64 {
	switch v := e.Data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Int returns a numeric field truncated to int.
func (e PipelineEvent) Int(key string) int {
	return int(e.Float(key))
}

// Map returns an object field from the event data, or nil.
func (e PipelineEvent) Map(key string) map[string]any {
	m, _ := e.Data[key].(map[string]any)
	return m
}

// IsTransition reports whether the event marks a transition between
// agents or models rather than agent activity.
func (e PipelineEvent) IsTransition() bool {
	return e.Type == EventModelSwitch || e.Type == EventReroute
}

// OpensSection reports whether the event starts a new agent execution
// span in the reconstructed view.
func (e PipelineEvent) OpensSection() bool {
	return e.Type == EventAgentStart || e.Type == EventRouting
}
