package pipeline

import "github.com/qslice/pipedeck/internal/domain"

// Routing is the classifier verdict inside a section.
type Routing struct {
	Category   string
	Confidence float64
	LatencyMs  int
}

// ToolExchange pairs a tool call with its result, when one arrived.
type ToolExchange struct {
	Tool      string
	Args      map[string]any
	Result    any
	Resolved  bool
	LatencyMs int
}

// Cost summarizes token usage for a section.
type Cost struct {
	InputTokens  int
	OutputTokens int
	EstimatedUSD float64
}

// Detail is the presentation-ready classification of a section's member
// events: at most one routing verdict, the tool exchanges, at most one
// thinking trace, one cost summary, and one response latency.
type Detail struct {
	Routing      *Routing
	Tools        []ToolExchange
	Thinking     string
	Cost         *Cost
	ResponseText string
	LatencyMs    int
}

// Classify derives the Detail for a section. First occurrence wins for
// the at-most-one fields.
//
// Tool results are matched to calls by tool name only: every call to a
// given tool within the section resolves against the first result
// bearing that name. With two calls to the same tool this is ambiguous;
// the event grammar carries no call identifier to do better.
func (s Section) Classify() Detail {
	var d Detail

	results := make(map[string]domain.PipelineEvent)
	for _, ev := range s.Events {
		if ev.Type == domain.EventToolResult {
			name := ev.Str("tool")
			if _, seen := results[name]; !seen {
				results[name] = ev
			}
		}
	}

	for _, ev := range s.Events {
		switch ev.Type {
		case domain.EventRouting:
			if d.Routing == nil {
				d.Routing = &Routing{
					Category:   ev.Str("category"),
					Confidence: ev.Float("confidence"),
					LatencyMs:  ev.Int("latency_ms"),
				}
			}
		case domain.EventToolCall:
			ex := ToolExchange{
				Tool: ev.Str("tool"),
				Args: ev.Map("args"),
			}
			if res, ok := results[ex.Tool]; ok {
				ex.Result = res.Data["result"]
				ex.Resolved = true
				ex.LatencyMs = res.Int("latency_ms")
			}
			d.Tools = append(d.Tools, ex)
		case domain.EventThinking:
			if d.Thinking == "" {
				d.Thinking = ev.Str("text")
			}
		case domain.EventCost:
			if d.Cost == nil {
				d.Cost = &Cost{
					InputTokens:  ev.Int("input_tokens"),
					OutputTokens: ev.Int("output_tokens"),
					EstimatedUSD: ev.Float("estimated_cost_usd"),
				}
			}
		case domain.EventResponse:
			if d.ResponseText == "" {
				d.ResponseText = ev.Str("text")
				d.LatencyMs = ev.Int("total_latency_ms")
			}
		}
	}
	return d
}
