package pipeline

import "github.com/qslice/pipedeck/internal/domain"

// SectionKind distinguishes agent execution spans from transition
// markers.
type SectionKind string

const (
	KindAgent      SectionKind = "agent"
	KindTransition SectionKind = "transition"
)

// Section is one reconstructed grouping of pipeline events: either a
// contiguous agent execution span, or a single model-switch/reroute
// marker. Sections carry no identity; they are rebuilt from the event
// log on every update.
type Section struct {
	Kind    SectionKind
	AgentID string
	ModelID string
	SliceID string
	Events  []domain.PipelineEvent
}

// Transition returns the marker event of a transition section.
func (s Section) Transition() domain.PipelineEvent {
	return s.Events[0]
}

// BuildSections folds the ordered event log into sections with a single
// linear pass. Rules:
//
//   - agent_start closes the previous agent section and opens a new
//     one. The agent defaults to "router" when unnamed.
//   - routing opens a section the same way when none is open (a stream
//     can begin with a bare classifier verdict); otherwise it joins the
//     open section as its classification.
//   - model_switch and reroute each become a standalone single-event
//     section. They are peer markers: the surrounding agent section
//     keeps accumulating events across them.
//   - any other event joins the currently open agent section; with no
//     section open it has no home and is dropped from the structural
//     view (it stays in the raw log).
func BuildSections(events []domain.PipelineEvent) []Section {
	var out []Section
	open := -1 // index in out of the accumulating agent section

	for _, ev := range events {
		switch {
		case ev.Type == domain.EventDone:
			// Terminal marker, never structural.
		case ev.IsTransition():
			out = append(out, Section{
				Kind:   KindTransition,
				Events: []domain.PipelineEvent{ev},
			})
		case ev.Type == domain.EventAgentStart || (ev.Type == domain.EventRouting && open < 0):
			agent := ev.Str("agent")
			if agent == "" {
				agent = "router"
			}
			out = append(out, Section{
				Kind:    KindAgent,
				AgentID: agent,
				ModelID: ev.Str("model"),
				SliceID: ev.Str("qgpu_slice"),
				Events:  []domain.PipelineEvent{ev},
			})
			open = len(out) - 1
		default:
			if open >= 0 {
				out[open].Events = append(out[open].Events, ev)
			}
		}
	}
	return out
}
