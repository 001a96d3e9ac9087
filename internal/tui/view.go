package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/qslice/pipedeck/internal/domain"
	"github.com/qslice/pipedeck/internal/pipeline"
)

var (
	colAccent = lipgloss.Color("205")
	colDim    = lipgloss.Color("241")
	colOK     = lipgloss.Color("42")
	colWarn   = lipgloss.Color("214")
	colBad    = lipgloss.Color("196")

	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colAccent)
	styleDim     = lipgloss.NewStyle().Foreground(colDim)
	styleUser    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	styleAgent   = lipgloss.NewStyle().Bold(true).Foreground(colOK)
	styleSlice   = lipgloss.NewStyle().Foreground(colWarn)
	styleSection = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), false, false, false, true).
			BorderForeground(colDim).
			PaddingLeft(1)
	styleMarker = lipgloss.NewStyle().Bold(true).Foreground(colWarn)
)

// View assembles the full frame.
func (m Model) View() string {
	if !m.ready {
		return "starting…"
	}
	return m.renderHeader() + "\n" + m.body.View() + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	dot := lipgloss.NewStyle().Foreground(colBad).Render("●")
	if m.snap.Connected {
		dot = lipgloss.NewStyle().Foreground(colOK).Render("●")
	}
	parts := []string{
		styleTitle.Render("pipedeck"),
		dot,
		styleDim.Render("customer " + m.snap.CustomerID),
	}
	if m.snap.ActiveSlice != "" {
		parts = append(parts, styleSlice.Render("▣ "+m.snap.ActiveSlice))
	}
	if m.snap.IsProcessing {
		parts = append(parts, m.spin.View())
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	if m.picking {
		return styleDim.Render("press a scenario number · esc to cancel")
	}
	help := styleDim.Render("enter send · ^s scenarios · ^n new chat · ^k customer · ^c quit")
	return m.input.View() + "\n" + help
}

func (m Model) renderConversation() string {
	var b strings.Builder
	for _, msg := range m.snap.Messages {
		b.WriteString(renderMessage(msg))
		b.WriteString("\n")
	}
	if len(m.snap.Sections) > 0 {
		b.WriteString("\n")
		b.WriteString(renderSections(m.snap.Sections))
	}
	if b.Len() == 0 {
		return styleDim.Render("Type a message, or press ctrl+s to run a demo scenario.")
	}
	return b.String()
}

func renderMessage(msg domain.ChatMessage) string {
	if msg.Role == domain.RoleUser {
		return styleUser.Render("you") + "  " + msg.Content
	}
	label := msg.Agent
	if label == "" {
		label = "assistant"
	}
	head := styleAgent.Render(label)
	if msg.Model != "" {
		head += " " + styleDim.Render("("+msg.Model+")")
	}
	return head + "  " + msg.Content
}

// renderSections draws the reconstructed pipeline: one bordered block
// per agent span, one marker line per transition.
func renderSections(sections []pipeline.Section) string {
	var blocks []string
	for _, s := range sections {
		if s.Kind == pipeline.KindTransition {
			blocks = append(blocks, renderTransition(s.Transition()))
			continue
		}
		blocks = append(blocks, renderAgentSection(s))
	}
	return strings.Join(blocks, "\n")
}

func renderTransition(ev domain.PipelineEvent) string {
	switch ev.Type {
	case domain.EventModelSwitch:
		return styleMarker.Render(fmt.Sprintf("⇄ model switch → %s on %s",
			ev.Str("to_model"), ev.Str("to_slice")))
	case domain.EventReroute:
		return styleMarker.Render(fmt.Sprintf("↻ reroute %s → %s (%s)",
			ev.Str("from"), ev.Str("to"), ev.Str("reason")))
	}
	return styleMarker.Render("⇄ " + ev.Type)
}

func renderAgentSection(s pipeline.Section) string {
	d := s.Classify()

	var b strings.Builder
	head := styleAgent.Render(s.AgentID)
	if s.ModelID != "" {
		head += " " + styleDim.Render(s.ModelID)
	}
	if s.SliceID != "" {
		head += " " + styleSlice.Render("["+s.SliceID+"]")
	}
	b.WriteString(head)
	b.WriteString("\n")

	if d.Routing != nil {
		b.WriteString(fmt.Sprintf("intent %s  %.0f%%  %dms\n",
			d.Routing.Category, d.Routing.Confidence*100, d.Routing.LatencyMs))
	}
	for _, ex := range d.Tools {
		b.WriteString(renderTool(ex))
		b.WriteString("\n")
	}
	if d.Thinking != "" {
		b.WriteString(styleDim.Render("… "+d.Thinking) + "\n")
	}
	if d.Cost != nil {
		b.WriteString(styleDim.Render(fmt.Sprintf("tokens %d in / %d out · $%.4f",
			d.Cost.InputTokens, d.Cost.OutputTokens, d.Cost.EstimatedUSD)) + "\n")
	}
	if d.ResponseText != "" && d.LatencyMs > 0 {
		b.WriteString(styleDim.Render(fmt.Sprintf("responded in %dms", d.LatencyMs)) + "\n")
	}

	return styleSection.Render(strings.TrimRight(b.String(), "\n"))
}

func renderTool(ex pipeline.ToolExchange) string {
	args := compactJSON(ex.Args)
	line := fmt.Sprintf("⚙ %s%s", ex.Tool, args)
	if !ex.Resolved {
		return line + styleDim.Render("  (pending)")
	}
	return line + styleDim.Render(fmt.Sprintf("  → %s · %dms", compactJSON(ex.Result), ex.LatencyMs))
}

// compactJSON renders a tool payload on one line, degrading to %v when
// the value does not marshal.
func compactJSON(v any) string {
	if v == nil {
		return ""
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	s := string(raw)
	if len(s) > 120 {
		s = s[:117] + "…"
	}
	return s
}

func (m Model) renderScenarioPicker() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Demo scenarios") + "\n\n")
	for i, sc := range m.scenarios {
		b.WriteString(fmt.Sprintf("%s %s\n", styleAgent.Render(fmt.Sprintf("%d.", i+1)), sc.Name))
		if sc.Description != "" {
			b.WriteString("   " + styleDim.Render(sc.Description) + "\n")
		}
	}
	if len(m.scenarios) == 0 {
		b.WriteString(styleDim.Render("No scenarios available (backend offline?)."))
	}
	return b.String()
}
