// Package tui renders the live pipeline view in the terminal. It is a
// pure projection: all state arrives as session snapshots, and every
// user action is forwarded to the session controller.
package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/qslice/pipedeck/internal/domain"
	"github.com/qslice/pipedeck/internal/session"
)

// snapshotMsg carries a fresh session snapshot into the update loop.
type snapshotMsg session.Snapshot

// streamClosedMsg signals that the snapshot channel closed.
type streamClosedMsg struct{}

// Model is the bubbletea model for the pipeline watcher.
type Model struct {
	ctrl      *session.Controller
	updates   <-chan session.Snapshot
	snap      session.Snapshot
	scenarios []domain.Scenario
	customers []domain.Customer

	input   textinput.Model
	spin    spinner.Model
	body    viewport.Model
	width   int
	height  int
	ready   bool
	picking bool
}

// New builds the watcher model. updates must be the channel fed by the
// controller's OnUpdate hook.
func New(ctrl *session.Controller, updates <-chan session.Snapshot, scenarios []domain.Scenario, customers []domain.Customer) Model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.Placeholder = "Ask about an order, a return, or a product…"
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(colAccent)

	return Model{
		ctrl:      ctrl,
		updates:   updates,
		snap:      ctrl.Snapshot(),
		scenarios: scenarios,
		customers: customers,
		input:     input,
		spin:      sp,
		body:      viewport.New(0, 0),
	}
}

// Init starts the spinner and the snapshot listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, textinput.Blink, waitSnapshot(m.updates))
}

func waitSnapshot(ch <-chan session.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

// Update handles input, window sizing, and snapshot refreshes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerH := lipgloss.Height(m.renderHeader())
		footerH := 3
		m.body.Width = msg.Width
		m.body.Height = max(msg.Height-headerH-footerH, 3)
		m.input.Width = max(msg.Width-6, 20)
		m.ready = true
		m.refreshBody()

	case snapshotMsg:
		m.snap = session.Snapshot(msg)
		m.refreshBody()
		m.body.GotoBottom()
		cmds = append(cmds, waitSnapshot(m.updates))

	case streamClosedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.picking {
				m.picking = false
				m.refreshBody()
				return m, nil
			}
			return m, tea.Quit
		case "enter":
			if !m.picking {
				m.ctrl.SendTurn(m.input.Value(), "")
				m.input.SetValue("")
				return m, nil
			}
		case "ctrl+n":
			m.ctrl.Reset()
			return m, nil
		case "ctrl+s":
			m.picking = !m.picking
			m.refreshBody()
			return m, nil
		case "ctrl+k":
			m.ctrl.SwitchCustomer(m.nextCustomer())
			return m, nil
		default:
			if m.picking {
				if n, err := strconv.Atoi(msg.String()); err == nil {
					m.runScenario(n)
					m.picking = false
					m.refreshBody()
					return m, nil
				}
			}
		}
	}

	if !m.picking {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) refreshBody() {
	if m.picking {
		m.body.SetContent(m.renderScenarioPicker())
		return
	}
	m.body.SetContent(m.renderConversation())
}

// runScenario plays the scenario at the 1-based picker index.
func (m *Model) runScenario(n int) {
	if n < 1 || n > len(m.scenarios) {
		return
	}
	m.ctrl.PlayScenario(m.scenarios[n-1])
}

// nextCustomer cycles through the customer list relative to the active
// customer.
func (m Model) nextCustomer() string {
	if len(m.customers) == 0 {
		return m.snap.CustomerID
	}
	for i, c := range m.customers {
		if c.CustomerID == m.snap.CustomerID {
			return m.customers[(i+1)%len(m.customers)].CustomerID
		}
	}
	return m.customers[0].CustomerID
}
