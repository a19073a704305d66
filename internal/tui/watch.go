// Package tui implements `redistq watch`, a terminal monitor for a running
// controller. It polls the status API and tails the SSE event stream.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxEventLines = 12

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	eventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	barFilled   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	barEmpty    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Model is the bubbletea model for the watch view.
type Model struct {
	client *statusClient

	spinner spinner.Model
	width   int

	status    *statusView
	connected bool
	lastError string
	events    []string

	eventCh chan sseEvent
}

// New creates a watch Model pointed at a status API.
func New(apiURL, apiKey string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	return &Model{
		client:  newStatusClient(apiURL, apiKey),
		spinner: sp,
		eventCh: make(chan sseEvent, 64),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.client.fetchStatus(),
		m.client.subscribe(m.eventCh),
		waitForEvent(m.eventCh),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case statusMsg:
		sv := statusView(msg)
		m.status = &sv
		m.lastError = ""
		return m, pollAfter(2*time.Second, m.client)

	case statusErrMsg:
		m.lastError = msg.err.Error()
		return m, pollAfter(5*time.Second, m.client)

	case sseEvent:
		m.connected = true
		m.events = append(m.events, formatEvent(msg))
		if len(m.events) > maxEventLines {
			m.events = m.events[len(m.events)-maxEventLines:]
		}
		return m, waitForEvent(m.eventCh)

	case sseDisconnectedMsg:
		m.connected = false
		return m, tea.Batch(
			reconnectAfter(3*time.Second, m.client, m.eventCh),
			waitForEvent(m.eventCh),
		)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("redistq watch"))
	b.WriteString("  ")
	if m.connected {
		b.WriteString(okStyle.Render("● live"))
	} else {
		b.WriteString(warnStyle.Render(m.spinner.View() + " connecting"))
	}
	b.WriteString("\n\n")

	if m.lastError != "" {
		b.WriteString(errStyle.Render("error: "+m.lastError) + "\n\n")
	}

	if m.status != nil {
		b.WriteString(m.renderStatus())
	} else {
		b.WriteString(labelStyle.Render("waiting for status...") + "\n")
	}

	if len(m.events) > 0 {
		b.WriteString("\n" + labelStyle.Render("events") + "\n")
		for _, line := range m.events {
			b.WriteString(eventStyle.Render(line) + "\n")
		}
	}

	b.WriteString("\n" + labelStyle.Render("q to quit"))
	return b.String()
}

func (m *Model) renderStatus() string {
	st := m.status

	state := okStyle.Render("dispatching")
	if st.Waiting {
		state = warnStyle.Render("waiting")
	}
	if st.Total > 0 && st.Cursor > st.Total {
		state = okStyle.Render("done")
	}

	rows := []string{
		fmt.Sprintf("%s %s", labelStyle.Render("state:"), state),
		fmt.Sprintf("%s %s", labelStyle.Render("progress:"), valueStyle.Render(
			fmt.Sprintf("%d/%d dispatched, %d skipped", st.Dispatched, st.Total, st.Skipped))),
		fmt.Sprintf("%s %s", labelStyle.Render("ticks:"), valueStyle.Render(fmt.Sprintf("%d", st.Ticks))),
		progressBar(st.Dispatched+st.Skipped, st.Total, 40),
	}
	return borderStyle.Render(strings.Join(rows, "\n")) + "\n"
}

// progressBar renders a fixed-width unicode bar.
func progressBar(done, total, width int) string {
	if total <= 0 {
		return ""
	}
	if done > total {
		done = total
	}
	filled := done * width / total
	return barFilled.Render(strings.Repeat("█", filled)) +
		barEmpty.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %3d%%", done*100/total)
}

func formatEvent(ev sseEvent) string {
	if len(ev.Data) == 0 || string(ev.Data) == "{}" {
		return ev.Type
	}
	return fmt.Sprintf("%-16s %s", ev.Type, ev.Data)
}
