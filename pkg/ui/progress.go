package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ServiceStartedMsg marks one service query as in flight.
type ServiceStartedMsg struct {
	Key  string
	Name string
}

// ServiceDoneMsg records one finished service query.
type ServiceDoneMsg struct {
	Key     string
	Success bool
	Err     string
}

// RunDoneMsg ends the progress view.
type RunDoneMsg struct{}

type serviceRow struct {
	key     string
	name    string
	running bool
	done    bool
	success bool
	err     string
}

/*
Progress is the optional live progress view for a fanout run. One row per
service: a spinner while its query is in flight, a success or failure mark
once it finishes. The runner feeds it messages through the program; Update
itself stays pure so it can be exercised without a terminal.
*/
type Progress struct {
	query   string
	spinner spinner.Model
	rows    []serviceRow
	done    bool
}

func NewProgress(query string) Progress {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = TitleStyle

	return Progress{
		query:   query,
		spinner: sp,
	}
}

func (m Progress) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil

	case ServiceStartedMsg:
		m.rows = append(m.rows, serviceRow{key: msg.Key, name: msg.Name, running: true})
		return m, nil

	case ServiceDoneMsg:
		for i := range m.rows {
			if m.rows[i].key == msg.Key {
				m.rows[i].running = false
				m.rows[i].done = true
				m.rows[i].success = msg.Success
				m.rows[i].err = msg.Err
			}
		}
		return m, nil

	case RunDoneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Progress) View() string {
	var builder strings.Builder

	builder.WriteString(TitleStyle.Render("query fanout"))
	builder.WriteString(" ")
	builder.WriteString(ValueStyle.Render(m.query))
	builder.WriteString("\n\n")

	for _, row := range m.rows {
		switch {
		case row.running:
			builder.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), row.name))
		case row.done && row.success:
			builder.WriteString(fmt.Sprintf("%s %s\n", SuccessStyle.Render("✓"), row.name))
		case row.done:
			builder.WriteString(fmt.Sprintf("%s %s  %s\n", FailureStyle.Render("✗"), row.name, LabelStyle.Render(row.err)))
		}
	}

	if m.done {
		builder.WriteString(LabelStyle.Render("\ndone\n"))
	}

	return builder.String()
}

// Rows reports each service's current state, for tests and for the final
// render after the program exits.
func (m Progress) Rows() []string {
	out := make([]string, 0, len(m.rows))
	for _, row := range m.rows {
		state := "running"
		if row.done {
			state = "failed"
			if row.success {
				state = "ok"
			}
		}
		out = append(out, fmt.Sprintf("%s:%s", row.key, state))
	}
	return out
}
