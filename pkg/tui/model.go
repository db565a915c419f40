// Package tui implements the optional Run Progress Display and Report
// Renderer (SPEC_FULL §4.O/P): a Bubble Tea live view of the Runner's
// sequential step loop, and a glamour-rendered post-run summary.
// Grounded on pkg/tui/steps.go's status-glyph list rendering and
// pkg/tui/markdown.go's renderer (see DESIGN.md).
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/strata-build/strata/pkg/workflow"
)

type rowStatus int

const (
	rowPending rowStatus = iota
	rowRunning
	rowDone
	rowFailed
)

type row struct {
	number int
	label  string
	cause  string
	status rowStatus
	err    string
}

// Model is the Bubble Tea state for a single run's progress view.
type Model struct {
	rows []row
	done bool
	ran  int
}

// NewModel seeds one pending row per predicted step.
func NewModel(pt *workflow.ParseTree, predicted []workflow.TargetSelection) Model {
	rows := make([]row, len(predicted))
	for i, sel := range predicted {
		step := pt.Steps[sel.Index]
		label := step.DirName
		if label == "" && len(step.Outputs) > 0 {
			label = step.Outputs[0]
		}
		rows[i] = row{number: i + 1, label: label, cause: sel.Cause, status: rowPending}
	}
	return Model{rows: rows}
}

// StepStartedMsg marks a row as running.
type StepStartedMsg struct{ Index int }

// StepFinishedMsg marks a row as done or failed.
type StepFinishedMsg struct {
	Index int
	Err   error
}

// RunFinishedMsg signals the whole run is over; the program should quit.
type RunFinishedMsg struct{ Ran int }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StepStartedMsg:
		if msg.Index >= 0 && msg.Index < len(m.rows) {
			m.rows[msg.Index].status = rowRunning
		}
	case StepFinishedMsg:
		if msg.Index >= 0 && msg.Index < len(m.rows) {
			if msg.Err != nil {
				m.rows[msg.Index].status = rowFailed
				m.rows[msg.Index].err = msg.Err.Error()
			} else {
				m.rows[msg.Index].status = rowDone
			}
		}
	case RunFinishedMsg:
		m.done = true
		m.ran = msg.Ran
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	for _, r := range m.rows {
		glyph, style := glyphFor(r.status)
		line := fmt.Sprintf("%s %d. %s (%s)", glyph, r.number, r.label, r.cause)
		if r.status == rowFailed && r.err != "" {
			line += " — " + r.err
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	if m.done {
		b.WriteString(fmt.Sprintf("\nDone (%d steps run).\n", m.ran))
	}
	return b.String()
}

func glyphFor(s rowStatus) (string, interface{ Render(string) string }) {
	switch s {
	case rowRunning:
		return glyphRunning, styleRunning
	case rowDone:
		return glyphDone, styleDone
	case rowFailed:
		return glyphFailed, styleFailed
	default:
		return glyphPending, stylePending
	}
}
