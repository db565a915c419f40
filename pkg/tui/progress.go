package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/strata-build/strata/pkg/workflow"
)

// Progress drives a Bubble Tea program from the Runner's sequential
// step loop (SPEC_FULL §4.O). The Runner calls StepStarted/StepFinished
// synchronously on its own goroutine; Progress forwards them to the
// program via Send and does not introduce a second worker, matching the
// single-threaded execution model in SPEC_FULL §5.
type Progress struct {
	program *tea.Program
	done    chan struct{}
	final   Model
}

// NewProgress starts the TUI program in the background and returns a
// Progress handle. Call Finish after the Runner's loop has finished to
// block until the program exits.
func NewProgress(pt *workflow.ParseTree, predicted []workflow.TargetSelection) *Progress {
	m := NewModel(pt, predicted)
	p := tea.NewProgram(m)
	pr := &Progress{program: p, done: make(chan struct{})}
	go func() {
		if final, err := p.Run(); err == nil {
			if fm, ok := final.(Model); ok {
				pr.final = fm
			}
		}
		close(pr.done)
	}()
	return pr
}

// StepStarted reports that the step at index has begun executing.
func (pr *Progress) StepStarted(index int) {
	pr.program.Send(StepStartedMsg{Index: index})
}

// StepFinished reports that the step at index finished, successfully
// or not.
func (pr *Progress) StepFinished(index int, err error) {
	pr.program.Send(StepFinishedMsg{Index: index, Err: err})
}

// Finish reports the run is over and waits for the program to exit.
func (pr *Progress) Finish(ran int) {
	pr.program.Send(RunFinishedMsg{Ran: ran})
	<-pr.done
}

// Summary reports the final per-row outcome after Finish has returned,
// for the post-run glamour report (SPEC_FULL §4.P).
func (pr *Progress) Summary() Summary {
	var s Summary
	for _, r := range pr.final.rows {
		switch r.status {
		case rowDone:
			s.Ran = append(s.Ran, r.label)
		case rowFailed:
			s.Failed = append(s.Failed, r.label)
		default:
			s.Skipped = append(s.Skipped, r.label)
		}
	}
	return s
}
