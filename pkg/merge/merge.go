// Package merge implements the Merge Coordinator (spec.md §4.I): an
// alternative terminal mode that promotes a branch's outputs back into
// the main namespace, one file at a time. Grounded on the same
// confirm-then-act shape as pkg/runner (see DESIGN.md).
package merge

import (
	"fmt"
	"io"

	"github.com/strata-build/strata/pkg/runner"
	"github.com/strata-build/strata/pkg/vfs"
	"github.com/strata-build/strata/pkg/workflow"
)

// Mover is the capability the coordinator needs from the facade.
type Mover interface {
	DataIn(path string) bool
	Rm(path string) error
	Mv(src, dst string) error
}

// Move is one (src, dst) pair to promote.
type Move struct {
	Src string
	Dst string
}

// BuildMoveList computes the move list for the given branch and
// selected steps' outputs, in selection order.
func BuildMoveList(fs Mover, branchName string, pt *workflow.ParseTree, selections []workflow.TargetSelection) []Move {
	var moves []Move
	for _, sel := range selections {
		step := pt.Steps[sel.Index]
		for _, o := range step.Outputs {
			src := o + "#" + branchName
			if fs.DataIn(src) {
				moves = append(moves, Move{Src: src, Dst: o})
			}
		}
	}
	return moves
}

// Run executes the Merge Coordinator end-to-end: compute the move
// list, report/confirm, then move each file in order. Individual
// failures abort the remaining moves; completed moves are not rolled
// back (at-most-once best-effort), per spec.md §4.I.
func Run(out io.Writer, in io.Reader, fs Mover, branchName string, pt *workflow.ParseTree, selections []workflow.TargetSelection, auto bool) (int, error) {
	moves := BuildMoveList(fs, branchName, pt, selections)
	if len(moves) == 0 {
		fmt.Fprintln(out, "Nothing to do.")
		return 0, nil
	}

	for i, m := range moves {
		fmt.Fprintf(out, "%d. %s -> %s\n", i+1, m.Src, m.Dst)
	}

	if !auto {
		ok, err := confirm(out, in)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, nil
		}
	}

	moved := 0
	for _, m := range moves {
		if err := fs.Rm(m.Dst); err != nil {
			return moved, fmt.Errorf("merge: remove %s: %w", m.Dst, err)
		}
		if err := fs.Mv(m.Src, m.Dst); err != nil {
			return moved, fmt.Errorf("merge: move %s to %s: %w", m.Src, m.Dst, err)
		}
		moved++
	}
	return moved, nil
}

func confirm(out io.Writer, in io.Reader) (bool, error) {
	fmt.Fprint(out, "Merge these files? (y/n): ")
	return runner.ReadYesNo(in)
}

var _ Mover = (*vfs.Facade)(nil)
