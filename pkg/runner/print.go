package runner

import (
	"fmt"
	"io"
	"strings"

	"github.com/strata-build/strata/pkg/branch"
	"github.com/strata-build/strata/pkg/oracle"
	"github.com/strata-build/strata/pkg/workflow"
)

// addToAllFor decides the branch-adjuster's add_to_all flag for a
// human-facing rendering of step, per spec.md §4.H: a step we are
// projecting will run (rather than authoritatively re-checking) is
// rendered as if its branch-namespaced inputs already exist.
func addToAllFor(cause string) bool {
	return cause == "projected timestamped" || cause == "forced"
}

// PrintRecord emits one predicted step in print-mode format
// (spec.md §6): "S", then tab-separated I/%I/O/%O lines.
func PrintRecord(w io.Writer, fs branch.DataChecker, branchName string, step workflow.Step, sel workflow.TargetSelection, cause string) {
	adjusted := branch.Adjust(fs, step, branchName, addToAllFor(cause))
	fmt.Fprintln(w, "S")
	for _, in := range adjusted.Inputs {
		fmt.Fprintf(w, "I\t%s\n", in)
	}
	for _, t := range step.InputTags {
		fmt.Fprintf(w, "%%I\t%s\n", t)
	}
	for _, o := range adjusted.Outputs {
		fmt.Fprintf(w, "O\t%s\n", o)
	}
	for _, t := range step.OutputTags {
		fmt.Fprintf(w, "%%O\t%s\n", t)
	}
}

// StepString is the human-facing confirmation-transcript rendering:
// "%out-tags,outputs <- %in-tags,inputs" of the branch-adjusted view.
func StepString(fs oracle.FS, branchName string, step workflow.Step, cause string) string {
	adjusted := branch.Adjust(fs, step, branchName, addToAllFor(cause))
	outs := append(append([]string{}, step.OutputTags...), adjusted.Outputs...)
	ins := append(append([]string{}, step.InputTags...), adjusted.Inputs...)
	return strings.Join(outs, ", ") + " <- " + strings.Join(ins, ", ")
}
