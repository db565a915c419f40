// Package branch implements the Branch Adjuster (spec.md §4.D): a
// pure, side-effect-free rewrite of a step's inputs/outputs under the
// branch-namespacing policy, grounded on this repository's small
// pure-transform-over-a-struct style (see DESIGN.md).
package branch

import (
	"github.com/strata-build/strata/pkg/vfs"
	"github.com/strata-build/strata/pkg/workflow"
)

// DataChecker is the minimal capability branch adjustment needs from
// the Filesystem Facade.
type DataChecker interface {
	DataIn(path string) bool
}

var _ DataChecker = (*vfs.Facade)(nil)

// Adjust rewrites step's inputs/outputs for the active branch. When
// branchName is empty the step is returned unchanged. addToAll governs
// whether every input is unconditionally suffixed (true — used when we
// are predicting a predecessor will have just produced a
// branch-namespaced output) or only those already present in the
// branch namespace (false — the normal read-through case).
func Adjust(fs DataChecker, step workflow.Step, branchName string, addToAll bool) workflow.Step {
	if branchName == "" {
		return step
	}

	out := step
	out.Outputs = make([]string, len(step.Outputs))
	for i, o := range step.Outputs {
		out.Outputs[i] = suffix(o, branchName)
	}

	out.Inputs = make([]string, len(step.Inputs))
	for i, in := range step.Inputs {
		if addToAll || fs.DataIn(suffix(in, branchName)) {
			out.Inputs[i] = suffix(in, branchName)
		} else {
			out.Inputs[i] = in
		}
	}
	return out
}

func suffix(path, branchName string) string {
	return path + "#" + branchName
}
