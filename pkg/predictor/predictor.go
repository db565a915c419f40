// Package predictor implements the Predictor (spec.md §4.F): folds
// the Staleness Oracle over an ordered list of target selections,
// accumulating the triggering closure, grounded on this repository's
// dependency-closure-computation style (see DESIGN.md).
package predictor

import (
	"github.com/strata-build/strata/pkg/oracle"
	"github.com/strata-build/strata/pkg/workflow"
)

// Predict folds the oracle over selections in order, returning the
// subset that should run, each annotated with its cause.
func Predict(
	fs oracle.FS,
	branchName string,
	pt *workflow.ParseTree,
	selections []workflow.TargetSelection,
) ([]workflow.TargetSelection, error) {
	triggered := make(map[int]bool)
	var out []workflow.TargetSelection

	for _, sel := range selections {
		step := pt.Steps[sel.Index]
		cause, err := oracle.ShouldBuild(
			fs,
			branchName,
			step,
			sel.Build == workflow.BuildForced,
			triggered[sel.Index],
			sel.MatchType,
			false,
		)
		if err != nil {
			return nil, err
		}
		if cause == "" {
			continue
		}
		sel.Cause = cause
		out = append(out, sel)
		// Every step downstream of a scheduled step is triggered: its
		// inputs are about to be (re)produced.
		for j := range pt.Steps {
			if pt.AllDependencies(j)[sel.Index] {
				triggered[j] = true
			}
		}
	}
	return out, nil
}
