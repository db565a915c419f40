// Package oracle implements the Staleness Oracle (spec.md §4.E):
// should-build?, the nine-rule decision procedure that decides whether
// a step is out of date and why. Grounded on this repository's
// ordered-rule-pipeline validation style (first-failure-wins per
// phase, see pkg/schema/validate.go in the teacher and DESIGN.md).
package oracle

import (
	"fmt"

	"github.com/strata-build/strata/pkg/branch"
	"github.com/strata-build/strata/pkg/vfs"
	"github.com/strata-build/strata/pkg/workflow"
)

// FS is the facade capability the oracle needs.
type FS interface {
	branch.DataChecker
	NewestIn(path string) (vfs.FileInfo, bool)
	OldestIn(path string) (vfs.FileInfo, bool)
}

// ShouldBuild decides whether step is out of date. An empty cause means
// "do not build"; a non-nil error of kind MissingInput is the one
// case where the caller should treat this as a hard failure rather
// than a skip (per rule 1). The returned string is the cause.
func ShouldBuild(
	fs FS,
	branchName string,
	step workflow.Step,
	forced bool,
	triggered bool,
	matchType workflow.MatchType,
	failOnEmpty bool,
) (cause string, err error) {
	adjusted := branch.Adjust(fs, step, branchName, false)

	var emptyInputs []string
	for _, in := range adjusted.Inputs {
		if !fs.DataIn(in) {
			emptyInputs = append(emptyInputs, in)
		}
	}
	noOutputs := len(adjusted.Outputs) == 0

	// Rule 1.
	if len(emptyInputs) > 0 && (failOnEmpty || !triggered) {
		return "", workflow.NewMissingInput(emptyInputs)
	}

	// Rule 2.
	if forced {
		if matchType != workflow.MatchOutput {
			return fmt.Sprintf("forced (via %s)", matchLabel(matchType)), nil
		}
		return "forced", nil
	}

	// Rule 3.
	if matchType != workflow.MatchOutput {
		return fmt.Sprintf("via %s", matchLabel(matchType)), nil
	}

	// Rule 4.
	if noOutputs {
		return "", nil
	}

	// Rule 5.
	if !triggered {
		for _, o := range adjusted.Outputs {
			if !fs.DataIn(o) {
				return "missing output", nil
			}
		}
	}

	// Rule 6.
	if !step.Opts.Timecheck {
		return "", nil
	}

	// Rule 7.
	if triggered {
		return "projected timestamped", nil
	}

	// Rule 8.
	if len(adjusted.Inputs) == 0 {
		return "no-input step", nil
	}

	// Rule 9.
	var newestInput int64 = -1
	for _, in := range adjusted.Inputs {
		if fi, ok := fs.NewestIn(in); ok && fi.ModTimeMs > newestInput {
			newestInput = fi.ModTimeMs
		}
	}
	var oldestOutput int64 = -1
	haveOutput := false
	for _, o := range adjusted.Outputs {
		if !fs.DataIn(o) {
			continue
		}
		if fi, ok := fs.OldestIn(o); ok {
			if !haveOutput || fi.ModTimeMs < oldestOutput {
				oldestOutput = fi.ModTimeMs
				haveOutput = true
			}
		}
	}
	if haveOutput && newestInput > oldestOutput {
		return "timestamped", nil
	}
	return "", nil
}

func matchLabel(mt workflow.MatchType) string {
	switch mt {
	case workflow.MatchTag:
		return "tag"
	case workflow.MatchMethod:
		return "method"
	default:
		return string(mt)
	}
}
