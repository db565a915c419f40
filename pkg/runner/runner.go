// Package runner implements the Runner (spec.md §4.H): drives the
// materialized steps produced by the Selector/Predictor through their
// protocols, recording durations and variable dumps. Grounded on
// pkg/runtime/engine.go's Run/step-loop structure (see DESIGN.md).
package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/strata-build/strata/pkg/materializer"
	"github.com/strata-build/strata/pkg/oracle"
	"github.com/strata-build/strata/pkg/predictor"
	"github.com/strata-build/strata/pkg/protocol"
	"github.com/strata-build/strata/pkg/selector"
	"github.com/strata-build/strata/pkg/workflow"
)

// Deps bundles everything the Runner needs to drive one invocation.
type Deps struct {
	FS          oracle.FS
	ParseTree   *workflow.ParseTree
	BranchName  string
	WorkflowDir string
	EnvVars     map[string]string
	CLIVars     map[string]string
	Auto        bool
	Quiet       bool
	Print       bool
	Out         io.Writer
	In          io.Reader
	Trace       *TraceWriter // nil disables tracing
	Progress    ProgressReporter // nil falls back to the plain transcript
	Ask         func(prompt string) (bool, error) // nil falls back to bufio y/n on In
}

// ProgressReporter receives step-start/step-finish notifications so an
// alternative renderer (pkg/tui's Bubble Tea progress view, SPEC_FULL
// §4.O) can replace the plain fmt.Fprintf transcript. The Runner itself
// stays single-threaded either way: these are plain method calls on the
// same goroutine that would otherwise print, not a second worker.
// index is the step's 0-based position in the predicted list (the same
// order pkg/tui.NewModel builds its rows in), not workflow.TargetSelection.Index
// (the parse-tree position), which can differ once selection/predict
// has filtered or reordered steps.
type ProgressReporter interface {
	StepStarted(index int)
	StepFinished(index int, err error)
}

// Run is the Runner's public contract: run(parse_tree, targets).
// Returns the number of steps actually run.
func Run(d Deps, targets []string) (int, error) {
	selections, err := selector.Resolve(d.ParseTree, targets)
	if err != nil {
		return 0, err
	}

	predicted, err := predictor.Predict(d.FS, d.BranchName, d.ParseTree, selections)
	if err != nil {
		return 0, err
	}

	if len(predicted) == 0 {
		fmt.Fprintln(d.Out, "Nothing to do.")
		return 0, nil
	}

	if d.Print {
		for _, sel := range predicted {
			PrintRecord(d.Out, d.FS, d.BranchName, d.ParseTree.Steps[sel.Index], sel, sel.Cause)
		}
		return 0, nil
	}

	if !d.Auto {
		ask := d.Ask
		if ask == nil {
			ask = func(prompt string) (bool, error) {
				fmt.Fprint(d.Out, prompt)
				return ReadYesNo(d.In)
			}
		}
		ok, err := ConfirmWith(d.Out, d.FS, d.BranchName, d.ParseTree, predicted, ask)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, nil
		}
	}

	ran := 0
	for i, sel := range predicted {
		didRun, err := runStep(d, i+1, sel)
		if err != nil {
			return ran, err
		}
		if didRun {
			ran++
		}
	}

	if d.Progress == nil && !d.Quiet {
		fmt.Fprintf(d.Out, "Done (%d steps run).\n", ran)
	}
	return ran, nil
}

// runStep implements run_step(parse_tree, step_number, selection) per
// spec.md §4.H.
func runStep(d Deps, number int, sel workflow.TargetSelection) (bool, error) {
	step := d.ParseTree.Steps[sel.Index]

	ms, err := materializer.Materialize(d.FS, d.BranchName, d.ParseTree, step, d.EnvVars, d.CLIVars, d.WorkflowDir)
	if err != nil {
		return false, err
	}

	cause, err := oracle.ShouldBuild(d.FS, d.BranchName, step, sel.Build == workflow.BuildForced, false, sel.MatchType, true)
	if err != nil {
		return false, err
	}

	if cause == "" {
		// A skipped step is not reported to Progress: its row stays
		// pending, which pkg/tui's Summary lists as skipped.
		if d.Progress == nil && !d.Quiet {
			fmt.Fprintf(d.Out, "--- %d. Skipped (up-to-date)\n", number)
		}
		d.trace(sel.Index, "", false, 0, ms.Protocol, nil)
		return false, nil
	}

	if d.Progress != nil {
		d.Progress.StepStarted(number - 1)
	} else if !d.Quiet {
		fmt.Fprintf(d.Out, "--- %d. Running (%s)\n", number, cause)
	}

	startTime := time.Now()
	if err := PersistVarsDump(d.WorkflowDir, step.DirName, startTime.UTC().Format("20060102T150405Z"), ms.VarsEnv); err != nil {
		return false, err
	}

	proto, err := protocol.Lookup(ms.Protocol)
	if err != nil {
		return false, err
	}

	runErr := proto.Run(context.Background(), ms)
	elapsed := time.Since(startTime)

	if d.Progress != nil {
		d.Progress.StepFinished(number-1, runErr)
	} else if !d.Quiet {
		fmt.Fprintf(d.Out, "    %.1fs\n", elapsed.Seconds())
	}

	d.trace(sel.Index, cause, true, elapsed.Milliseconds(), ms.Protocol, runErr)

	if runErr != nil {
		return true, runErr
	}
	return true, nil
}

func (d Deps) trace(stepIndex int, cause string, ran bool, durationMs int64, protocolName string, runErr error) {
	if d.Trace == nil {
		return
	}
	ev := TraceEvent{
		Timestamp:  time.Now(),
		StepIndex:  stepIndex,
		Cause:      cause,
		Ran:        ran,
		DurationMs: durationMs,
		Protocol:   protocolName,
	}
	if runErr != nil {
		ev.Error = runErr.Error()
	}
	_ = d.Trace.Write(ev)
}
