package runner

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/strata-build/strata/pkg/oracle"
	"github.com/strata-build/strata/pkg/workflow"
)

// Confirm lists the predicted run in one-based order with its
// step-string and cause, then prompts for y/n. Grounded on
// pkg/providers/manual.go's bufio.Reader-based y/n prompting.
func Confirm(out io.Writer, in io.Reader, fs oracle.FS, branchName string, pt *workflow.ParseTree, predicted []workflow.TargetSelection) (bool, error) {
	return ConfirmWith(out, fs, branchName, pt, predicted, func(prompt string) (bool, error) {
		fmt.Fprint(out, prompt)
		return ReadYesNo(in)
	})
}

// ConfirmWith is Confirm with the final y/n prompt delegated to ask,
// so the CLI boundary can swap in a readline-backed prompt (see
// DESIGN.md) when stdin is an interactive terminal, without duplicating the
// step listing.
func ConfirmWith(out io.Writer, fs oracle.FS, branchName string, pt *workflow.ParseTree, predicted []workflow.TargetSelection, ask func(prompt string) (bool, error)) (bool, error) {
	for i, sel := range predicted {
		step := pt.Steps[sel.Index]
		fmt.Fprintf(out, "%d. %s (%s)\n", i+1, StepString(fs, branchName, step, sel.Cause), sel.Cause)
	}
	return ask("Run these steps? (y/n): ")
}

// ReadYesNo reads one line from in and reports whether it is an
// affirmative answer. Shared by the Runner and Merge Coordinator
// confirmation prompts.
func ReadYesNo(in io.Reader) (bool, error) {
	reader := bufio.NewReader(in)
	answer, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}
