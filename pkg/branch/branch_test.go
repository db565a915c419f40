package branch

import (
	"testing"

	"github.com/strata-build/strata/pkg/workflow"
)

type fakeFS struct{ present map[string]bool }

func (f fakeFS) DataIn(path string) bool { return f.present[path] }

func TestAdjustNoBranchIsIdentity(t *testing.T) {
	s := workflow.Step{Inputs: []string{"a"}, Outputs: []string{"b"}}
	got := Adjust(fakeFS{}, s, "", false)
	if got.Inputs[0] != "a" || got.Outputs[0] != "b" {
		t.Fatalf("expected unchanged step, got %+v", got)
	}
}

func TestAdjustOutputsAlwaysSuffixed(t *testing.T) {
	s := workflow.Step{Outputs: []string{"b", "c"}}
	got := Adjust(fakeFS{}, s, "x", false)
	if got.Outputs[0] != "b#x" || got.Outputs[1] != "c#x" {
		t.Fatalf("expected all outputs suffixed, got %v", got.Outputs)
	}
}

func TestAdjustInputsReadThrough(t *testing.T) {
	s := workflow.Step{Inputs: []string{"a", "b"}}
	fs := fakeFS{present: map[string]bool{"a#x": true}}
	got := Adjust(fs, s, "x", false)
	if got.Inputs[0] != "a#x" {
		t.Fatalf("expected a to read from branch, got %q", got.Inputs[0])
	}
	if got.Inputs[1] != "b" {
		t.Fatalf("expected b to fall back to base namespace, got %q", got.Inputs[1])
	}
}

func TestAdjustAddToAllForcesSuffix(t *testing.T) {
	s := workflow.Step{Inputs: []string{"a"}}
	got := Adjust(fakeFS{}, s, "x", true)
	if got.Inputs[0] != "a#x" {
		t.Fatalf("expected forced suffix, got %q", got.Inputs[0])
	}
}

func TestAdjustPreservesCardinality(t *testing.T) {
	s := workflow.Step{Inputs: []string{"a", "b", "c"}, Outputs: []string{"d"}}
	got := Adjust(fakeFS{}, s, "x", true)
	if len(got.Inputs) != len(s.Inputs) || len(got.Outputs) != len(s.Outputs) {
		t.Fatalf("cardinality changed: %+v", got)
	}
}
