package selector

import (
	"testing"

	"github.com/strata-build/strata/pkg/workflow"
)

func chain(t *testing.T) *workflow.ParseTree {
	t.Helper()
	steps := []workflow.Step{
		{Outputs: []string{"a"}},                          // 0
		{Inputs: []string{"a"}, Outputs: []string{"b"}},    // 1
		{Inputs: []string{"b"}, Outputs: []string{"c"}, OutputTags: []string{"final"}}, // 2
	}
	pt, err := workflow.NewParseTree(steps, nil)
	if err != nil {
		t.Fatal(err)
	}
	return pt
}

func TestSelectAll(t *testing.T) {
	pt := chain(t)
	sels, err := Resolve(pt, []string{"=..."})
	if err != nil {
		t.Fatal(err)
	}
	if len(sels) != 3 {
		t.Fatalf("expected 3 selections, got %d", len(sels))
	}
	// topological: 0 before 1 before 2
	if sels[0].Index != 0 || sels[1].Index != 1 || sels[2].Index != 2 {
		t.Fatalf("expected topological order, got %v", sels)
	}
}

func TestPlainNameIncludesDepsByDefault(t *testing.T) {
	pt := chain(t)
	sels, err := Resolve(pt, []string{"c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sels) != 3 {
		t.Fatalf("expected c to pull in its transitive deps, got %d: %v", len(sels), sels)
	}
	if sels[len(sels)-1].Index != 2 {
		t.Fatalf("expected c last in topological order, got %v", sels)
	}
}

func TestCaretExcludesDeps(t *testing.T) {
	pt := chain(t)
	sels, err := Resolve(pt, []string{"^c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sels) != 1 || sels[0].Index != 2 {
		t.Fatalf("expected only step producing c, got %v", sels)
	}
}

func TestExcludePrefix(t *testing.T) {
	pt := chain(t)
	sels, err := Resolve(pt, []string{"c", "-a"})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range sels {
		if s.Index == 0 {
			t.Fatalf("expected step producing a to be excluded, got %v", sels)
		}
	}
}

func TestForcedPrefix(t *testing.T) {
	pt := chain(t)
	sels, err := Resolve(pt, []string{"^!c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sels) != 1 || sels[0].Build != workflow.BuildForced {
		t.Fatalf("expected forced selection, got %v", sels)
	}
}

func TestTagMatch(t *testing.T) {
	pt := chain(t)
	sels, err := Resolve(pt, []string{"^final"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sels) != 1 || sels[0].MatchType != workflow.MatchTag {
		t.Fatalf("expected tag match, got %v", sels)
	}
}

func TestInvalidTargetOnUnknownName(t *testing.T) {
	pt := chain(t)
	_, err := Resolve(pt, []string{"nonexistent"})
	if err == nil {
		t.Fatal("expected InvalidTarget error")
	}
	werr, ok := err.(*workflow.Error)
	if !ok || werr.Kind != workflow.KindInvalidTarget {
		t.Fatalf("expected InvalidTarget kind, got %v", err)
	}
}

func TestDedupKeepsForcedAndMostSpecificMatch(t *testing.T) {
	pt := chain(t)
	// select c via its tag (forced), then again via plain dependency
	// pull-in from selecting the whole chain with "=...": the forced
	// tag-based selection must survive the dedup.
	sels, err := Resolve(pt, []string{"=...", "!final"})
	if err != nil {
		t.Fatal(err)
	}
	var found *workflow.TargetSelection
	for i := range sels {
		if sels[i].Index == 2 {
			found = &sels[i]
		}
	}
	if found == nil {
		t.Fatal("expected step 2 present")
	}
	if found.Build != workflow.BuildForced {
		t.Fatalf("expected forced to win dedup, got %v", found)
	}
	if found.MatchType != workflow.MatchTag {
		t.Fatalf("expected most specific match type to win, got %v", found.MatchType)
	}
}
