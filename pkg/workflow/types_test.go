package workflow

import "testing"

func TestNewParseTreeEdgesByOutput(t *testing.T) {
	steps := []Step{
		{Outputs: []string{"a"}},
		{Inputs: []string{"a"}, Outputs: []string{"b"}},
	}
	pt, err := NewParseTree(steps, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deps := pt.DirectDeps(1)
	if len(deps) != 1 || deps[0] != 0 {
		t.Fatalf("expected step 1 to depend on step 0, got %v", deps)
	}
}

func TestNewParseTreeEdgesByTag(t *testing.T) {
	steps := []Step{
		{OutputTags: []string{"%build"}},
		{InputTags: []string{"%build"}},
	}
	pt, err := NewParseTree(steps, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deps := pt.DirectDeps(1); len(deps) != 1 || deps[0] != 0 {
		t.Fatalf("expected tag-based dependency, got %v", deps)
	}
}

func TestNewParseTreeUndefinedMethod(t *testing.T) {
	steps := []Step{{Opts: Opts{Method: "missing"}}}
	_, err := NewParseTree(steps, map[string]Method{})
	if err == nil {
		t.Fatal("expected error for undefined method reference")
	}
}

func TestAllDependenciesTransitive(t *testing.T) {
	// a -> b -> c  (c depends on b depends on a)
	steps := []Step{
		{Outputs: []string{"a"}},
		{Inputs: []string{"a"}, Outputs: []string{"b"}},
		{Inputs: []string{"b"}, Outputs: []string{"c"}},
	}
	pt, err := NewParseTree(steps, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deps := pt.AllDependencies(2)
	if !deps[0] || !deps[1] {
		t.Fatalf("expected transitive deps {0,1}, got %v", deps)
	}
}

func TestVarsMapRejectsAmbiguousKey(t *testing.T) {
	o := Options{Vars: "k1=k2=v"}
	if _, err := o.VarsMap(); err == nil {
		t.Fatal("expected error for key containing '='")
	}
}

func TestVarsMapAllowsValueWithEquals(t *testing.T) {
	o := Options{Vars: "k=a=b"}
	m, err := o.VarsMap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["k"] != "a=b" {
		t.Fatalf("expected value 'a=b', got %q", m["k"])
	}
}
