// Package selector implements the Target Selector (spec.md §4.C):
// resolves user target expressions against a parse tree into an
// ordered, topologically sorted list of target selections. Grounded
// on this repository's recursive-descent flag-stripping style used
// for CLI argument parsing (see DESIGN.md).
package selector

import (
	"github.com/strata-build/strata/pkg/workflow"
)

type parsedExpr struct {
	selectAll   bool
	exclude     bool
	forced      bool
	includeDeps bool
	onlyNamed   bool
	name        string
}

func parseExpr(expr string) (parsedExpr, error) {
	if expr == "=..." {
		return parsedExpr{selectAll: true}, nil
	}

	var p parsedExpr
	rest := expr
	for len(rest) > 0 {
		switch rest[0] {
		case '+':
			p.includeDeps = true
		case '^':
			p.onlyNamed = true
		case '-':
			p.exclude = true
		case '!':
			p.forced = true
		default:
			p.name = rest
			rest = ""
			continue
		}
		rest = rest[1:]
	}
	if p.name == "" {
		return parsedExpr{}, workflow.NewInvalidTarget(expr)
	}
	return p, nil
}

// index maps names to the steps that produce or declare them, so
// expressions can be resolved without re-scanning the parse tree per
// expression.
type index struct {
	byOutput map[string][]int
	byTag    map[string][]int
	byMethod map[string][]int
}

func buildIndex(pt *workflow.ParseTree) index {
	idx := index{
		byOutput: make(map[string][]int),
		byTag:    make(map[string][]int),
		byMethod: make(map[string][]int),
	}
	for i, s := range pt.Steps {
		for _, o := range s.Outputs {
			idx.byOutput[o] = append(idx.byOutput[o], i)
		}
		for _, t := range s.OutputTags {
			idx.byTag[t] = append(idx.byTag[t], i)
		}
		if s.Opts.Method != "" {
			idx.byMethod[s.Opts.Method] = append(idx.byMethod[s.Opts.Method], i)
		}
	}
	return idx
}

func (idx index) resolve(name string) ([]int, workflow.MatchType, bool) {
	if ix, ok := idx.byOutput[name]; ok {
		return ix, workflow.MatchOutput, true
	}
	if ix, ok := idx.byTag[name]; ok {
		return ix, workflow.MatchTag, true
	}
	if ix, ok := idx.byMethod[name]; ok {
		return ix, workflow.MatchMethod, true
	}
	return nil, "", false
}

// specificity ranks match types so duplicate-collapsing keeps the
// most specific one: a tag or method match explains intent more
// precisely than an incidental output match.
func specificity(mt workflow.MatchType) int {
	switch mt {
	case workflow.MatchMethod:
		return 2
	case workflow.MatchTag:
		return 1
	default:
		return 0
	}
}

// Resolve turns a list of target expressions into an ordered,
// topologically sorted list of TargetSelection, per spec.md §4.C.
func Resolve(pt *workflow.ParseTree, exprs []string) ([]workflow.TargetSelection, error) {
	idx := buildIndex(pt)

	selected := make(map[int]*workflow.TargetSelection)
	excluded := make(map[int]bool)
	var order []int

	addSelection := func(i int, build workflow.BuildKind, mt workflow.MatchType) {
		if cur, ok := selected[i]; ok {
			if build == workflow.BuildForced {
				cur.Build = workflow.BuildForced
			}
			if specificity(mt) > specificity(cur.MatchType) {
				cur.MatchType = mt
			}
			return
		}
		selected[i] = &workflow.TargetSelection{Index: i, Build: build, MatchType: mt}
		order = append(order, i)
	}

	for _, raw := range exprs {
		p, err := parseExpr(raw)
		if err != nil {
			return nil, err
		}

		if p.selectAll {
			build := workflow.BuildNormal
			for i := range pt.Steps {
				addSelection(i, build, workflow.MatchOutput)
			}
			continue
		}

		matches, mt, ok := idx.resolve(p.name)
		if !ok {
			return nil, workflow.NewInvalidTarget(p.name)
		}

		if p.exclude {
			for _, i := range matches {
				excluded[i] = true
			}
			continue
		}

		build := workflow.BuildNormal
		if p.forced {
			build = workflow.BuildForced
		}
		includeDeps := p.includeDeps || !p.onlyNamed

		for _, i := range matches {
			addSelection(i, build, mt)
			if includeDeps {
				for dep := range pt.AllDependencies(i) {
					addSelection(dep, workflow.BuildNormal, workflow.MatchOutput)
				}
			}
		}
	}

	for i := range excluded {
		delete(selected, i)
	}

	visited := make(map[int]bool)
	var out []workflow.TargetSelection
	var visit func(int)
	visit = func(i int) {
		if visited[i] || excluded[i] {
			return
		}
		visited[i] = true
		for _, dep := range pt.DirectDeps(i) {
			if _, ok := selected[dep]; ok {
				visit(dep)
			}
		}
		if sel, ok := selected[i]; ok {
			out = append(out, *sel)
		}
	}
	for _, i := range order {
		visit(i)
	}

	return out, nil
}
