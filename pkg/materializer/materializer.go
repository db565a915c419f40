// Package materializer implements the Step Materializer (spec.md
// §4.G): branch-adjusts a step, resolves method inheritance, merges
// variable scopes, substitutes variables into command lines, and
// normalizes whitespace. Grounded on this repository's single-pass
// resolve-then-substitute template rendering style (see DESIGN.md).
package materializer

import (
	"fmt"
	"strings"

	"github.com/strata-build/strata/pkg/branch"
	"github.com/strata-build/strata/pkg/protocol"
	"github.com/strata-build/strata/pkg/workflow"
)

// Materialize produces a MaterializedStep for step, drawn from pt for
// method inheritance. envVars is the OS environment snapshot and
// cliVars is the parsed --vars map; both are merged beneath the
// step's own vars per the precedence in spec.md §5. workflowDir is
// carried onto the result so protocols can pin their subprocess CWD to
// it rather than inheriting the engine process's own CWD (spec.md §5).
func Materialize(
	fs branch.DataChecker,
	branchName string,
	pt *workflow.ParseTree,
	step workflow.Step,
	envVars map[string]string,
	cliVars map[string]string,
	workflowDir string,
) (workflow.MaterializedStep, error) {
	for _, in := range step.Inputs {
		if strings.HasPrefix(in, "?") {
			return workflow.MaterializedStep{}, workflow.NewUnsupportedOptionalInput(step.DirName)
		}
	}

	adjusted := branch.Adjust(fs, step, branchName, false)

	inputs := make([]string, len(adjusted.Inputs))
	for i, p := range adjusted.Inputs {
		inputs[i] = normalizePath(fs, p)
	}
	outputs := make([]string, len(adjusted.Outputs))
	for i, p := range adjusted.Outputs {
		outputs[i] = normalizePath(fs, p)
	}

	cmds, opts, vars := resolveInheritance(pt, step)

	varsEnv := buildVarsEnv(envVars, cliVars, vars, inputs, outputs)

	lines := make([]string, 0, len(cmds))
	for _, line := range cmds {
		rendered, err := substitute(line, varsEnv)
		if err != nil {
			return workflow.MaterializedStep{}, err
		}
		lines = append(lines, rendered)
	}
	lines = despace(lines)

	// EmptyCommands only applies when the step's protocol actually
	// requires commands (spec.md §4.G step 7 / invariant 3); an unknown
	// protocol name is treated as requiring them too, since Lookup will
	// raise its own error for that later in the Runner.
	proto, protoErr := protocol.Lookup(opts.Protocol)
	cmdsRequired := protoErr != nil || proto.CmdsRequired()
	if cmdsRequired && len(lines) == 0 {
		return workflow.MaterializedStep{}, workflow.NewEmptyCommands(step.DirName)
	}

	return workflow.MaterializedStep{
		DirName:     step.DirName,
		Inputs:      inputs,
		Outputs:     outputs,
		VarsEnv:     varsEnv,
		Cmds:        lines,
		Protocol:    opts.Protocol,
		WorkflowDir: workflowDir,
	}, nil
}

// normalizePath implements spec.md §4.G step 2: canonicalize, then
// strip the file: scheme if present. Canonicalization goes through
// fs's NormalizedPath when fs is the real Filesystem Facade (it is the
// only component that knows the workflow directory a relative path
// resolves against); test fakes that only implement branch.DataChecker
// fall back to a bare scheme strip.
func normalizePath(fs branch.DataChecker, p string) string {
	if pn, ok := fs.(interface{ NormalizedPath(string) string }); ok {
		p = pn.NormalizedPath(p)
	}
	if len(p) > 5 && p[:5] == "file:" {
		p = p[5:]
	}
	return p
}

// resolveInheritance applies spec.md §4.G step 4. Step opts win over
// method opts on every field except protocol, which falls back to the
// method's when the step leaves it unset — methods commonly carry the
// interpreter/protocol a step's commands expect.
func resolveInheritance(pt *workflow.ParseTree, step workflow.Step) ([]workflow.CmdLine, workflow.Opts, map[string]string) {
	opts := step.Opts
	if opts.Method == "" {
		return step.Cmds, opts, mergeStringMaps(nil, step.Vars)
	}

	method := pt.Methods[opts.Method]
	vars := mergeStringMaps(method.Vars, step.Vars)
	if opts.Protocol == "" {
		opts.Protocol = method.Opts.Protocol
	}

	switch opts.EffectiveMethodMode() {
	case workflow.MethodReplace:
		return step.Cmds, opts, vars
	case workflow.MethodAppend:
		cmds := append(append([]workflow.CmdLine{}, method.Cmds...), step.Cmds...)
		return cmds, opts, vars
	default: // "use"
		return method.Cmds, opts, vars
	}
}

func mergeStringMaps(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// buildVarsEnv assembles vars_env in precedence order, lowest to
// highest: OS environment, --vars, step/method vars, INPUT*/OUTPUT*.
func buildVarsEnv(envVars, cliVars, stepVars map[string]string, inputs, outputs []string) *workflow.OrderedVars {
	om := workflow.NewOrderedVars()
	for k, v := range envVars {
		om.Set(k, v)
	}
	for k, v := range cliVars {
		om.Set(k, v)
	}
	for k, v := range stepVars {
		om.Set(k, v)
	}
	setIOVars(om, "INPUT", inputs)
	setIOVars(om, "OUTPUT", outputs)
	return om
}

func setIOVars(om *workflow.OrderedVars, prefix string, paths []string) {
	if len(paths) > 0 {
		om.Set(prefix, paths[0])
	}
	for i, p := range paths {
		om.Set(fmt.Sprintf("%s%d", prefix, i), p)
	}
	om.Set(prefix+"S", strings.Join(paths, " "))
}

func substitute(line workflow.CmdLine, varsEnv *workflow.OrderedVars) (string, error) {
	var b strings.Builder
	for _, frag := range line {
		if frag.IsVarRef() {
			v, ok := varsEnv.Get(frag.VarRef)
			if !ok {
				return "", workflow.NewUndefinedVariable(frag.VarRef)
			}
			b.WriteString(v)
			continue
		}
		b.WriteString(frag.Literal)
	}
	return b.String(), nil
}

// despace strips the leading whitespace prefix of the first line from
// every subsequent line that starts with that exact prefix.
func despace(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	prefix := leadingWhitespace(lines[0])
	if prefix == "" {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if strings.HasPrefix(l, prefix) {
			out[i] = l[len(prefix):]
		} else {
			out[i] = l
		}
	}
	return out
}

func leadingWhitespace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[:i]
}
