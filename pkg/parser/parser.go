// Package parser is the default workflow-file parser (SPEC_FULL §1):
// out of core scope, but shipped so the repository runs end to end.
// Reads YAML step/method documents from a workflow directory and
// builds a workflow.ParseTree, grounded on this repository's
// yaml.v3-based document loading (see pkg/schema/schema.go in the
// teacher and DESIGN.md).
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/strata-build/strata/pkg/workflow"
)

// stepDoc is the on-disk shape of a single step.
type stepDoc struct {
	Inputs     []string          `yaml:"inputs"`
	Outputs    []string          `yaml:"outputs"`
	InputTags  []string          `yaml:"input_tags"`
	OutputTags []string          `yaml:"output_tags"`
	Vars       map[string]string `yaml:"vars"`
	Cmds       []string          `yaml:"cmds"`
	Method     string            `yaml:"method"`
	MethodMode string            `yaml:"method_mode"`
	Timecheck  *bool             `yaml:"timecheck"`
	Protocol   string            `yaml:"protocol"`
}

// methodDoc is the on-disk shape of a reusable method body.
type methodDoc struct {
	Vars map[string]string `yaml:"vars"`
	Cmds []string          `yaml:"cmds"`
}

// fileDoc is one workflow.d/*.yaml file: zero or more steps and
// zero or more named methods.
type fileDoc struct {
	Steps   []stepDoc            `yaml:"steps"`
	Methods map[string]methodDoc `yaml:"methods"`
}

var fragmentRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ParseDir reads every *.yaml/*.yml file directly under dir (no
// recursion; workflow.d is a flat directory of step files) and builds
// a single ParseTree.
func ParseDir(dir string) (*workflow.ParseTree, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("workflow directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, &workflow.Error{Kind: workflow.KindSyntaxError, Msg: fmt.Sprintf("%s is not a directory", dir)}
	}

	var files []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read workflow directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var steps []workflow.Step
	methods := make(map[string]workflow.Method)
	usedNames := make(map[string]int)

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var doc fileDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &workflow.Error{Kind: workflow.KindSyntaxError, Msg: fmt.Sprintf("%s: %v", path, err)}
		}
		for name, m := range doc.Methods {
			methods[name] = workflow.Method{
				Vars: m.Vars,
				Cmds: toCmdLines(m.Cmds),
			}
		}
		for _, sd := range doc.Steps {
			steps = append(steps, toStep(sd, usedNames))
		}
	}

	return workflow.NewParseTree(steps, methods)
}

func toStep(sd stepDoc, usedNames map[string]int) workflow.Step {
	timecheck := true
	if sd.Timecheck != nil {
		timecheck = *sd.Timecheck
	}
	name := dirNameFor(sd, usedNames)
	return workflow.Step{
		Inputs:     sd.Inputs,
		Outputs:    sd.Outputs,
		InputTags:  sd.InputTags,
		OutputTags: sd.OutputTags,
		Vars:       sd.Vars,
		Cmds:       toCmdLines(sd.Cmds),
		Opts: workflow.Opts{
			Method:     sd.Method,
			MethodMode: workflow.MethodMode(sd.MethodMode),
			Timecheck:  timecheck,
			Protocol:   sd.Protocol,
		},
		DirName: name,
	}
}

// dirNameFor derives a stable per-step identifier from its outputs and
// tags (spec.md §6), disambiguating collisions with a numeric suffix.
func dirNameFor(sd stepDoc, usedNames map[string]int) string {
	base := "step"
	switch {
	case len(sd.Outputs) > 0:
		base = sanitizeName(sd.Outputs[0])
	case len(sd.OutputTags) > 0:
		base = sanitizeName(sd.OutputTags[0])
	}
	usedNames[base]++
	if n := usedNames[base]; n > 1 {
		return fmt.Sprintf("%s-%d", base, n)
	}
	return base
}

func sanitizeName(s string) string {
	s = strings.TrimPrefix(s, "%")
	return strings.NewReplacer("/", "_", " ", "_").Replace(s)
}

func toCmdLines(lines []string) []workflow.CmdLine {
	out := make([]workflow.CmdLine, len(lines))
	for i, l := range lines {
		out[i] = tokenize(l)
	}
	return out
}

// tokenize splits a raw command-line string into fragments, treating
// "${NAME}" as a variable reference and everything else as literal
// text.
func tokenize(line string) workflow.CmdLine {
	var frags workflow.CmdLine
	last := 0
	for _, loc := range fragmentRe.FindAllStringSubmatchIndex(line, -1) {
		if loc[0] > last {
			frags = append(frags, workflow.Fragment{Literal: line[last:loc[0]]})
		}
		frags = append(frags, workflow.Fragment{VarRef: line[loc[2]:loc[3]]})
		last = loc[1]
	}
	if last < len(line) {
		frags = append(frags, workflow.Fragment{Literal: line[last:]})
	}
	return frags
}
