package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// OptionsJSONSchema produces a JSON Schema Draft 2020-12 document for
// the Options document shape, used both to validate .strata.yaml
// (options.go) and to export editor tooling support (SPEC_FULL.md §4.M),
// grounded on pkg/schema/export.go's invopop/jsonschema reflection.
func OptionsJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false
	s := r.Reflect(&Options{})
	s.ID = "https://strata-build.example/schemas/strata-config.json"
	s.Title = "strata project config"
	s.Description = "Schema for .strata.yaml project config documents"
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal options schema: %w", err)
	}
	return data, nil
}

// stepDoc mirrors Step in a shape invopop/jsonschema can reflect
// cleanly (Step itself carries a text/CmdLine representation that
// isn't meant for external documents).
type stepDoc struct {
	Inputs     []string          `json:"inputs,omitempty"`
	Outputs    []string          `json:"outputs,omitempty"`
	InputTags  []string          `json:"input_tags,omitempty"`
	OutputTags []string          `json:"output_tags,omitempty"`
	Vars       map[string]string `json:"vars,omitempty"`
	Cmds       []string          `json:"cmds,omitempty"`
	Method     string            `json:"method,omitempty"`
	MethodMode string            `json:"method_mode,omitempty" jsonschema:"enum=use,enum=append,enum=replace"`
	Timecheck  bool              `json:"timecheck,omitempty"`
	Protocol   string            `json:"protocol,omitempty"`
}

// StepJSONSchema produces a JSON Schema Draft 2020-12 document
// describing the Step document shape a workflow-file parser would
// read, for `strata schema export` (SPEC_FULL.md §4.M).
func StepJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false
	s := r.Reflect(&stepDoc{})
	s.ID = "https://strata-build.example/schemas/step.json"
	s.Title = "strata step"
	s.Description = "Schema for a single workflow step document"
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal step schema: %w", err)
	}
	return data, nil
}
