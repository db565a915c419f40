package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Options is the process-wide configuration, set once at the CLI
// boundary and read throughout the run (spec.md §3). Branch, Auto,
// Quiet, Logfile and Vars can also be seeded from a .strata.yaml
// project config (SPEC_FULL.md §6); other fields in that file are not
// applied. Flags take precedence because Load only fills fields that
// are still zero-valued.
type Options struct {
	Workflow    string `yaml:"workflow,omitempty"     json:"workflow,omitempty"`
	Branch      string `yaml:"branch,omitempty"       json:"branch,omitempty"`
	MergeBranch string `yaml:"merge_branch,omitempty" json:"merge_branch,omitempty"`
	Auto        bool   `yaml:"auto,omitempty"         json:"auto,omitempty"`
	Quiet       bool   `yaml:"quiet,omitempty"        json:"quiet,omitempty"`
	Print       bool   `yaml:"print,omitempty"        json:"print,omitempty"`
	Logfile     string `yaml:"logfile,omitempty"      json:"logfile,omitempty"`
	Vars        string `yaml:"vars,omitempty"         json:"vars,omitempty"` // CSV of k=v
	Debug       bool   `yaml:"debug,omitempty"        json:"debug,omitempty"`
	Version     bool   `yaml:"-" json:"-"`
	Help        bool   `yaml:"-" json:"-"`
}

// ResolveWorkflowPath implements spec.md §6's workflow-path resolution:
// if o.Workflow names a directory that itself has a "workflow.d"
// subdirectory, that subdirectory is the real workflow directory;
// either way, the final path must exist as a directory or this
// returns a user-facing error.
func (o Options) ResolveWorkflowPath() (string, error) {
	path := o.Workflow
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		candidate := filepath.Join(path, "workflow.d")
		if fi, err := os.Stat(candidate); err == nil && fi.IsDir() {
			path = candidate
		}
	}
	if fi, err := os.Stat(path); err != nil || !fi.IsDir() {
		return "", &Error{Kind: KindInvalidArgument, Msg: fmt.Sprintf("workflow directory %q not found", path)}
	}
	return path, nil
}

// VarsMap parses the CSV "k=v,k=v" form of Options.Vars. A value may
// itself contain "=" (split limit 2 per k=v pair); a key may not — this
// answers spec.md §9's open question by preserving the source's
// rejection of ambiguous keys (see DESIGN.md).
func (o Options) VarsMap() (map[string]string, error) {
	out := make(map[string]string)
	if strings.TrimSpace(o.Vars) == "" {
		return out, nil
	}
	for _, kv := range strings.Split(o.Vars, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, &Error{Kind: KindInvalidArgument, Msg: fmt.Sprintf("--vars entry %q is not of the form k=v", kv)}
		}
		key := strings.TrimSpace(parts[0])
		if strings.Contains(key, "=") {
			return nil, &Error{Kind: KindInvalidArgument, Msg: fmt.Sprintf("--vars entry %q has an ambiguous key", kv)}
		}
		out[key] = parts[1]
	}
	return out, nil
}

// Load reads a .strata.yaml project config (if present) and merges its
// branch, auto, quiet, logfile and vars values into o wherever o's
// fields are still zero-valued, i.e. config values act as defaults
// beneath whatever the CLI flags already set. dir is the directory to
// look in (normally the workflow directory).
func (o *Options) Load(dir string) error {
	path := filepath.Join(dir, ".strata.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := validateConfig(data); err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}

	var cfg Options
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if o.Branch == "" {
		o.Branch = cfg.Branch
	}
	if !o.Auto {
		o.Auto = cfg.Auto
	}
	if !o.Quiet {
		o.Quiet = cfg.Quiet
	}
	if o.Logfile == "" {
		o.Logfile = cfg.Logfile
	}
	if o.Vars == "" {
		o.Vars = cfg.Vars
	}
	return nil
}

// validateConfig checks a .strata.yaml document against the Options
// JSON Schema before it is decoded, following the teacher's
// structural/semantic validation split (see DESIGN.md), collapsed to
// the semantic phase alone since Options has no further domain rules.
func validateConfig(yamlData []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(yamlData, &doc); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal for schema validation: %w", err)
	}

	schemaJSON, err := OptionsJSONSchema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return fmt.Errorf("unmarshal schema: %w", err)
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("strata-config.json", schemaDoc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile("strata-config.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var inst interface{}
	if err := json.Unmarshal(data, &inst); err != nil {
		return fmt.Errorf("unmarshal instance: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
