// Command strata is the CLI Orchestrator (spec.md §4.J): parses flags
// and target expressions, wires the Parser/Selector/Predictor/Runner/
// Merge Coordinator together, and maps workflow.Error to exit codes.
// Grounded on cmd/gert/main.go's cobra command wiring and loadDotEnv
// pattern (see DESIGN.md).
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/strata-build/strata/pkg/merge"
	"github.com/strata-build/strata/pkg/parser"
	"github.com/strata-build/strata/pkg/predictor"
	"github.com/strata-build/strata/pkg/runner"
	"github.com/strata-build/strata/pkg/selector"
	"github.com/strata-build/strata/pkg/tui"
	"github.com/strata-build/strata/pkg/vfs"
	"github.com/strata-build/strata/pkg/workflow"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	loadDotEnv()
	if err := rootCmd.Execute(); err != nil {
		if we, ok := err.(*workflow.Error); ok {
			fmt.Fprintln(os.Stderr, "error:", we.Error())
			os.Exit(we.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadDotEnv reads a .env file from the working directory and sets any
// variables not already present in the environment. Gitignored so
// secrets never end up in source control.
func loadDotEnv() {
	f, err := os.Open(".env")
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "strata [flags] [targets...]",
	Short: "A dependency-driven build and workflow runner",
	Long: `strata selects, predicts, and runs the steps of a workflow
whose inputs have gone stale, in dependency order.

Flags: -d/--debug, -w/--workflow <path> (default ./workflow.d),
-b/--branch <name>, --merge-branch <name>, -a/--auto, -q/--quiet,
-p/--print, -l/--logfile <path>, --version, -v/--vars <k=v,k=v>,
-h/--help.

Positional arguments following the flags are target expressions;
the default target when none are given is "=..." (everything).`,
	DisableFlagParsing: true,
	RunE:               runMain,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaExportCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("strata %s (build: %s)\n", version, commit)
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema operations",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the step/config JSON Schemas to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgSchema, err := workflow.OptionsJSONSchema()
		if err != nil {
			return fmt.Errorf("generate config schema: %w", err)
		}
		stepSchema, err := workflow.StepJSONSchema()
		if err != nil {
			return fmt.Errorf("generate step schema: %w", err)
		}
		fmt.Println(string(cfgSchema))
		fmt.Println(string(stepSchema))
		return nil
	},
}

// cliFlags is the flag state the manual parser fills in, mirroring
// spec.md §6's CLI surface.
type cliFlags struct {
	debug       bool
	workflow    string
	branch      string
	mergeBranch string
	auto        bool
	quiet       bool
	print       bool
	logfile     string
	vars        string
	version     bool
	help        bool
}

// knownFlag reports whether arg is a recognized flag (long or short
// form) and whether it additionally consumes the following argument as
// its value.
func knownFlag(arg string) (name string, takesValue bool, ok bool) {
	switch arg {
	case "-d", "--debug":
		return "debug", false, true
	case "-w", "--workflow":
		return "workflow", true, true
	case "-b", "--branch":
		return "branch", true, true
	case "--merge-branch":
		return "merge-branch", true, true
	case "-a", "--auto":
		return "auto", false, true
	case "-q", "--quiet":
		return "quiet", false, true
	case "-p", "--print":
		return "print", false, true
	case "-l", "--logfile":
		return "logfile", true, true
	case "--version":
		return "version", false, true
	case "-v", "--vars":
		return "vars", true, true
	case "-h", "--help":
		return "help", false, true
	default:
		return "", false, false
	}
}

// parseArgs splits args into flags and target expressions per spec.md
// §6's splitting rule: the first positional argument that is neither a
// known flag nor a known flag's value starts the target list. From
// that point every remaining token is a target expression verbatim,
// even one spelled "-name" (a selector exclusion), never reinterpreted
// as a CLI flag.
func parseArgs(args []string) (cliFlags, []string) {
	var f cliFlags
	f.workflow = "./workflow.d"

	i := 0
	for i < len(args) {
		name, takesValue, ok := knownFlag(args[i])
		if !ok {
			break
		}
		var value string
		if takesValue {
			if i+1 >= len(args) {
				break
			}
			value = args[i+1]
			i += 2
		} else {
			i++
		}
		switch name {
		case "debug":
			f.debug = true
		case "workflow":
			f.workflow = value
		case "branch":
			f.branch = value
		case "merge-branch":
			f.mergeBranch = value
		case "auto":
			f.auto = true
		case "quiet":
			f.quiet = true
		case "print":
			f.print = true
		case "logfile":
			f.logfile = value
		case "version":
			f.version = true
		case "vars":
			f.vars = value
		case "help":
			f.help = true
		}
	}
	return f, args[i:]
}

func runMain(cmd *cobra.Command, args []string) error {
	flags, targets := parseArgs(args)

	if flags.help {
		fmt.Println(cmd.Long)
		return cmd.Usage()
	}
	if flags.version {
		fmt.Printf("strata %s (build: %s)\n", version, commit)
		return nil
	}
	if len(targets) == 0 {
		targets = []string{"=..."}
	}

	opts := workflow.Options{
		Workflow:    flags.workflow,
		Branch:      flags.branch,
		MergeBranch: flags.mergeBranch,
		Auto:        flags.auto,
		Quiet:       flags.quiet,
		Print:       flags.print,
		Logfile:     flags.logfile,
		Vars:        flags.vars,
		Debug:       flags.debug,
	}
	resolvedWorkflow, err := opts.ResolveWorkflowPath()
	if err != nil {
		return err
	}
	opts.Workflow = resolvedWorkflow

	if err := opts.Load(opts.Workflow); err != nil {
		return err
	}

	pt, err := parser.ParseDir(opts.Workflow)
	if err != nil {
		return err
	}

	fs := vfs.New(opts.Workflow)

	cliVars, err := opts.VarsMap()
	if err != nil {
		return err
	}
	envVars := envMap()

	var traceWriter *runner.TraceWriter
	traceDir := filepath.Join(opts.Workflow, ".strata")
	if err := os.MkdirAll(traceDir, 0o755); err == nil {
		tracePath := filepath.Join(traceDir, fmt.Sprintf("run-%s.jsonl", time.Now().UTC().Format("20060102T150405Z")))
		if tw, err := runner.NewTraceWriter(tracePath); err == nil {
			traceWriter = tw
			defer traceWriter.Close()
		}
	}

	var out io.Writer = os.Stdout
	if opts.Logfile != "" {
		path := opts.Logfile
		if !filepath.IsAbs(path) {
			path = filepath.Join(opts.Workflow, path)
		}
		lf, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open logfile %s: %w", path, err)
		}
		defer lf.Close()
		out = io.MultiWriter(os.Stdout, lf)
	}

	if opts.MergeBranch != "" {
		selections, err := selector.Resolve(pt, targets)
		if err != nil {
			return err
		}
		_, err = merge.Run(out, os.Stdin, fs, opts.MergeBranch, pt, selections, opts.Auto)
		return err
	}

	deps := runner.Deps{
		FS:          fs,
		ParseTree:   pt,
		BranchName:  opts.Branch,
		WorkflowDir: opts.Workflow,
		EnvVars:     envVars,
		CLIVars:     cliVars,
		Auto:        opts.Auto,
		Quiet:       opts.Quiet,
		Print:       opts.Print,
		Out:         out,
		In:          os.Stdin,
		Trace:       traceWriter,
	}
	if !opts.Auto && !opts.Print && isatty.IsTerminal(os.Stdin.Fd()) {
		deps.Ask = readlineAsk
	}

	useTUI := !opts.Quiet && !opts.Print && isatty.IsTerminal(os.Stdout.Fd())
	if useTUI {
		selections, err := selector.Resolve(pt, targets)
		if err != nil {
			return err
		}
		predicted, err := predictor.Predict(fs, opts.Branch, pt, selections)
		if err != nil {
			return err
		}
		if len(predicted) == 0 {
			fmt.Fprintln(out, "Nothing to do.")
			return nil
		}
		// The confirm prompt runs on the plain transcript, before the
		// Bubble Tea program claims stdin for its own event loop
		// (SPEC_FULL §4.O is a rendering choice over execution, not
		// over the prior confirmation step).
		if !opts.Auto {
			var ok bool
			if deps.Ask != nil {
				ok, err = runner.ConfirmWith(out, fs, opts.Branch, pt, predicted, deps.Ask)
			} else {
				ok, err = runner.Confirm(out, os.Stdin, fs, opts.Branch, pt, predicted)
			}
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
		deps.Auto = true
		progress := tui.NewProgress(pt, predicted)
		deps.Progress = progress
		ran, runErr := runner.Run(deps, targets)
		progress.Finish(ran)
		fmt.Println(tui.Report(progress.Summary()))
		return runErr
	}

	_, err = runner.Run(deps, targets)
	return err
}

// readlineAsk prompts via chzyer/readline, which requires a real
// terminal on stdin (see DESIGN.md); callers only install it after
// checking isatty.IsTerminal(os.Stdin.Fd()).
func readlineAsk(prompt string) (bool, error) {
	rl, err := readline.New(prompt)
	if err != nil {
		return false, fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()
	line, err := rl.Readline()
	if err != nil {
		return false, nil
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}

func envMap() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			out[parts[0]] = parts[1]
		}
	}
	return out
}
