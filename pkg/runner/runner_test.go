package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/strata-build/strata/pkg/protocol"
	"github.com/strata-build/strata/pkg/vfs"
	"github.com/strata-build/strata/pkg/workflow"
)

type fakeFS struct {
	exists map[string]bool
	mtime  map[string]int64
}

func (f *fakeFS) DataIn(path string) bool { return f.exists[path] }
func (f *fakeFS) NewestIn(path string) (vfs.FileInfo, bool) {
	if t, ok := f.mtime[path]; ok {
		return vfs.FileInfo{Path: path, ModTimeMs: t}, true
	}
	return vfs.FileInfo{}, false
}
func (f *fakeFS) OldestIn(path string) (vfs.FileInfo, bool) { return f.NewestIn(path) }
func (f *fakeFS) produce(path string)                       { f.exists[path] = true; f.mtime[path] = 1 }

type recordingProtocol struct {
	name string
	fs   *fakeFS
	out  []string
}

func (p *recordingProtocol) Name() string       { return p.name }
func (p *recordingProtocol) CmdsRequired() bool { return true }
func (p *recordingProtocol) Run(_ context.Context, step workflow.MaterializedStep) error {
	p.out = append(p.out, step.DirName)
	for _, o := range step.Outputs {
		p.fs.produce(o)
	}
	return nil
}

func TestRunNothingToDo(t *testing.T) {
	steps := []workflow.Step{
		{Inputs: []string{"a"}, Outputs: []string{"b"}, Opts: workflow.Opts{Timecheck: true}},
	}
	pt, _ := workflow.NewParseTree(steps, nil)
	fs := &fakeFS{exists: map[string]bool{"a": true, "b": true}, mtime: map[string]int64{"a": 1, "b": 2}}
	var out bytes.Buffer
	ran, err := Run(Deps{FS: fs, ParseTree: pt, Out: &out, Auto: true}, []string{"=..."})
	if err != nil {
		t.Fatal(err)
	}
	if ran != 0 {
		t.Fatalf("expected 0 steps run, got %d", ran)
	}
	if !strings.Contains(out.String(), "Nothing to do.") {
		t.Fatalf("expected Nothing to do message, got %q", out.String())
	}
}

func TestRunPrintMode(t *testing.T) {
	steps := []workflow.Step{
		{Inputs: []string{"a"}, Outputs: []string{"b"}, Opts: workflow.Opts{Timecheck: true}},
	}
	pt, _ := workflow.NewParseTree(steps, nil)
	fs := &fakeFS{exists: map[string]bool{"a": true, "b": true}, mtime: map[string]int64{"a": 200, "b": 100}}
	var out bytes.Buffer
	ran, err := Run(Deps{FS: fs, ParseTree: pt, Out: &out, Print: true}, []string{"=..."})
	if err != nil {
		t.Fatal(err)
	}
	if ran != 0 {
		t.Fatalf("print mode must not execute, got ran=%d", ran)
	}
	got := out.String()
	if !strings.HasPrefix(got, "S\n") {
		t.Fatalf("expected S header, got %q", got)
	}
	if !strings.Contains(got, "I\ta\n") || !strings.Contains(got, "O\tb\n") {
		t.Fatalf("expected I/O lines, got %q", got)
	}
}

func TestRunAutoExecutesAndDumpsVars(t *testing.T) {
	workflowDir := t.TempDir()
	steps := []workflow.Step{
		{
			DirName: "build-b",
			Inputs:  []string{"a"},
			Outputs: []string{"b"},
			Cmds:    []workflow.CmdLine{{{Literal: "noop"}}},
			Opts:    workflow.Opts{Timecheck: true, Protocol: "test-record"},
		},
	}
	pt, _ := workflow.NewParseTree(steps, nil)
	fs := &fakeFS{exists: map[string]bool{"a": true}, mtime: map[string]int64{"a": 1}}

	rec := &recordingProtocol{name: "test-record", fs: fs}
	protocol.Register(rec)

	var out bytes.Buffer
	ran, err := Run(Deps{FS: fs, ParseTree: pt, WorkflowDir: workflowDir, Out: &out, Auto: true}, []string{"=..."})
	if err != nil {
		t.Fatal(err)
	}
	if ran != 1 {
		t.Fatalf("expected 1 step run, got %d", ran)
	}
	if len(rec.out) != 1 || rec.out[0] != "build-b" {
		t.Fatalf("expected protocol invoked once for build-b, got %v", rec.out)
	}
	if !fs.exists["b"] {
		t.Fatal("expected output b to be produced")
	}
	if !strings.Contains(out.String(), "Done (1 steps run).") {
		t.Fatalf("expected Done summary, got %q", out.String())
	}
}
