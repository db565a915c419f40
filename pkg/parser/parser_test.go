package parser

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestParseDirBuildsStepsAndEdges(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", `
steps:
  - outputs: ["a.csv"]
    cmds: ["echo hi > ${OUTPUT}"]
  - inputs: ["a.csv"]
    outputs: ["b.csv"]
    cmds: ["cp ${INPUT} ${OUTPUT}"]
`)
	pt, err := ParseDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(pt.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(pt.Steps))
	}
	deps := pt.DirectDeps(1)
	if len(deps) != 1 || deps[0] != 0 {
		t.Fatalf("expected step 1 to depend on step 0, got %v", deps)
	}
}

func TestParseDirTokenizesVarRefs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", `
steps:
  - outputs: ["out"]
    vars: {GREETING: hi}
    cmds: ["echo ${GREETING} world"]
`)
	pt, err := ParseDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	line := pt.Steps[0].Cmds[0]
	if len(line) != 3 {
		t.Fatalf("expected 3 fragments, got %d: %+v", len(line), line)
	}
	if line[1].VarRef != "GREETING" {
		t.Fatalf("expected GREETING var ref, got %+v", line[1])
	}
}

func TestParseDirDisambiguatesDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", `
steps:
  - outputs: ["out"]
    cmds: ["x"]
  - outputs: ["out"]
    input_tags: ["distinct"]
    cmds: ["y"]
`)
	pt, err := ParseDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if pt.Steps[0].DirName == pt.Steps[1].DirName {
		t.Fatalf("expected distinct dir names, got %q twice", pt.Steps[0].DirName)
	}
}

func TestParseDirMissingDirectory(t *testing.T) {
	_, err := ParseDir(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
