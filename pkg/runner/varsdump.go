package runner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/strata-build/strata/pkg/workflow"
)

// persistVarsDumpDir is the persisted-state directory name from
// spec.md §6: "<workflow-dir>/.drake/<step-dirname>/vars-<start-time>".
// Kept exactly as the external contract names it — this is an on-disk
// layout consumers may already depend on, not a branding choice.
const persistVarsDumpDir = ".drake"

// PersistVarsDump writes vars_env as human-readable "k=v\n" lines to
// <workflowDir>/.drake/<stepDirName>/vars-<startTime>.
func PersistVarsDump(workflowDir, stepDirName, startTime string, vars *workflow.OrderedVars) error {
	dir := filepath.Join(workflowDir, persistVarsDumpDir, stepDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create vars dump dir: %w", err)
	}
	path := filepath.Join(dir, "vars-"+startTime)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vars dump file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if vars != nil {
		for pair := vars.Oldest(); pair != nil; pair = pair.Next() {
			fmt.Fprintf(w, "%s=%s\n", pair.Key, pair.Value)
		}
	}
	return w.Flush()
}
