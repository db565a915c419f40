package protocol

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"

	"github.com/strata-build/strata/pkg/workflow"
)

// ShellProtocol runs each de-spaced command line through a shell via
// os/exec, CWD pinned to the workflow directory, env built from
// vars_env. Grounded on pkg/providers/cli.go's RealExecutor.
type ShellProtocol struct{}

// NewShellProtocol returns the default shell protocol.
func NewShellProtocol() *ShellProtocol { return &ShellProtocol{} }

func (s *ShellProtocol) Name() string       { return "shell" }
func (s *ShellProtocol) CmdsRequired() bool { return true }

func (s *ShellProtocol) Run(ctx context.Context, step workflow.MaterializedStep) error {
	env := envSlice(step)
	for _, line := range step.Cmds {
		if err := runLine(ctx, step.WorkflowDir, line, env); err != nil {
			return workflow.NewProtocolFailure(step.DirName, err.Error(), exitCodeOf(err))
		}
	}
	return nil
}

func runLine(ctx context.Context, dir, line string, env []string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", line)
	cmd.Dir = dir
	cmd.Env = env
	var stderr bytes.Buffer
	cmd.Stdout = os.Stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && runtime.GOOS == "windows" && isExecNotFound(err) {
		stderr.Reset()
		cmd = exec.CommandContext(ctx, "cmd.exe", "/C", line)
		cmd.Dir = dir
		cmd.Env = env
		cmd.Stdout = os.Stdout
		cmd.Stderr = &stderr
		err = cmd.Run()
	}
	if err != nil {
		if stderr.Len() > 0 {
			return errors.New(stderr.String())
		}
		return err
	}
	return nil
}

func isExecNotFound(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	return errors.As(err, &execErr)
}

func exitCodeOf(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

func envSlice(step workflow.MaterializedStep) []string {
	env := os.Environ()
	if step.VarsEnv == nil {
		return env
	}
	for pair := step.VarsEnv.Oldest(); pair != nil; pair = pair.Next() {
		env = append(env, pair.Key+"="+pair.Value)
	}
	return env
}
