package protocol

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/strata-build/strata/pkg/workflow"
)

// ContainerProtocol joins the de-spaced command lines with "&&" and
// runs them inside `docker run --rm` against the workflow directory.
// No Docker SDK appears anywhere in the example pack, so this stays on
// os/exec (see DESIGN.md).
type ContainerProtocol struct {
	Image string // falls back to "alpine:3" when unset
}

func NewContainerProtocol() *ContainerProtocol { return &ContainerProtocol{} }

func (c *ContainerProtocol) Name() string       { return "container" }
func (c *ContainerProtocol) CmdsRequired() bool { return true }

func (c *ContainerProtocol) Run(ctx context.Context, step workflow.MaterializedStep) error {
	image := c.Image
	if image == "" {
		image = "alpine:3"
	}
	if step.VarsEnv != nil {
		if v, ok := step.VarsEnv.Get("image"); ok && v != "" {
			image = v
		}
	}

	script := strings.Join(step.Cmds, " && ")
	args := []string{
		"run", "--rm",
		"-v", step.WorkflowDir + ":/workflow",
		"-w", "/workflow",
		image, "sh", "-c", script,
	}
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = os.Stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := stderr.String()
		if detail == "" {
			detail = err.Error()
		}
		return workflow.NewProtocolFailure(step.DirName, detail, exitCodeOf(err))
	}
	return nil
}
