package protocol

import (
	"context"

	"github.com/expr-lang/expr"

	"github.com/strata-build/strata/pkg/workflow"
)

// EvaluatorProtocol compiles and runs each command line as an
// expr-lang/expr expression against vars_env, for pure data-transform
// steps that don't warrant a subprocess.
type EvaluatorProtocol struct{}

func NewEvaluatorProtocol() *EvaluatorProtocol { return &EvaluatorProtocol{} }

func (e *EvaluatorProtocol) Name() string       { return "evaluator" }
func (e *EvaluatorProtocol) CmdsRequired() bool { return true }

func (e *EvaluatorProtocol) Run(ctx context.Context, step workflow.MaterializedStep) error {
	env := varsEnvMap(step)
	for _, line := range step.Cmds {
		program, err := expr.Compile(line, expr.Env(env))
		if err != nil {
			return workflow.NewProtocolFailure(step.DirName, "compile: "+err.Error(), 1)
		}
		result, err := expr.Run(program, env)
		if err != nil {
			return workflow.NewProtocolFailure(step.DirName, "eval: "+err.Error(), 1)
		}
		if b, ok := result.(bool); ok && !b {
			return workflow.NewProtocolFailure(step.DirName, "expression evaluated false: "+line, 1)
		}
	}
	return nil
}

func varsEnvMap(step workflow.MaterializedStep) map[string]interface{} {
	out := make(map[string]interface{})
	if step.VarsEnv == nil {
		return out
	}
	for pair := step.VarsEnv.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}
