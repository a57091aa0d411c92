/*
Package script evaluates the small expressions embedded in a pit: action guards ("when"),
start/complete hooks and padding length calculations.

The engine only depends on the Evaluator interface. ExprEvaluator is the default
implementation, backed by expr-lang.
*/
package script

import (
	"context"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator evaluates an expression with the given named variables bound.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, vars map[string]any) (any, error)
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, expression string, vars map[string]any) (any, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, expression string, vars map[string]any) (any, error) {
	return f(ctx, expression, vars)
}

// ExprEvaluator compiles expressions with expr-lang and caches the compiled programs.
// It is safe for concurrent use by independent runs.
type ExprEvaluator struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

// NewExprEvaluator creates an evaluator with an empty program cache.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{
		programs: make(map[string]*vm.Program),
	}
}

// Evaluate compiles (once) and runs the expression against vars.
func (e *ExprEvaluator) Evaluate(ctx context.Context, expression string, vars map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	program, err := e.compile(expression)
	if err != nil {
		return nil, err
	}

	env := make(map[string]any, len(vars))
	for k, v := range vars {
		env[k] = v
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %q: %w", expression, err)
	}
	return out, nil
}

func (e *ExprEvaluator) compile(expression string) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if program, ok := e.programs[expression]; ok {
		return program, nil
	}

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("failed to compile %q: %w", expression, err)
	}
	e.programs[expression] = program
	return program, nil
}

// IsTrue reports whether v is the boolean true. Any other value, including
// truthy non-booleans, is false.
func IsTrue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
