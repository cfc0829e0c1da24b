// Package filter evaluates CEL expressions against list output rows.
//
// The CLI exposes it through --filter: each row is bound to the variable
// `item` and rows for which the expression returns true are kept, e.g.
//
//	pollbase forms list --filter 'item.status == "published"'
package filter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
)

// maxExpressionLength is the maximum allowed length for filter expressions.
const maxExpressionLength = 1024

// maxCostBudget is the CEL runtime cost limit to prevent cost-exhaustion.
const maxCostBudget = 100_000

// maxNestingDepth is the maximum allowed parenthesis/bracket nesting depth.
const maxNestingDepth = 50

// evalTimeout is the maximum time allowed for evaluating one row.
const evalTimeout = 5 * time.Second

// interruptCheckFreq is how often (in comprehension iterations) context
// cancellation is checked.
const interruptCheckFreq = 100

// Filter holds a compiled expression ready to test rows.
type Filter struct {
	prg cel.Program
}

// Compile parses, validates, and compiles a filter expression.
func Compile(expression string) (*Filter, error) {
	if expression == "" {
		return nil, errors.New("filter expression is empty")
	}
	if len(expression) > maxExpressionLength {
		return nil, fmt.Errorf("filter expression too long: %d characters (max %d)",
			len(expression), maxExpressionLength)
	}
	if err := validateNesting(expression); err != nil {
		return nil, err
	}

	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("create filter environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", issues.Err())
	}

	prg, err := env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("compile filter expression: %w", err)
	}
	return &Filter{prg: prg}, nil
}

// validateNesting checks that the expression does not exceed the maximum
// allowed nesting depth for parentheses, brackets, and braces.
func validateNesting(expr string) error {
	var depth, maxDepth int
	for _, ch := range expr {
		switch ch {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			depth--
		}
	}
	if maxDepth > maxNestingDepth {
		return fmt.Errorf("filter expression nesting too deep: %d levels (max %d)",
			maxDepth, maxNestingDepth)
	}
	return nil
}

// Match evaluates the filter against one row. The row is bound to `item`
// and is typically a map[string]any decoded from a list response.
func (f *Filter) Match(item any) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	result, _, err := f.prg.ContextEval(ctx, map[string]any{"item": item})
	if err != nil {
		return false, fmt.Errorf("evaluate filter: %w", err)
	}

	boolResult, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter expression did not return a boolean, got %T", result.Value())
	}
	return boolResult, nil
}

// Apply returns the rows for which the filter matches. The first evaluation
// error aborts filtering; a half-filtered listing would be misleading.
func (f *Filter) Apply(items []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		ok, err := f.Match(item)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}
