package expressions

import "context"

// Engine evaluates expressions against pipeline data.
// Three implementations: Expr and CEL (routing guards), GoJQ (tool payload
// projections).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}
