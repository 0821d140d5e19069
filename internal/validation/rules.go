package validation

import (
	"fmt"

	"github.com/innkeep/innkeep/pkg/schema"
)

// RoutingRule mirrors one router table entry. Declared here so the table can
// be checked without importing the engine package.
type RoutingRule struct {
	Node string
	When string
	Next string
}

var knownNodes = map[string]bool{
	schema.NodeParallelExtract:   true,
	schema.NodeSearch:            true,
	schema.NodeAvailabilityCheck: true,
	schema.NodeBook:              true,
	schema.NodeErrorHandler:      true,
}

// ValidateRoutingRules checks a routing table before the orchestrator
// accepts it: every rule must name a known node, route to a known node or
// the terminal sentinel, carry a guard, and not exactly shadow an earlier
// rule for the same node.
func ValidateRoutingRules(rules []RoutingRule) error {
	if len(rules) == 0 {
		return schema.NewError(schema.ErrCodeConfig, "routing table is empty")
	}

	seen := make(map[string]int, len(rules))
	for i, r := range rules {
		where := fmt.Sprintf("rule %d", i)
		if !knownNodes[r.Node] {
			return schema.NewErrorf(schema.ErrCodeConfig,
				"%s routes from unknown node %q", where, r.Node).
				WithDetails(map[string]any{"rule": i, "node": r.Node})
		}
		if r.Next != "" && !knownNodes[r.Next] {
			return schema.NewErrorf(schema.ErrCodeConfig,
				"%s routes to unknown node %q", where, r.Next).
				WithDetails(map[string]any{"rule": i, "next": r.Next})
		}
		if r.When == "" {
			return schema.NewErrorf(schema.ErrCodeConfig,
				"%s has an empty guard", where).
				WithDetails(map[string]any{"rule": i, "node": r.Node})
		}

		key := r.Node + "\x00" + r.When
		if prev, dup := seen[key]; dup {
			return schema.NewErrorf(schema.ErrCodeConfig,
				"%s repeats the guard of rule %d for node %q and can never match", where, prev, r.Node).
				WithDetails(map[string]any{"rule": i, "shadowed_by": prev})
		}
		seen[key] = i
	}
	return nil
}
