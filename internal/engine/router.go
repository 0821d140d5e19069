package engine

import (
	"context"
	"log/slog"

	"github.com/innkeep/innkeep/internal/expressions"
	"github.com/innkeep/innkeep/pkg/schema"
)

// Terminal is the router's end-of-pipeline sentinel.
const Terminal = ""

// Rule routes one node outcome. When is an expression over
// {outcome, node, state, retries} evaluated by the configured engine; the
// first matching rule for the current node wins. Next is a node name or
// Terminal.
type Rule struct {
	Node string
	When string
	Next string
}

// DefaultRules is the pipeline's routing table. Order within a node is
// significant. Guard expressions stick to the syntax subset shared by the
// expr and CEL engines: ==/&&/||, string and int literals, and map indexing.
// The scope normalizer guarantees that retries has an entry for every node
// and that state always carries selected_hotel_id and has_guest.
func DefaultRules() []Rule {
	return []Rule{
		{Node: schema.NodeParallelExtract, When: `outcome == "continue" || outcome == "fallback"`, Next: schema.NodeSearch},

		{Node: schema.NodeSearch, When: `outcome == "continue"`, Next: schema.NodeAvailabilityCheck},
		{Node: schema.NodeSearch, When: `outcome == "fallback" && retries["search"] < 1`, Next: schema.NodeSearch},

		// A booking turn only starts when the caller has already picked a
		// hotel and supplied guest details; otherwise the run completes with
		// the availability shortlist.
		{Node: schema.NodeAvailabilityCheck, When: `outcome == "continue" && state["selected_hotel_id"] != "" && state["has_guest"]`, Next: schema.NodeBook},
		{Node: schema.NodeAvailabilityCheck, When: `outcome == "continue"`, Next: Terminal},

		{Node: schema.NodeBook, When: `outcome == "done"`, Next: Terminal},
	}
}

// Router picks the next node from the rule table. Rules are evaluated in
// table order, first match wins; two hard defaults close every node: error
// outcomes go to the error handler, and anything still unmatched terminates.
type Router struct {
	rules  []Rule
	engine expressions.Engine
	logger *slog.Logger
}

// NewRouter creates a router over the given table and guard engine.
func NewRouter(rules []Rule, engine expressions.Engine, logger *slog.Logger) *Router {
	return &Router{rules: rules, engine: engine, logger: logger}
}

// Route returns the next node for the outcome, or Terminal.
func (r *Router) Route(ctx context.Context, node string, outcome schema.Outcome, st *schema.BookingState) (string, error) {
	scope, err := buildScope(node, outcome, st)
	if err != nil {
		return Terminal, err
	}

	for _, rule := range r.rules {
		if rule.Node != node {
			continue
		}
		matched, err := r.matches(ctx, rule.When, scope)
		if err != nil {
			return Terminal, err
		}
		if matched {
			return rule.Next, nil
		}
	}

	// Hard defaults.
	if outcome == schema.OutcomeError && node != schema.NodeErrorHandler {
		return schema.NodeErrorHandler, nil
	}
	if outcome == schema.OutcomeDone || node == schema.NodeErrorHandler {
		return Terminal, nil
	}

	// An unmatched non-terminal outcome is a table bug, not a run failure.
	r.logger.ErrorContext(ctx, "no routing rule matched",
		"node", node,
		"outcome", string(outcome),
	)
	return Terminal, schema.NewErrorf(schema.ErrCodeInternal,
		"no routing rule for node %q outcome %q", node, string(outcome))
}

func (r *Router) matches(ctx context.Context, when string, scope map[string]any) (bool, error) {
	val, err := r.engine.Evaluate(ctx, when, scope)
	if err != nil {
		return false, schema.NewErrorf(schema.ErrCodeInternal,
			"evaluate routing guard %q: %s", when, err.Error()).WithCause(err)
	}
	b, ok := val.(bool)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeInternal,
			"routing guard %q returned %T, want bool", when, val)
	}
	return b, nil
}

// buildScope renders the guard evaluation scope. The state snapshot is
// normalized so guards never hit a missing key: selected_hotel_id and
// has_guest always exist, and retries has an entry for every node.
func buildScope(node string, outcome schema.Outcome, st *schema.BookingState) (map[string]any, error) {
	snapshot, err := st.Snapshot()
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeInternal, "snapshot state: %s", err.Error()).WithCause(err)
	}
	if _, ok := snapshot["selected_hotel_id"]; !ok {
		snapshot["selected_hotel_id"] = ""
	}
	_, hasGuest := snapshot["guest"]
	snapshot["has_guest"] = hasGuest

	retries := map[string]any{
		schema.NodeParallelExtract:   0,
		schema.NodeSearch:            0,
		schema.NodeAvailabilityCheck: 0,
		schema.NodeBook:              0,
		schema.NodeErrorHandler:      0,
	}
	for k, v := range st.Retries {
		retries[k] = v
	}

	return map[string]any{
		"outcome": string(outcome),
		"node":    node,
		"state":   snapshot,
		"retries": retries,
	}, nil
}
