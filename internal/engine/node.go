// Package engine drives the hotel-booking pipeline: a small directed graph of
// typed nodes over a shared BookingState, with conditional routing between
// them and an orchestrator that owns deadlines, audit events and the run
// lifecycle.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/innkeep/innkeep/internal/expressions"
	"github.com/innkeep/innkeep/internal/gateway"
	"github.com/innkeep/innkeep/pkg/schema"
)

// Node is one pipeline stage. Run mutates the shared state (each node owns a
// disjoint field set) and returns an outcome tag for the router. Failures are
// recorded in the state's error log, never returned.
type Node interface {
	Name() string
	Run(ctx context.Context, st *schema.BookingState) schema.Outcome
}

// ToolCaller is the gateway surface the nodes need. Satisfied by
// *gateway.Gateway and test fakes.
type ToolCaller interface {
	Invoke(ctx context.Context, providerID, op string, args map[string]any, timeout time.Duration) (json.RawMessage, error)
	InvokeBatch(ctx context.Context, providerID, op string, argsList []map[string]any, timeout time.Duration) []gateway.Result
}

// runNode executes a node with panic recovery. A panicking node is converted
// to an INTERNAL_ERROR event and an error outcome.
func runNode(ctx context.Context, node Node, st *schema.BookingState, logger *slog.Logger) (outcome schema.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "node panicked",
				"node", node.Name(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			st.AppendError(node.Name(), schema.ErrCodeInternal,
				fmt.Sprintf("node panicked: %v", r), nil)
			outcome = schema.OutcomeError
		}
	}()
	return node.Run(ctx, st)
}

// projectPayload runs a jq expression over a raw JSON tool payload and decodes
// the projection into target.
func projectPayload(ctx context.Context, jq *expressions.GoJQEngine, raw json.RawMessage, expr string, target any) error {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "decode tool payload: %s", err.Error()).WithCause(err)
	}
	projected, err := jq.EvaluateNormalized(ctx, expr, doc)
	if err != nil {
		return err
	}
	buf, err := json.Marshal(projected)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeInternal, "re-encode projection: %s", err.Error()).WithCause(err)
	}
	if err := json.Unmarshal(buf, target); err != nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "decode projection: %s", err.Error()).WithCause(err)
	}
	return nil
}

// recordToolFailure appends the failed tool call to the state's error log,
// preserving the gateway's error code.
func recordToolFailure(st *schema.BookingState, node, op string, err error, details map[string]any) {
	code := schema.CodeOf(err)
	if details == nil {
		details = map[string]any{}
	}
	details["op"] = op
	st.AppendError(node, code, err.Error(), details)
}
