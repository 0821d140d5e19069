package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/innkeep/innkeep/internal/expressions"
	"github.com/innkeep/innkeep/internal/extract"
	"github.com/innkeep/innkeep/internal/logging"
	"github.com/innkeep/innkeep/internal/store"
	"github.com/innkeep/innkeep/internal/validation"
	"github.com/innkeep/innkeep/pkg/schema"
)

// Defaults for the orchestrator configuration.
const (
	DefaultExtractionTimeout = 8 * time.Second
	DefaultToolTimeout       = 10 * time.Second
	DefaultOverallDeadline   = 60 * time.Second
	DefaultProviderID        = "hotel_booking"

	// graceTimeout bounds the forced error-handler pass after the overall
	// deadline has already expired.
	graceTimeout = 5 * time.Second

	// maxNodeVisits caps the routing loop so a broken rule table cannot
	// spin a run forever.
	maxNodeVisits = 16
)

// Config holds the orchestrator's timing and provider settings.
type Config struct {
	ExtractionTimeout time.Duration
	ToolTimeout       time.Duration
	OverallDeadline   time.Duration
	ProviderID        string
}

func (c Config) withDefaults() Config {
	if c.ExtractionTimeout <= 0 {
		c.ExtractionTimeout = DefaultExtractionTimeout
	}
	if c.ToolTimeout <= 0 {
		c.ToolTimeout = DefaultToolTimeout
	}
	if c.OverallDeadline <= 0 {
		c.OverallDeadline = DefaultOverallDeadline
	}
	if c.ProviderID == "" {
		c.ProviderID = DefaultProviderID
	}
	return c
}

// Deps holds the orchestrator's collaborators.
type Deps struct {
	Tools     ToolCaller
	Extractor extract.Extractor
	Validator *validation.PayloadValidator
	Appender  EventAppender
	Runs      store.Store        // optional; nil disables run persistence
	Engine    expressions.Engine // guard engine; nil means expr
	Rules     []Rule             // nil means DefaultRules
	Logger    *slog.Logger
}

// RunResult is returned by Run and ResumeBooking with the run outcome.
type RunResult struct {
	RunID       string              `json:"run_id"`
	Status      schema.RunStatus    `json:"status"`
	State       *schema.BookingState `json:"state"`
	Error       *schema.EngineError `json:"error,omitempty"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt time.Time           `json:"completed_at"`
}

// Orchestrator drives a run through the node graph: node, outcome, route,
// repeat until terminal. It owns the overall deadline, the run FSM and the
// audit event stream.
type Orchestrator struct {
	nodes    map[string]Node
	router   *Router
	fsm      *RunFSM
	appender EventAppender
	runs     store.Store
	logger   *slog.Logger
	config   Config

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// NewOrchestrator wires the pipeline. Tools, Extractor, Validator and
// Appender are required.
func NewOrchestrator(deps Deps, cfg Config) (*Orchestrator, error) {
	if deps.Tools == nil {
		return nil, schema.NewError(schema.ErrCodeConfig, "orchestrator requires a tool caller")
	}
	if deps.Extractor == nil {
		return nil, schema.NewError(schema.ErrCodeConfig, "orchestrator requires an extractor")
	}
	if deps.Validator == nil {
		return nil, schema.NewError(schema.ErrCodeConfig, "orchestrator requires a payload validator")
	}
	if deps.Appender == nil {
		return nil, schema.NewError(schema.ErrCodeConfig, "orchestrator requires an event appender")
	}

	cfg = cfg.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	engine := deps.Engine
	if engine == nil {
		engine = expressions.NewExprEngine()
	}
	rules := deps.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	specs := make([]validation.RoutingRule, len(rules))
	for i, r := range rules {
		specs[i] = validation.RoutingRule{Node: r.Node, When: r.When, Next: r.Next}
	}
	if err := validation.ValidateRoutingRules(specs); err != nil {
		return nil, err
	}
	jq := expressions.NewGoJQEngine()

	nodes := map[string]Node{
		schema.NodeParallelExtract:   NewParallelExtract(deps.Extractor, cfg.ExtractionTimeout, logger),
		schema.NodeSearch:            NewSearcher(deps.Tools, cfg.ProviderID, deps.Validator, jq, cfg.ToolTimeout, logger),
		schema.NodeAvailabilityCheck: NewAvailabilityChecker(deps.Tools, cfg.ProviderID, deps.Validator, cfg.ToolTimeout, logger),
		schema.NodeBook:              NewBookingExecutor(deps.Tools, cfg.ProviderID, deps.Validator, cfg.ToolTimeout, logger),
		schema.NodeErrorHandler:      NewErrorHandler(logger),
	}

	return &Orchestrator{
		nodes:    nodes,
		router:   NewRouter(rules, engine, logger),
		fsm:      NewRunFSM(deps.Appender),
		appender: deps.Appender,
		runs:     deps.Runs,
		logger:   logger,
		config:   cfg,
	}, nil
}

// Run executes one full pipeline pass for a raw query. It always returns a
// result; the error is non-nil only for infrastructure failures that prevent
// the run from starting.
func (o *Orchestrator) Run(ctx context.Context, rawQuery string) (*RunResult, error) {
	runID := uuid.New().String()
	st := schema.NewBookingState(runID, rawQuery)
	ctx = logging.WithRunID(ctx, runID)

	if o.runs != nil {
		if err := o.runs.CreateRun(ctx, &store.Run{
			ID:     runID,
			Query:  rawQuery,
			Status: schema.RunStatusPending,
		}); err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeStore, "create run: %s", err.Error()).WithCause(err)
		}
	}

	startedAt := time.Now().UTC()
	o.transition(ctx, runID, schema.RunStatusPending, schema.RunStatusActive)
	o.persistStatus(ctx, runID, schema.RunStatusActive, &startedAt, nil)

	return o.execute(ctx, st, schema.NodeParallelExtract, startedAt, schema.RunStatusActive)
}

// ResumeBooking performs the follow-up booking turn: the caller picks one of
// the previously offered hotels and supplies guest details, and the run
// re-enters the pipeline at the booking executor.
func (o *Orchestrator) ResumeBooking(ctx context.Context, prior *schema.BookingState, hotelID string, guest *schema.GuestInfo) (*RunResult, error) {
	if prior == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "resume requires the prior run state")
	}
	rec := prior.AvailabilityFor(hotelID)
	if rec == nil || rec.Status != schema.AvailabilityAvailable {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"hotel %q has no confirmed availability in the prior run", hotelID)
	}
	if guest == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "resume requires guest info")
	}

	ctx = logging.WithRunID(ctx, prior.RunID)
	prior.SelectedHotelID = hotelID
	prior.Guest = guest

	o.emit(ctx, prior.RunID, "", schema.EventRunResumed, map[string]any{"hotel_id": hotelID})
	o.transition(ctx, prior.RunID, schema.RunStatusCompleted, schema.RunStatusActive)

	startedAt := time.Now().UTC()
	o.persistStatus(ctx, prior.RunID, schema.RunStatusActive, nil, nil)
	return o.execute(ctx, prior, schema.NodeBook, startedAt, schema.RunStatusActive)
}

// Cancel aborts an in-flight run.
func (o *Orchestrator) Cancel(runID string) error {
	o.mu.Lock()
	cancel, ok := o.running[runID]
	o.mu.Unlock()
	if !ok {
		return schema.NewErrorf(schema.ErrCodeValidation, "run %q is not active", runID)
	}
	cancel()
	return nil
}

// execute drives the node loop from start until terminal and finalizes the
// run record.
func (o *Orchestrator) execute(ctx context.Context, st *schema.BookingState, start string, startedAt time.Time, current schema.RunStatus) (*RunResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, o.config.OverallDeadline)
	defer cancel()

	o.mu.Lock()
	if o.running == nil {
		o.running = make(map[string]context.CancelFunc)
	}
	o.running[st.RunID] = cancel
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.running, st.RunID)
		o.mu.Unlock()
	}()

	status := o.drive(runCtx, st, start)

	completedAt := time.Now().UTC()
	o.transition(ctx, st.RunID, current, status)

	result := &RunResult{
		RunID:       st.RunID,
		Status:      status,
		State:       st,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
	}
	if status == schema.RunStatusFailed {
		if first := firstActionable(st.Errors); first != nil {
			result.Error = schema.NewError(first.Code, st.Summary).
				WithNode(first.Node).
				WithDetails(first.Details)
		}
	}

	o.finalize(ctx, result, completedAt)
	return result, nil
}

// drive is the routing loop. It returns the terminal run status.
func (o *Orchestrator) drive(ctx context.Context, st *schema.BookingState, start string) schema.RunStatus {
	current := start
	visits := 0
	failed := false

	for current != Terminal {
		if err := ctx.Err(); err != nil {
			return o.expire(ctx, st, err)
		}
		visits++
		if visits > maxNodeVisits {
			st.AppendError(current, schema.ErrCodeInternal, "routing loop exceeded the visit cap", nil)
			o.runErrorHandler(ctx, st)
			return schema.RunStatusFailed
		}

		node, ok := o.nodes[current]
		if !ok {
			st.AppendError(current, schema.ErrCodeInternal, "routing table references an unknown node", nil)
			o.runErrorHandler(ctx, st)
			return schema.RunStatusFailed
		}
		nodeCtx := logging.WithNode(ctx, current)
		if current == schema.NodeErrorHandler {
			failed = true
			o.emit(nodeCtx, st.RunID, current, schema.EventErrorHandlerInvoked, nil)
		}
		o.emit(nodeCtx, st.RunID, current, schema.EventNodeStarted, nil)

		nodeStart := time.Now()
		outcome := runNode(nodeCtx, node, st, o.logger)
		st.RecordTiming(current, nodeStart, outcome)

		o.emit(nodeCtx, st.RunID, current, nodeEventType(outcome), map[string]any{
			"outcome":     string(outcome),
			"duration_ms": time.Since(nodeStart).Milliseconds(),
		})
		if outcome == schema.OutcomeError {
			if last := len(st.Errors) - 1; last >= 0 {
				o.emit(nodeCtx, st.RunID, current, schema.EventErrorRecorded, map[string]any{
					"code":    st.Errors[last].Code,
					"message": st.Errors[last].Message,
				})
			}
		}

		// A deadline that fired mid-node surfaces as an error outcome with a
		// cancellation code; re-check before routing so the run ends with
		// OVERALL_TIMEOUT rather than a generic tool failure.
		if err := ctx.Err(); err != nil && current != schema.NodeErrorHandler {
			return o.expire(ctx, st, err)
		}

		next, err := o.router.Route(nodeCtx, current, outcome, st)
		if err != nil {
			st.AppendError(current, schema.CodeOf(err), err.Error(), nil)
			o.runErrorHandler(ctx, st)
			return schema.RunStatusFailed
		}
		o.emit(nodeCtx, st.RunID, current, schema.EventRouteTaken, map[string]any{
			"outcome": string(outcome),
			"next":    next,
		})

		if outcome == schema.OutcomeFallback && next == current {
			st.BumpRetry(current)
		}
		if outcome == schema.OutcomeDone && st.Confirmation != nil {
			o.emit(nodeCtx, st.RunID, current, schema.EventBookingConfirmed, map[string]any{
				"booking_id": st.Confirmation.BookingID,
				"hotel_id":   st.Confirmation.HotelID,
			})
		}

		current = next
	}

	if failed {
		return schema.RunStatusFailed
	}
	return schema.RunStatusCompleted
}

// expire handles overall-deadline expiry and external cancellation. Deadline
// expiry still gets one error-handler pass under a short grace context so the
// run ends with a summary instead of a bare timeout.
func (o *Orchestrator) expire(ctx context.Context, st *schema.BookingState, cause error) schema.RunStatus {
	if errors.Is(cause, context.Canceled) {
		st.AppendError("", schema.ErrCodeCancelled, "run cancelled", nil)
		return schema.RunStatusCancelled
	}

	st.AppendError("", schema.ErrCodeOverallTimeout,
		"run exceeded the overall deadline", map[string]any{"deadline": o.config.OverallDeadline.String()})
	o.emit(ctx, st.RunID, "", schema.EventRunTimedOut, map[string]any{
		"deadline": o.config.OverallDeadline.String(),
	})
	o.runErrorHandler(ctx, st)
	return schema.RunStatusFailed
}

// runErrorHandler forces one error-handler pass, detached from the (possibly
// already expired) run context.
func (o *Orchestrator) runErrorHandler(ctx context.Context, st *schema.BookingState) {
	grace, cancel := context.WithTimeout(context.WithoutCancel(ctx), graceTimeout)
	defer cancel()

	node := o.nodes[schema.NodeErrorHandler]
	nodeCtx := logging.WithNode(grace, schema.NodeErrorHandler)
	o.emit(nodeCtx, st.RunID, schema.NodeErrorHandler, schema.EventErrorHandlerInvoked, nil)

	nodeStart := time.Now()
	outcome := runNode(nodeCtx, node, st, o.logger)
	st.RecordTiming(schema.NodeErrorHandler, nodeStart, outcome)
}

func nodeEventType(outcome schema.Outcome) string {
	switch outcome {
	case schema.OutcomeFallback:
		return schema.EventNodeFallback
	case schema.OutcomeError:
		return schema.EventNodeFailed
	default:
		return schema.EventNodeCompleted
	}
}

// transition moves the run FSM, logging rather than failing the run when the
// audit append is rejected.
func (o *Orchestrator) transition(ctx context.Context, runID string, from, to schema.RunStatus) {
	if err := o.fsm.Transition(ctx, runID, from, to); err != nil {
		o.logger.WarnContext(ctx, "run transition not recorded",
			"from", string(from), "to", string(to), "error", err)
	}
}

// emit appends one audit event, logging on failure.
func (o *Orchestrator) emit(ctx context.Context, runID, node, eventType string, payload map[string]any) {
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	if err := o.appender.AppendEvent(ctx, &store.Event{
		RunID:   runID,
		Node:    node,
		Type:    eventType,
		Payload: raw,
	}); err != nil {
		o.logger.WarnContext(ctx, "audit event not recorded", "event", eventType, "error", err)
	}
}

// persistStatus updates the run record when persistence is configured.
func (o *Orchestrator) persistStatus(ctx context.Context, runID string, status schema.RunStatus, startedAt, completedAt *time.Time) {
	if o.runs == nil {
		return
	}
	if err := o.runs.UpdateRun(ctx, runID, store.RunUpdate{
		Status:      &status,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
	}); err != nil {
		o.logger.WarnContext(ctx, "run status not persisted", "status", string(status), "error", err)
	}
}

// finalize writes the terminal run record.
func (o *Orchestrator) finalize(ctx context.Context, result *RunResult, completedAt time.Time) {
	if o.runs == nil {
		return
	}
	finalState, err := json.Marshal(result.State)
	if err != nil {
		o.logger.WarnContext(ctx, "final state not serializable", "error", err)
		finalState = nil
	}
	update := store.RunUpdate{
		Status:      &result.Status,
		FinalState:  finalState,
		CompletedAt: &completedAt,
	}
	if result.Error != nil {
		if raw, err := json.Marshal(result.Error); err == nil {
			update.Error = raw
		}
	}
	if err := o.runs.UpdateRun(ctx, result.RunID, update); err != nil {
		o.logger.WarnContext(ctx, "run result not persisted", "error", err)
	}
}
