package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/innkeep/innkeep/pkg/schema"
)

// ErrorHandler is the terminal failure node. It turns the run's error log
// into a human-readable summary naming the failed stage; it never mutates
// anything else.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates the error handler node.
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

func (n *ErrorHandler) Name() string { return schema.NodeErrorHandler }

func (n *ErrorHandler) Run(ctx context.Context, st *schema.BookingState) schema.Outcome {
	first := firstActionable(st.Errors)
	if first == nil {
		st.Summary = "the booking pipeline stopped without a recorded error"
		return schema.OutcomeError
	}

	st.Summary = summarize(first)
	n.logger.WarnContext(ctx, "run failed",
		"failed_node", first.Node,
		"code", first.Code,
		"summary", st.Summary,
	)
	return schema.OutcomeError
}

// firstActionable returns the first error that stopped the run, skipping
// fallback notices that the pipeline already recovered from. Deadline expiry
// cancels whatever call was in flight, so an OVERALL_TIMEOUT entry wins over
// the cancelled call it caused.
func firstActionable(errs []schema.ErrorEvent) *schema.ErrorEvent {
	for i := range errs {
		if errs[i].Code == schema.ErrCodeOverallTimeout {
			return &errs[i]
		}
	}
	for i := range errs {
		if errs[i].Code == schema.ErrCodeExtractionFallback {
			continue
		}
		return &errs[i]
	}
	return nil
}

func summarize(e *schema.ErrorEvent) string {
	switch e.Code {
	case schema.ErrCodeValidation:
		if e.Node == schema.NodeParallelExtract {
			return "could not determine a search location from the request; please say where you want to stay"
		}
		return fmt.Sprintf("the %s step was given invalid input: %s", stageName(e.Node), e.Message)

	case schema.ErrCodeNoResults:
		if e.Node == schema.NodeAvailabilityCheck {
			return "hotels matched the search but none had rooms available for the requested dates"
		}
		return "no hotels matched the search, even after relaxing the criteria"

	case schema.ErrCodeToolTimeout:
		return fmt.Sprintf("the %s step timed out waiting for the booking provider", stageName(e.Node))

	case schema.ErrCodeToolError:
		return fmt.Sprintf("the booking provider rejected the %s request: %s", stageName(e.Node), e.Message)

	case schema.ErrCodeOverallTimeout:
		return "the run exceeded its overall deadline before a booking could complete"

	case schema.ErrCodeCancelled:
		return "the run was cancelled"

	default:
		return fmt.Sprintf("the booking pipeline failed at the %s step: %s", stageName(e.Node), e.Message)
	}
}

func stageName(node string) string {
	switch node {
	case schema.NodeParallelExtract:
		return "query understanding"
	case schema.NodeSearch:
		return "hotel search"
	case schema.NodeAvailabilityCheck:
		return "availability check"
	case schema.NodeBook:
		return "booking"
	default:
		return node
	}
}
