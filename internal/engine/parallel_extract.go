package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/innkeep/innkeep/internal/extract"
	"github.com/innkeep/innkeep/pkg/schema"
)

// ParallelExtract runs date extraction and query analysis concurrently and
// joins both before writing any state. The two branches write disjoint fields
// (Dates vs SearchParams), so the join is the only synchronization needed.
type ParallelExtract struct {
	extractor extract.Extractor
	timeout   time.Duration
	logger    *slog.Logger
}

// NewParallelExtract creates the extraction node. Each branch runs under the
// given timeout.
func NewParallelExtract(ex extract.Extractor, timeout time.Duration, logger *slog.Logger) *ParallelExtract {
	return &ParallelExtract{extractor: ex, timeout: timeout, logger: logger}
}

func (n *ParallelExtract) Name() string { return schema.NodeParallelExtract }

func (n *ParallelExtract) Run(ctx context.Context, st *schema.BookingState) schema.Outcome {
	branchCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	var (
		wg     sync.WaitGroup
		dates  *schema.StayDates
		params *schema.SearchParameters
		dErr   error
		qErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		dates, dErr = n.extractor.ExtractDates(branchCtx, st.RawQuery)
	}()
	go func() {
		defer wg.Done()
		params, qErr = n.extractor.AnalyzeQuery(branchCtx, st.RawQuery)
	}()
	wg.Wait()

	if qErr != nil {
		st.AppendError(n.Name(), schema.CodeOf(qErr), qErr.Error(), map[string]any{"query": st.RawQuery})
		return schema.OutcomeError
	}
	if dErr != nil {
		if ctx.Err() != nil {
			st.AppendError(n.Name(), schema.CodeOf(dErr), dErr.Error(), nil)
			return schema.OutcomeError
		}
		// The date branch died on its own timeout while the run is still
		// alive; substitute the default window and proceed degraded.
		dates = extract.DefaultStay(time.Now())
		n.logger.WarnContext(ctx, "date extraction did not finish; using default stay window",
			"error", dErr)
	}

	st.Dates = dates
	st.Params = params

	if dates.Defaulted {
		// The run continues on a default stay window; record why.
		st.AppendError(n.Name(), schema.ErrCodeExtractionFallback,
			"no usable dates in query; using default stay window",
			map[string]any{"check_in": dates.CheckIn, "check_out": dates.CheckOut})
		n.logger.InfoContext(ctx, "date extraction fell back to defaults",
			"check_in", dates.CheckIn, "check_out", dates.CheckOut)
		return schema.OutcomeFallback
	}
	return schema.OutcomeContinue
}
