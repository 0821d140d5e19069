package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/innkeep/innkeep/internal/expressions"
	"github.com/innkeep/innkeep/internal/validation"
	"github.com/innkeep/innkeep/pkg/schema"
)

// priceRelaxFactor widens the budget on the search node's fallback pass.
const priceRelaxFactor = 1.5

// Searcher queries the booking provider for candidate hotels. When the first
// pass matches nothing it loosens the search parameters once and asks the
// router for a re-entry; a second empty pass is a NO_RESULTS_FOUND failure.
type Searcher struct {
	tools     ToolCaller
	provider  string
	validator *validation.PayloadValidator
	jq        *expressions.GoJQEngine
	timeout   time.Duration
	logger    *slog.Logger
}

// NewSearcher creates the search node.
func NewSearcher(tools ToolCaller, provider string, validator *validation.PayloadValidator, jq *expressions.GoJQEngine, timeout time.Duration, logger *slog.Logger) *Searcher {
	return &Searcher{
		tools:     tools,
		provider:  provider,
		validator: validator,
		jq:        jq,
		timeout:   timeout,
		logger:    logger,
	}
}

func (n *Searcher) Name() string { return schema.NodeSearch }

func (n *Searcher) Run(ctx context.Context, st *schema.BookingState) schema.Outcome {
	if st.Params == nil || st.Params.Location == "" {
		st.AppendError(n.Name(), schema.ErrCodeValidation, "search requires extracted parameters with a location", nil)
		return schema.OutcomeError
	}

	args := searchArgs(st.Params)
	raw, err := n.tools.Invoke(ctx, n.provider, "search_hotels", args, n.timeout)
	if err != nil {
		recordToolFailure(st, n.Name(), "search_hotels", err, nil)
		return schema.OutcomeError
	}
	if err := n.validator.ValidateSearchResult(raw); err != nil {
		st.AppendError(n.Name(), schema.CodeOf(err), err.Error(), nil)
		return schema.OutcomeError
	}

	var hotels []schema.HotelRecord
	if err := projectPayload(ctx, n.jq, raw, ".hotels", &hotels); err != nil {
		st.AppendError(n.Name(), schema.CodeOf(err), err.Error(), nil)
		return schema.OutcomeError
	}
	st.Hotels = hotels

	if len(hotels) > 0 {
		n.logger.InfoContext(ctx, "search matched hotels", "count", len(hotels))
		return schema.OutcomeContinue
	}

	if !st.Params.Relaxed {
		relaxed := relaxParams(st.Params)
		n.logger.InfoContext(ctx, "no hotels matched; relaxing search parameters", "relaxed", relaxed)
		return schema.OutcomeFallback
	}

	st.AppendError(n.Name(), schema.ErrCodeNoResults,
		"no hotels matched the search, even after relaxing the criteria",
		map[string]any{"location": st.Params.Location})
	return schema.OutcomeError
}

func searchArgs(p *schema.SearchParameters) map[string]any {
	args := map[string]any{"location": p.Location}
	if p.MinRating > 0 {
		args["min_rating"] = p.MinRating
	}
	if p.MaxPrice > 0 {
		args["max_price"] = p.MaxPrice
	}
	if len(p.Amenities) > 0 {
		args["amenities"] = strings.Join(p.Amenities, ",")
	}
	return args
}

// relaxParams loosens the first constraint that is actually set: amenities,
// then budget, then rating. Returns a description of what changed.
func relaxParams(p *schema.SearchParameters) string {
	p.Relaxed = true
	switch {
	case len(p.Amenities) > 0:
		p.Amenities = nil
		return "dropped amenities"
	case p.MaxPrice > 0:
		p.MaxPrice = p.MaxPrice * priceRelaxFactor
		return "raised max price"
	case p.MinRating > 0:
		p.MinRating = 0
		return "dropped min rating"
	default:
		return "nothing to relax"
	}
}
