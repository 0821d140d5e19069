// Package extract provides the language-understanding capability the
// pipeline consumes. The pipeline only sees the Extractor interface; the
// bundled implementation is a deterministic heuristic engine so runs are
// reproducible without any model inference.
package extract

import (
	"context"
	"time"

	"github.com/innkeep/innkeep/pkg/schema"
)

// Extractor turns a raw user query into structured booking intent.
// ExtractDates never fails outright: when the query has no parseable
// dates it returns the documented default window with Defaulted set.
// AnalyzeQuery fails with VALIDATION_ERROR when no location can be
// resolved, since a search without a location is meaningless.
type Extractor interface {
	ExtractDates(ctx context.Context, query string) (*schema.StayDates, error)
	AnalyzeQuery(ctx context.Context, query string) (*schema.SearchParameters, error)
}

// Heuristic is the bundled deterministic Extractor.
type Heuristic struct {
	now func() time.Time
}

// NewHeuristic creates the default extraction engine.
func NewHeuristic() *Heuristic {
	return &Heuristic{now: time.Now}
}

// NewHeuristicAt pins the engine's clock, for reproducible tests.
func NewHeuristicAt(now func() time.Time) *Heuristic {
	return &Heuristic{now: now}
}

var _ Extractor = (*Heuristic)(nil)
