package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/innkeep/pkg/schema"
)

func TestAnalyzeQuery_BeachHotelInSF(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	p, err := h.AnalyzeQuery(context.Background(), "find me a beach hotel in sf under $200")
	require.NoError(t, err)
	assert.Equal(t, "San Francisco, CA", p.Location)
	assert.Equal(t, 200.0, p.MaxPrice)
	assert.Contains(t, p.Amenities, "Beach Access")
	assert.Equal(t, 2, p.Guests)
	assert.Equal(t, 3.0, p.MinRating)
}

func TestAnalyzeQuery_LocationAliases(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	cases := map[string]string{
		"hotel in nyc":            "New York, NY",
		"hotel in new york":       "New York, NY",
		"stay in san francisco":   "San Francisco, CA",
		"somewhere in miami":      "Miami, FL",
		"room in la for tonight":  "Los Angeles, CA",
		"chicago business trip":   "Chicago, IL",
		"weekend in boston":       "Boston, MA",
		"ski trip hotel denver":   "Denver, CO",
	}
	for query, want := range cases {
		p, err := h.AnalyzeQuery(context.Background(), query)
		require.NoError(t, err, query)
		assert.Equal(t, want, p.Location, query)
	}
}

func TestAnalyzeQuery_ShortAliasNeedsWordBoundary(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	// "la" inside "playa" must not resolve to Los Angeles.
	_, err := h.AnalyzeQuery(context.Background(), "hotel near the playa")
	require.Error(t, err)
}

func TestAnalyzeQuery_NoLocation(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	_, err := h.AnalyzeQuery(context.Background(), "find me somewhere nice to stay")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestAnalyzeQuery_BudgetForms(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	cases := map[string]float64{
		"hotel in miami under $250":     250,
		"hotel in miami under 250":      250,
		"hotel in miami, budget of 180": 180,
		"hotel in miami $95 a night":    95,
		"hotel in miami up to $120":     120,
	}
	for query, want := range cases {
		p, err := h.AnalyzeQuery(context.Background(), query)
		require.NoError(t, err, query)
		assert.Equal(t, want, p.MaxPrice, query)
	}
}

func TestAnalyzeQuery_DayNumbersAreNotBudgets(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	p, err := h.AnalyzeQuery(context.Background(), "hotel in miami july 25")
	require.NoError(t, err)
	assert.Zero(t, p.MaxPrice)
}

func TestAnalyzeQuery_BudgetKeywordsNeedWordBoundary(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	// "max" inside another word must not turn the following number into a
	// budget.
	p, err := h.AnalyzeQuery(context.Background(), "hotel in miami near the climax 5 lounge")
	require.NoError(t, err)
	assert.Zero(t, p.MaxPrice)
}

func TestAnalyzeQuery_Rating(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	p, err := h.AnalyzeQuery(context.Background(), "4 star hotel in boston")
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.MinRating)

	p, err = h.AnalyzeQuery(context.Background(), "highly rated hotel in boston")
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.MinRating)
}

func TestAnalyzeQuery_Amenities(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	p, err := h.AnalyzeQuery(context.Background(), "hotel with spa and gym near the ocean in miami")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Beach Access", "Spa", "Gym"}, p.Amenities)
}

func TestAnalyzeQuery_Guests(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	p, err := h.AnalyzeQuery(context.Background(), "hotel in denver for 4 people")
	require.NoError(t, err)
	assert.Equal(t, 4, p.Guests)
}

func TestAnalyzeQuery_Deterministic(t *testing.T) {
	h := NewHeuristicAt(fixedNow)
	query := "beach hotel in sf under $200 for 3 guests"

	first, err := h.AnalyzeQuery(context.Background(), query)
	require.NoError(t, err)
	second, err := h.AnalyzeQuery(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
