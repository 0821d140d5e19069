package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Pinned clock: Friday 2025-07-18.
func fixedNow() time.Time {
	return time.Date(2025, 7, 18, 12, 0, 0, 0, time.UTC)
}

func TestExtractDates_ExplicitMonthDayYear(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	d, err := h.ExtractDates(context.Background(), "book hotel for 2 days from july 25 2025")
	require.NoError(t, err)
	assert.Equal(t, "2025-07-25", d.CheckIn)
	assert.Equal(t, "2025-07-27", d.CheckOut)
	assert.Equal(t, 2, d.Nights)
	assert.False(t, d.Defaulted)
}

func TestExtractDates_ExplicitRange(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	d, err := h.ExtractDates(context.Background(), "july 25 to 26th 2025")
	require.NoError(t, err)
	assert.Equal(t, "2025-07-25", d.CheckIn)
	assert.Equal(t, "2025-07-26", d.CheckOut)
	assert.Equal(t, 1, d.Nights)
}

func TestExtractDates_DefaultTwoNights(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	d, err := h.ExtractDates(context.Background(), "hotel in miami on august 3")
	require.NoError(t, err)
	assert.Equal(t, "2025-08-03", d.CheckIn)
	assert.Equal(t, "2025-08-05", d.CheckOut)
	assert.Equal(t, 2, d.Nights)
}

func TestExtractDates_PastDateRollsForward(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	// March 5 already passed relative to the pinned clock; without an
	// explicit year it resolves to next year.
	d, err := h.ExtractDates(context.Background(), "hotel for march 5")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05", d.CheckIn)
}

func TestExtractDates_ExplicitYearIsKept(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	d, err := h.ExtractDates(context.Background(), "hotel for march 5 2025")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-05", d.CheckIn)
}

func TestExtractDates_DurationInNights(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	d, err := h.ExtractDates(context.Background(), "december 20 for 5 nights")
	require.NoError(t, err)
	assert.Equal(t, "2025-12-20", d.CheckIn)
	assert.Equal(t, "2025-12-25", d.CheckOut)
	assert.Equal(t, 5, d.Nights)
}

func TestExtractDates_FallbackDefault(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	d, err := h.ExtractDates(context.Background(), "find me a beach hotel in sf under $200")
	require.NoError(t, err)
	assert.True(t, d.Defaulted)
	assert.Equal(t, "2025-07-25", d.CheckIn, "one week out from the pinned clock")
	assert.Equal(t, "2025-07-27", d.CheckOut)
	assert.Equal(t, 2, d.Nights)
}

func TestExtractDates_InvalidCalendarDateFallsBack(t *testing.T) {
	h := NewHeuristicAt(fixedNow)

	d, err := h.ExtractDates(context.Background(), "hotel for february 31")
	require.NoError(t, err)
	assert.True(t, d.Defaulted)
}

func TestExtractDates_Deterministic(t *testing.T) {
	h := NewHeuristicAt(fixedNow)
	query := "book hotel for 2 days from july 25 2025"

	first, err := h.ExtractDates(context.Background(), query)
	require.NoError(t, err)
	second, err := h.ExtractDates(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtractDates_CancelledContext(t *testing.T) {
	h := NewHeuristicAt(fixedNow)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.ExtractDates(ctx, "july 25 2025")
	require.Error(t, err)
}
