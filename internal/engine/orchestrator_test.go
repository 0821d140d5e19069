package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/innkeep/internal/extract"
	"github.com/innkeep/innkeep/internal/gateway"
	"github.com/innkeep/innkeep/pkg/schema"
)

func fixedExtractor() extract.Extractor {
	return extract.NewHeuristicAt(func() time.Time {
		return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	})
}

func newTestOrchestrator(t *testing.T, tools ToolCaller, cfg Config) (*Orchestrator, *mockAppender) {
	t.Helper()
	app := &mockAppender{}
	o, err := NewOrchestrator(Deps{
		Tools:     tools,
		Extractor: fixedExtractor(),
		Validator: newValidator(t),
		Appender:  app,
		Logger:    testLogger(),
	}, cfg)
	require.NoError(t, err)
	return o, app
}

// happyTools scripts a provider where two hotels match and one has rooms.
func happyTools() *fakeTools {
	return &fakeTools{respond: func(op string, args map[string]any) (json.RawMessage, error) {
		switch op {
		case "search_hotels":
			return searchPayload(
				hotelDoc("hotel_8", "Coastal Inn", 150),
				hotelDoc("hotel_9", "Budget Beach Motel", 85),
			), nil
		case "check_availability":
			id := args["hotel_id"].(string)
			if id == "hotel_9" {
				return availabilityPayloadFor(id, false)
			}
			return availabilityPayloadFor(id, true, map[string]any{
				"room_id": "room_8_1", "room_type": "Standard", "capacity": 2, "price_per_night": 150,
			})
		case "book_hotel":
			return bookingPayload("bk-77", args["hotel_id"].(string), args["room_id"].(string), 300), nil
		default:
			return nil, schema.NewErrorf(schema.ErrCodeToolError, "unknown op %s", op)
		}
	}}
}

func TestOrchestrator_SearchTurnEndsWithShortlist(t *testing.T) {
	tools := happyTools()
	o, app := newTestOrchestrator(t, tools, Config{})

	result, err := o.Run(context.Background(), "Find a beach hotel in San Francisco july 20 to 22 under $200")
	require.NoError(t, err)

	assert.Equal(t, schema.RunStatusCompleted, result.Status)
	assert.Nil(t, result.Error)
	require.NotNil(t, result.State)
	assert.Len(t, result.State.Hotels, 2)
	require.Len(t, result.State.Availability, 2)
	assert.Equal(t, schema.AvailabilityAvailable, result.State.Availability[0].Status)
	assert.Nil(t, result.State.Confirmation, "no booking without a selection")
	assert.Empty(t, tools.Calls("book_hotel"))

	types := app.Types()
	assert.Equal(t, schema.EventRunStarted, types[0])
	assert.Contains(t, types, schema.EventNodeStarted)
	assert.Contains(t, types, schema.EventRouteTaken)
	assert.Equal(t, schema.EventRunCompleted, types[len(types)-1])
}

func TestOrchestrator_ResumeBooksSelectedHotel(t *testing.T) {
	tools := happyTools()
	o, app := newTestOrchestrator(t, tools, Config{})

	first, err := o.Run(context.Background(), "beach hotel in sf july 20 to 22")
	require.NoError(t, err)
	require.Equal(t, schema.RunStatusCompleted, first.Status)

	guest := &schema.GuestInfo{Name: "Ana Silva", Email: "ana@example.com"}
	second, err := o.ResumeBooking(context.Background(), first.State, "hotel_8", guest)
	require.NoError(t, err)

	assert.Equal(t, schema.RunStatusCompleted, second.Status)
	require.NotNil(t, second.State.Confirmation)
	assert.Equal(t, "bk-77", second.State.Confirmation.BookingID)
	assert.Equal(t, "hotel_8", second.State.Confirmation.HotelID)
	assert.Len(t, tools.Calls("book_hotel"), 1)

	types := app.Types()
	assert.Contains(t, types, schema.EventRunResumed)
	assert.Contains(t, types, schema.EventBookingConfirmed)
	starts := 0
	for _, typ := range types {
		if typ == schema.EventRunStarted {
			starts++
		}
	}
	assert.Equal(t, 1, starts, "resume must not start the run a second time")
}

func TestOrchestrator_ResumeRejectsUnavailableHotel(t *testing.T) {
	o, _ := newTestOrchestrator(t, happyTools(), Config{})

	first, err := o.Run(context.Background(), "beach hotel in sf july 20 to 22")
	require.NoError(t, err)

	guest := &schema.GuestInfo{Name: "Ana Silva", Email: "ana@example.com"}
	_, err = o.ResumeBooking(context.Background(), first.State, "hotel_9", guest)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestOrchestrator_NoLocationFailsWithoutSearching(t *testing.T) {
	tools := happyTools()
	o, _ := newTestOrchestrator(t, tools, Config{})

	result, err := o.Run(context.Background(), "book me a nice room somewhere")
	require.NoError(t, err)

	assert.Equal(t, schema.RunStatusFailed, result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, schema.ErrCodeValidation, result.Error.Code)
	assert.Equal(t,
		"could not determine a search location from the request; please say where you want to stay",
		result.State.Summary)
	assert.Empty(t, tools.Calls("search_hotels"), "search tool must not run without a location")
}

func TestOrchestrator_SearchFallbackThenNoResults(t *testing.T) {
	tools := &fakeTools{respond: func(op string, args map[string]any) (json.RawMessage, error) {
		if op == "search_hotels" {
			return searchPayload(), nil
		}
		return nil, schema.NewErrorf(schema.ErrCodeToolError, "unexpected op %s", op)
	}}
	o, _ := newTestOrchestrator(t, tools, Config{})

	result, err := o.Run(context.Background(), "5 star spa hotel in denver july 20 to 22 under $50")
	require.NoError(t, err)

	assert.Equal(t, schema.RunStatusFailed, result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, schema.ErrCodeNoResults, result.Error.Code)
	// One original pass plus exactly one relaxed pass.
	assert.Len(t, tools.Calls("search_hotels"), 2)
	assert.True(t, result.State.Params.Relaxed)
	assert.Equal(t, 1, result.State.RetryCount(schema.NodeSearch))
}

func TestOrchestrator_AllProbesTimeOut(t *testing.T) {
	tools := &fakeTools{respond: func(op string, args map[string]any) (json.RawMessage, error) {
		switch op {
		case "search_hotels":
			return searchPayload(
				hotelDoc("hotel_8", "Coastal Inn", 150),
				hotelDoc("hotel_9", "Budget Beach Motel", 85),
			), nil
		case "check_availability":
			return nil, schema.NewError(schema.ErrCodeToolTimeout, "check_availability timed out")
		default:
			return nil, schema.NewErrorf(schema.ErrCodeToolError, "unexpected op %s", op)
		}
	}}
	o, app := newTestOrchestrator(t, tools, Config{})

	result, err := o.Run(context.Background(), "beach hotel in sf july 20 to 22")
	require.NoError(t, err)

	assert.Equal(t, schema.RunStatusFailed, result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, schema.ErrCodeToolTimeout, result.Error.Code)
	require.Len(t, result.State.Availability, 2)
	for _, rec := range result.State.Availability {
		assert.Equal(t, schema.AvailabilityUnknown, rec.Status)
	}

	// Every failed probe leaves an error event in the audit stream.
	errorEvents := 0
	for _, e := range app.Events() {
		if e.Type == schema.EventErrorRecorded {
			errorEvents++
		}
	}
	assert.GreaterOrEqual(t, errorEvents, 1)
	assert.Contains(t, app.Types(), schema.EventErrorHandlerInvoked)
}

// slowTools delays every response until the call context is cancelled.
type slowTools struct {
	inner *fakeTools
	slow  map[string]bool
}

func (s *slowTools) Invoke(ctx context.Context, provider, op string, args map[string]any, timeout time.Duration) (json.RawMessage, error) {
	if s.slow[op] {
		<-ctx.Done()
		return nil, schema.NewError(schema.ErrCodeCancelled, "call abandoned").WithCause(ctx.Err())
	}
	return s.inner.Invoke(ctx, provider, op, args, timeout)
}

func (s *slowTools) InvokeBatch(ctx context.Context, provider, op string, argsList []map[string]any, timeout time.Duration) []gateway.Result {
	return s.inner.InvokeBatch(ctx, provider, op, argsList, timeout)
}

func TestOrchestrator_OverallDeadline(t *testing.T) {
	tools := &slowTools{inner: happyTools(), slow: map[string]bool{"search_hotels": true}}
	o, app := newTestOrchestrator(t, tools, Config{OverallDeadline: 100 * time.Millisecond})

	result, err := o.Run(context.Background(), "beach hotel in sf july 20 to 22")
	require.NoError(t, err)

	assert.Equal(t, schema.RunStatusFailed, result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, schema.ErrCodeOverallTimeout, result.Error.Code)
	assert.Equal(t,
		"the run exceeded its overall deadline before a booking could complete",
		result.State.Summary)
	assert.Contains(t, app.Types(), schema.EventRunTimedOut)
}

func TestOrchestrator_CallerCancellation(t *testing.T) {
	tools := &slowTools{inner: happyTools(), slow: map[string]bool{"search_hotels": true}}
	o, _ := newTestOrchestrator(t, tools, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *RunResult, 1)
	go func() {
		result, err := o.Run(ctx, "beach hotel in sf july 20 to 22")
		require.NoError(t, err)
		done <- result
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case result := <-done:
		assert.Equal(t, schema.RunStatusCancelled, result.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
}

func TestOrchestrator_CancelByRunID(t *testing.T) {
	tools := &slowTools{inner: happyTools(), slow: map[string]bool{"search_hotels": true}}
	o, app := newTestOrchestrator(t, tools, Config{})

	done := make(chan *RunResult, 1)
	go func() {
		result, err := o.Run(context.Background(), "beach hotel in sf july 20 to 22")
		require.NoError(t, err)
		done <- result
	}()

	var runID string
	require.Eventually(t, func() bool {
		for _, e := range app.Events() {
			if e.Type == schema.EventRunStarted {
				runID = e.RunID
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return o.Cancel(runID) == nil
	}, 2*time.Second, 5*time.Millisecond)

	select {
	case result := <-done:
		assert.Equal(t, schema.RunStatusCancelled, result.Status)
		assert.Equal(t, runID, result.RunID)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after Cancel")
	}
}

func TestOrchestrator_RequiresCollaborators(t *testing.T) {
	_, err := NewOrchestrator(Deps{}, Config{})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeConfig, schema.CodeOf(err))
}
