package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/innkeep/pkg/schema"
)

func newTestEventLog(t *testing.T) (*EventLog, *LibSQLStore) {
	t.Helper()
	s := newTestStore(t)
	return NewEventLog(s), s
}

func TestEventLog_AppendEvent_MonotonicSequence(t *testing.T) {
	el, s := newTestEventLog(t)
	ctx := context.Background()
	run := seedRun(t, s)

	for i := 0; i < 5; i++ {
		e := &Event{
			RunID: run.ID,
			Node:  schema.NodeSearch,
			Type:  schema.EventNodeStarted,
		}
		require.NoError(t, el.AppendEvent(ctx, e))
		assert.Equal(t, int64(i+1), e.Sequence, "sequence should be monotonic")
	}
}

func TestEventLog_ConcurrentAppends(t *testing.T) {
	el, s := newTestEventLog(t)
	ctx := context.Background()
	run := seedRun(t, s)

	const writers = 10
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_ = el.AppendEvent(ctx, &Event{
				RunID: run.ID,
				Type:  schema.EventRouteTaken,
			})
		}()
	}
	wg.Wait()

	events, err := el.GetEvents(ctx, run.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, writers)
	seen := make(map[int64]bool)
	for _, e := range events {
		assert.False(t, seen[e.Sequence], "duplicate sequence %d", e.Sequence)
		seen[e.Sequence] = true
	}
}

func TestEventLog_ReplayEvents_FullLifecycle(t *testing.T) {
	el, s := newTestEventLog(t)
	ctx := context.Background()
	run := seedRun(t, s)

	now := time.Now().UTC()

	require.NoError(t, el.AppendEvent(ctx, &Event{
		RunID: run.ID, Node: schema.NodeSearch, Type: schema.EventNodeStarted, Timestamp: now,
	}))
	require.NoError(t, el.AppendEvent(ctx, &Event{
		RunID: run.ID, Node: schema.NodeSearch, Type: schema.EventNodeCompleted,
		Payload:   json.RawMessage(`{"outcome":"continue"}`),
		Timestamp: now.Add(100 * time.Millisecond),
	}))
	require.NoError(t, el.AppendEvent(ctx, &Event{
		RunID: run.ID, Node: schema.NodeBook, Type: schema.EventNodeStarted, Timestamp: now,
	}))
	require.NoError(t, el.AppendEvent(ctx, &Event{
		RunID: run.ID, Node: schema.NodeBook, Type: schema.EventNodeFailed,
		Payload:   json.RawMessage(`{"code":"TOOL_TIMEOUT"}`),
		Timestamp: now.Add(200 * time.Millisecond),
	}))

	states, err := el.ReplayEvents(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, states, 2)

	assert.Equal(t, schema.NodeStatusCompleted, states[schema.NodeSearch].Status)
	require.NotNil(t, states[schema.NodeSearch].StartedAt)
	require.NotNil(t, states[schema.NodeSearch].CompletedAt)
	assert.Equal(t, int64(100), states[schema.NodeSearch].DurationMs)
	assert.Equal(t, 1, states[schema.NodeSearch].Visits)

	assert.Equal(t, schema.NodeStatusFailed, states[schema.NodeBook].Status)
}

func TestEventLog_ReplayEvents_CountsRevisits(t *testing.T) {
	el, s := newTestEventLog(t)
	ctx := context.Background()
	run := seedRun(t, s)

	// The search node runs twice when the router sends the flow back for a
	// relaxed retry.
	for i := 0; i < 2; i++ {
		require.NoError(t, el.AppendEvent(ctx, &Event{
			RunID: run.ID, Node: schema.NodeSearch, Type: schema.EventNodeStarted,
		}))
		require.NoError(t, el.AppendEvent(ctx, &Event{
			RunID: run.ID, Node: schema.NodeSearch, Type: schema.EventNodeCompleted,
		}))
	}

	states, err := el.ReplayEvents(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, states[schema.NodeSearch].Visits)
}

func TestEventLog_ReplayEvents_Empty(t *testing.T) {
	el, s := newTestEventLog(t)
	run := seedRun(t, s)

	states, err := el.ReplayEvents(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Empty(t, states)
}
