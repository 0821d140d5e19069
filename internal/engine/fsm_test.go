package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/innkeep/internal/store"
	"github.com/innkeep/innkeep/pkg/schema"
)

// mockAppender records appended events for assertions.
type mockAppender struct {
	mu     sync.Mutex
	events []*store.Event
}

func (m *mockAppender) AppendEvent(_ context.Context, event *store.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockAppender) Events() []*store.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]*store.Event, len(m.events))
	copy(cp, m.events)
	return cp
}

func (m *mockAppender) Types() []string {
	events := m.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

// failAppender always returns an error.
type failAppender struct{}

func (f *failAppender) AppendEvent(_ context.Context, _ *store.Event) error {
	return errors.New("store unavailable")
}

func TestRunFSM_ValidTransitions(t *testing.T) {
	app := &mockAppender{}
	fsm := NewRunFSM(app)
	ctx := context.Background()
	runID := "run-1"

	require.NoError(t, fsm.Transition(ctx, runID, schema.RunStatusPending, schema.RunStatusActive))
	require.NoError(t, fsm.Transition(ctx, runID, schema.RunStatusActive, schema.RunStatusCompleted))
	// completed -> active re-enters the pipeline for the booking turn; the
	// orchestrator announces it with run_resumed, so the FSM stays silent
	// rather than starting the run a second time in the audit stream.
	require.NoError(t, fsm.Transition(ctx, runID, schema.RunStatusCompleted, schema.RunStatusActive))
	require.NoError(t, fsm.Transition(ctx, runID, schema.RunStatusActive, schema.RunStatusFailed))

	types := app.Types()
	assert.Equal(t, []string{
		schema.EventRunStarted,
		schema.EventRunCompleted,
		schema.EventRunFailed,
	}, types)
}

func TestRunFSM_InvalidTransitions(t *testing.T) {
	fsm := NewRunFSM(&mockAppender{})
	ctx := context.Background()

	cases := []struct {
		from, to schema.RunStatus
	}{
		{schema.RunStatusPending, schema.RunStatusCompleted},
		{schema.RunStatusPending, schema.RunStatusFailed},
		{schema.RunStatusActive, schema.RunStatusPending},
		{schema.RunStatusFailed, schema.RunStatusActive},
		{schema.RunStatusCancelled, schema.RunStatusActive},
	}
	for _, tc := range cases {
		err := fsm.Transition(ctx, "run-1", tc.from, tc.to)
		require.Error(t, err, "%s -> %s should be rejected", tc.from, tc.to)
		assert.Equal(t, schema.ErrCodeInvalidTransition, schema.CodeOf(err))
	}
}

func TestRunFSM_Cancellation(t *testing.T) {
	app := &mockAppender{}
	fsm := NewRunFSM(app)
	ctx := context.Background()

	require.NoError(t, fsm.Transition(ctx, "run-1", schema.RunStatusPending, schema.RunStatusCancelled))
	require.NoError(t, fsm.Transition(ctx, "run-2", schema.RunStatusActive, schema.RunStatusCancelled))

	types := app.Types()
	assert.Equal(t, []string{schema.EventRunCancelled, schema.EventRunCancelled}, types)
}

func TestRunFSM_Hooks(t *testing.T) {
	fsm := NewRunFSM(&mockAppender{})
	ctx := context.Background()

	var calls []string
	fsm.OnBefore(schema.RunStatusPending, schema.RunStatusActive, func(from, to string) error {
		calls = append(calls, "before:"+from+"->"+to)
		return nil
	})
	fsm.OnAfter(schema.RunStatusPending, schema.RunStatusActive, func(from, to string) error {
		calls = append(calls, "after:"+from+"->"+to)
		return nil
	})

	require.NoError(t, fsm.Transition(ctx, "run-1", schema.RunStatusPending, schema.RunStatusActive))
	assert.Equal(t, []string{"before:pending->active", "after:pending->active"}, calls)
}

func TestRunFSM_BeforeHookBlocksTransition(t *testing.T) {
	app := &mockAppender{}
	fsm := NewRunFSM(app)

	fsm.OnBefore(schema.RunStatusPending, schema.RunStatusActive, func(string, string) error {
		return errors.New("not yet")
	})

	err := fsm.Transition(context.Background(), "run-1", schema.RunStatusPending, schema.RunStatusActive)
	require.Error(t, err)
	assert.Empty(t, app.Events())
}

func TestRunFSM_AppenderFailureSurfaces(t *testing.T) {
	fsm := NewRunFSM(&failAppender{})
	err := fsm.Transition(context.Background(), "run-1", schema.RunStatusPending, schema.RunStatusActive)
	require.Error(t, err)
}
