package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/innkeep/innkeep/internal/logging"
	"github.com/innkeep/innkeep/pkg/schema"
)

// Dialer opens a fresh transport session for one provider.
type Dialer func(ctx context.Context) (Transport, error)

// connection is one cached provider session.
type connection struct {
	providerID string
	transport  Transport
	createdAt  time.Time
	lastUsed   time.Time
}

// Result is one indexed outcome of a batch invocation. Exactly one of
// Data or Err is set.
type Result struct {
	Index int
	Data  json.RawMessage
	Err   error
}

// Gateway mediates every tool interaction of the pipeline. It caches one
// connection per provider (created on first use, reused across runs,
// invalidated on connection faults, torn down on Close), applies
// per-invocation timeouts, and fans batch invocations out over a bounded
// pool.
type Gateway struct {
	mu      sync.Mutex
	dialers map[string]Dialer
	conns   map[string]*connection

	pool           *BatchPool
	defaultTimeout time.Duration
	logger         *slog.Logger
	closed         bool
}

// Options configures a Gateway.
type Options struct {
	// DefaultTimeout bounds invocations whose caller passes no timeout.
	DefaultTimeout time.Duration
	// BatchConcurrency caps in-flight probes across all InvokeBatch calls.
	BatchConcurrency int
	Logger           *slog.Logger
}

// New creates a Gateway with no providers registered.
func New(opts Options) *Gateway {
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 10 * time.Second
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 3
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		dialers:        make(map[string]Dialer),
		conns:          make(map[string]*connection),
		pool:           NewBatchPool(opts.BatchConcurrency),
		defaultTimeout: opts.DefaultTimeout,
		logger:         logger,
	}
}

// RegisterProvider makes a provider invokable. Registering an existing id
// replaces the dialer and drops any cached connection.
func (g *Gateway) RegisterProvider(providerID string, dial Dialer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dialers[providerID] = dial
	if conn, ok := g.conns[providerID]; ok {
		delete(g.conns, providerID)
		go func() { _ = conn.transport.Close() }()
	}
}

// acquire returns the cached connection for the provider, dialing a new
// session on cache miss.
func (g *Gateway) acquire(ctx context.Context, providerID string) (*connection, error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, schema.NewError(schema.ErrCodeToolError, "gateway is closed")
	}
	if conn, ok := g.conns[providerID]; ok {
		conn.lastUsed = time.Now()
		g.mu.Unlock()
		return conn, nil
	}
	dial, ok := g.dialers[providerID]
	g.mu.Unlock()
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeToolError, "unknown tool provider %q", providerID)
	}

	transport, err := dial(ctx)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeToolError,
			"dial provider %q: %v", providerID, err).WithCause(err)
	}

	conn := &connection{
		providerID: providerID,
		transport:  transport,
		createdAt:  time.Now(),
		lastUsed:   time.Now(),
	}

	g.mu.Lock()
	if existing, ok := g.conns[providerID]; ok {
		// Lost a dial race; keep the existing session.
		g.mu.Unlock()
		_ = transport.Close()
		return existing, nil
	}
	g.conns[providerID] = conn
	g.mu.Unlock()

	logging.LogWith(ctx, g.logger).Info("provider connection established",
		slog.String("provider_id", providerID))
	return conn, nil
}

// Invalidate drops the cached connection for the provider so the next
// invocation redials.
func (g *Gateway) Invalidate(providerID string) {
	g.mu.Lock()
	conn, ok := g.conns[providerID]
	if ok {
		delete(g.conns, providerID)
	}
	g.mu.Unlock()
	if ok {
		_ = conn.transport.Close()
		g.logger.Warn("provider connection invalidated", slog.String("provider_id", providerID))
	}
}

// Invoke calls one tool operation with the given timeout (the gateway
// default when timeout <= 0). A timeout abandons the in-flight call and
// returns TOOL_TIMEOUT; tool-level failures return TOOL_ERROR; connection
// faults additionally invalidate the cached session.
func (g *Gateway) Invoke(ctx context.Context, providerID, op string, args map[string]any, timeout time.Duration) (json.RawMessage, error) {
	conn, err := g.acquire(ctx, providerID)
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = g.defaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type callResult struct {
		data json.RawMessage
		err  error
	}
	resCh := make(chan callResult, 1)

	started := time.Now()
	go func() {
		data, callErr := conn.transport.CallTool(callCtx, op, args)
		resCh <- callResult{data: data, err: callErr}
	}()

	log := logging.LogWith(ctx, g.logger).With(
		slog.String("provider_id", providerID),
		slog.String("op", op))

	select {
	case <-callCtx.Done():
		if ctx.Err() != nil {
			// Caller cancellation, not the per-call watchdog.
			return nil, schema.NewErrorf(schema.ErrCodeCancelled,
				"invoke %s cancelled", op).WithCause(ctx.Err())
		}
		log.Warn("tool invocation timed out",
			slog.Duration("timeout", timeout))
		return nil, schema.NewErrorf(schema.ErrCodeToolTimeout,
			"%s exceeded %s", op, timeout).
			WithDetails(map[string]any{"provider_id": providerID, "timeout": timeout.String()})
	case res := <-resCh:
		if res.err != nil {
			if IsConnectionFault(res.err) {
				g.Invalidate(providerID)
			}
			if _, ok := res.err.(*schema.EngineError); ok {
				return nil, res.err
			}
			return nil, schema.NewErrorf(schema.ErrCodeToolError,
				"invoke %s: %v", op, res.err).WithCause(res.err)
		}
		log.Debug("tool invocation completed",
			slog.Duration("elapsed", time.Since(started)))
		return res.data, nil
	}
}

// InvokeBatch invokes the same operation once per argument set, bounded by
// the pool's concurrency, each call under its own timeout. The returned
// slice is indexed like argsList; partial failure is normal and reported
// per index, never by aborting the batch.
func (g *Gateway) InvokeBatch(ctx context.Context, providerID, op string, argsList []map[string]any, timeout time.Duration) []Result {
	results := make([]Result, len(argsList))
	var wg sync.WaitGroup

	for i, args := range argsList {
		i, args := i, args
		wg.Add(1)
		err := g.pool.Submit(ctx, func(ctx context.Context) error {
			defer wg.Done()
			data, err := g.Invoke(ctx, providerID, op, args, timeout)
			results[i] = Result{Index: i, Data: data, Err: err}
			return err
		})
		if err != nil {
			wg.Done()
			results[i] = Result{Index: i, Err: schema.NewErrorf(schema.ErrCodeToolError,
				"submit %s[%d]: %v", op, i, err).WithCause(err)}
		}
	}

	wg.Wait()
	return results
}

// SweepIdle closes cached connections unused for longer than maxIdle.
// Returns the number of connections closed.
func (g *Gateway) SweepIdle(maxIdle time.Duration) int {
	g.mu.Lock()
	var stale []*connection
	cutoff := time.Now().Add(-maxIdle)
	for id, conn := range g.conns {
		if conn.lastUsed.Before(cutoff) {
			stale = append(stale, conn)
			delete(g.conns, id)
		}
	}
	g.mu.Unlock()

	for _, conn := range stale {
		_ = conn.transport.Close()
		g.logger.Info("idle provider connection closed",
			slog.String("provider_id", conn.providerID))
	}
	return len(stale)
}

// Providers returns the ids with a live cached connection.
func (g *Gateway) Providers() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.conns))
	for id := range g.conns {
		ids = append(ids, id)
	}
	return ids
}

// Close tears down every cached connection and stops the batch pool. The
// gateway rejects invocations afterwards.
func (g *Gateway) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	conns := make([]*connection, 0, len(g.conns))
	for _, conn := range g.conns {
		conns = append(conns, conn)
	}
	g.conns = make(map[string]*connection)
	g.mu.Unlock()

	g.pool.Shutdown()
	var firstErr error
	for _, conn := range conns {
		if err := conn.transport.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
