package gateway

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/innkeep/innkeep/pkg/schema"
)

// IsConnectionFault classifies whether an invocation error indicates a
// broken session rather than a tool-level failure. Connection faults get
// the cached connection invalidated so the next invocation redials;
// tool-level errors keep the connection alive.
func IsConnectionFault(err error) bool {
	if err == nil {
		return false
	}

	// Deadline and cancellation are invocation-scoped, not session-scoped.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	// Tool-reported errors travel as EngineError and leave the session intact.
	var engErr *schema.EngineError
	if errors.As(err, &engErr) {
		return false
	}

	// Network errors mean the session is gone.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// String heuristics for common transport failure patterns.
	msg := strings.ToLower(err.Error())
	faultPatterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"eof",
		"file already closed",
		"process exited",
		"transport is closed",
		"session terminated",
	}
	for _, p := range faultPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
