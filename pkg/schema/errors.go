package schema

import (
	"errors"
	"fmt"
)

// Error codes for structured error reporting.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeExtractionFallback = "EXTRACTION_FALLBACK"
	ErrCodeToolTimeout        = "TOOL_TIMEOUT"
	ErrCodeToolError          = "TOOL_ERROR"
	ErrCodeNoResults          = "NO_RESULTS_FOUND"
	ErrCodeOverallTimeout     = "OVERALL_TIMEOUT"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeCancelled          = "CANCELLED"
	ErrCodeConfig             = "CONFIG_ERROR"
	ErrCodeStore              = "STORE_ERROR"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// EngineError is the structured error type for all pipeline operations.
type EngineError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Node    string         `json:"node,omitempty"`
	Cause   error          `json:"-"`
}

func (e *EngineError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("[%s] node %s: %s", e.Code, e.Node, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// NewError creates a new EngineError.
func NewError(code, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

// NewErrorf creates a new EngineError with a formatted message.
func NewErrorf(code, format string, args ...any) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithNode attaches the originating node name to the error.
func (e *EngineError) WithNode(node string) *EngineError {
	e.Node = node
	return e
}

// WithCause attaches an underlying cause.
func (e *EngineError) WithCause(err error) *EngineError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *EngineError) WithDetails(details map[string]any) *EngineError {
	e.Details = details
	return e
}

// CodeOf extracts the error code from err, or ErrCodeInternal when err is
// not an EngineError.
func CodeOf(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ErrCodeInternal
}
