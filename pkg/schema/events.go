package schema

// Event type constants for the run audit log.
const (
	EventRunStarted   = "run_started"
	EventRunCompleted = "run_completed"
	EventRunFailed    = "run_failed"
	EventRunCancelled = "run_cancelled"
	EventRunResumed   = "run_resumed"
	EventRunTimedOut  = "run_timed_out"

	EventNodeStarted   = "node_started"
	EventNodeCompleted = "node_completed"
	EventNodeFallback  = "node_fallback"
	EventNodeFailed    = "node_failed"

	EventRouteTaken          = "route_taken"
	EventErrorRecorded       = "error_recorded"
	EventErrorHandlerInvoked = "error_handler_invoked"
	EventBookingConfirmed    = "booking_confirmed"
)

// RunStatus represents the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusActive    RunStatus = "active"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// NodeStatus represents the lifecycle state of a node within a run.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusFailed    NodeStatus = "failed"
	NodeStatusFallback  NodeStatus = "fallback"
)
