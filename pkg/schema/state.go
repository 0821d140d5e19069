package schema

import (
	"encoding/json"
	"time"
)

// Node names for the booking pipeline. The orchestrator, router and audit
// log all refer to nodes by these names.
const (
	NodeParallelExtract   = "parallel_extract"
	NodeSearch            = "search"
	NodeAvailabilityCheck = "availability_check"
	NodeBook              = "book"
	NodeErrorHandler      = "error_handler"
)

// Outcome is the routing signal a node returns after mutating state.
type Outcome string

const (
	OutcomeContinue Outcome = "continue"
	OutcomeRetry    Outcome = "retry"
	OutcomeFallback Outcome = "fallback"
	OutcomeError    Outcome = "error"
	OutcomeDone     Outcome = "done"
)

// StayDates is the resolved check-in/check-out window for a query.
type StayDates struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Nights   int    `json:"nights"`
	// Defaulted is true when the dates came from the fallback default
	// rather than the query text.
	Defaulted bool `json:"defaulted,omitempty"`
}

// SearchParameters is the structured search intent derived from the query.
type SearchParameters struct {
	Location  string   `json:"location"`
	MinRating float64  `json:"min_rating,omitempty"`
	MaxPrice  float64  `json:"max_price,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
	Guests    int      `json:"guests"`
	// Relaxed is true after the search node has loosened the parameters
	// for its single fallback pass.
	Relaxed bool `json:"relaxed,omitempty"`
}

// HotelRecord is one candidate hotel returned by the search tool.
type HotelRecord struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	Rating        float64  `json:"rating"`
	PricePerNight float64  `json:"price_per_night"`
	Amenities     []string `json:"amenities,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// Availability status values for a checked hotel.
const (
	AvailabilityAvailable   = "available"
	AvailabilityUnavailable = "unavailable"
	AvailabilityUnknown     = "unknown"
)

// RoomOption is a bookable room inside an availability record.
type RoomOption struct {
	RoomID        string  `json:"room_id"`
	Type          string  `json:"type"`
	PricePerNight float64 `json:"price_per_night"`
	Capacity      int     `json:"capacity"`
}

// AvailabilityRecord is the per-hotel result of the availability check.
// Status is "unknown" when the probe failed or timed out.
type AvailabilityRecord struct {
	HotelID string       `json:"hotel_id"`
	Status  string       `json:"status"`
	Rooms   []RoomOption `json:"rooms,omitempty"`
	Message string       `json:"message,omitempty"`
}

// GuestInfo identifies the guest for a booking.
type GuestInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BookingConfirmation is the terminal payload of a successful booking.
type BookingConfirmation struct {
	BookingID  string  `json:"booking_id"`
	HotelID    string  `json:"hotel_id"`
	HotelName  string  `json:"hotel_name,omitempty"`
	RoomID     string  `json:"room_id"`
	CheckIn    string  `json:"check_in"`
	CheckOut   string  `json:"check_out"`
	TotalPrice float64 `json:"total_price"`
	Status     string  `json:"status"`
}

// ErrorEvent is one append-only entry in the run's error log.
type ErrorEvent struct {
	Node    string         `json:"node"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	At      time.Time      `json:"at"`
	Details map[string]any `json:"details,omitempty"`
}

// NodeTiming records the wall-clock duration of one node pass.
type NodeTiming struct {
	Node       string        `json:"node"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	DurationMS int64         `json:"duration_ms"`
	Outcome    Outcome       `json:"outcome"`
}

// BookingState is the shared mutable state a run threads through the
// pipeline. Each field has exactly one owning node; once written, a field
// is only ever overwritten by its owner.
type BookingState struct {
	RunID    string `json:"run_id"`
	RawQuery string `json:"raw_query"`

	Dates  *StayDates        `json:"dates,omitempty"`
	Params *SearchParameters `json:"params,omitempty"`

	Hotels       []HotelRecord        `json:"hotels,omitempty"`
	Availability []AvailabilityRecord `json:"availability,omitempty"`

	SelectedHotelID string               `json:"selected_hotel_id,omitempty"`
	Guest           *GuestInfo           `json:"guest,omitempty"`
	Confirmation    *BookingConfirmation `json:"confirmation,omitempty"`

	Errors  []ErrorEvent   `json:"errors,omitempty"`
	Retries map[string]int `json:"retries,omitempty"`
	Summary string         `json:"summary,omitempty"`
	Timings []NodeTiming   `json:"timings,omitempty"`
}

// NewBookingState seeds a state for a fresh run.
func NewBookingState(runID, rawQuery string) *BookingState {
	return &BookingState{
		RunID:    runID,
		RawQuery: rawQuery,
		Retries:  make(map[string]int),
	}
}

// AppendError records an error event. The log is append-only; nothing in
// the pipeline removes entries.
func (s *BookingState) AppendError(node, code, message string, details map[string]any) {
	s.Errors = append(s.Errors, ErrorEvent{
		Node:    node,
		Code:    code,
		Message: message,
		At:      time.Now().UTC(),
		Details: details,
	})
}

// RecordTiming appends the wall-clock timing of one node pass.
func (s *BookingState) RecordTiming(node string, startedAt time.Time, outcome Outcome) {
	d := time.Since(startedAt)
	s.Timings = append(s.Timings, NodeTiming{
		Node:       node,
		StartedAt:  startedAt,
		Duration:   d,
		DurationMS: d.Milliseconds(),
		Outcome:    outcome,
	})
}

// RetryCount returns how many fallback re-entries the node has consumed.
func (s *BookingState) RetryCount(node string) int {
	if s.Retries == nil {
		return 0
	}
	return s.Retries[node]
}

// BumpRetry increments the fallback counter for the node.
func (s *BookingState) BumpRetry(node string) {
	if s.Retries == nil {
		s.Retries = make(map[string]int)
	}
	s.Retries[node]++
}

// FirstError returns the first recorded error event, or nil.
func (s *BookingState) FirstError() *ErrorEvent {
	if len(s.Errors) == 0 {
		return nil
	}
	return &s.Errors[0]
}

// AvailableHotels returns the hotel ids with a confirmed-available record.
func (s *BookingState) AvailableHotels() []string {
	var ids []string
	for _, rec := range s.Availability {
		if rec.Status == AvailabilityAvailable {
			ids = append(ids, rec.HotelID)
		}
	}
	return ids
}

// AvailabilityFor returns the availability record for the hotel, or nil.
func (s *BookingState) AvailabilityFor(hotelID string) *AvailabilityRecord {
	for i := range s.Availability {
		if s.Availability[i].HotelID == hotelID {
			return &s.Availability[i]
		}
	}
	return nil
}

// Snapshot renders the state as a plain map for guard evaluation. The
// JSON round trip both detaches the copy from the live state and keeps
// the key names aligned with the wire representation.
func (s *BookingState) Snapshot() (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, NewErrorf(ErrCodeInternal, "snapshot state: %v", err).WithCause(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, NewErrorf(ErrCodeInternal, "snapshot state: %v", err).WithCause(err)
	}
	return m, nil
}
