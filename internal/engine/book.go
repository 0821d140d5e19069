package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"github.com/innkeep/innkeep/internal/validation"
	"github.com/innkeep/innkeep/pkg/schema"
)

// BookingExecutor places the reservation. It requires an explicit hotel
// selection with a confirmed-available record plus validated guest info, and
// issues exactly one book_hotel call; a failed booking is never retried
// automatically.
type BookingExecutor struct {
	tools     ToolCaller
	provider  string
	validator *validation.PayloadValidator
	timeout   time.Duration
	logger    *slog.Logger
}

// NewBookingExecutor creates the booking node.
func NewBookingExecutor(tools ToolCaller, provider string, validator *validation.PayloadValidator, timeout time.Duration, logger *slog.Logger) *BookingExecutor {
	return &BookingExecutor{
		tools:     tools,
		provider:  provider,
		validator: validator,
		timeout:   timeout,
		logger:    logger,
	}
}

func (n *BookingExecutor) Name() string { return schema.NodeBook }

func (n *BookingExecutor) Run(ctx context.Context, st *schema.BookingState) schema.Outcome {
	if st.SelectedHotelID == "" {
		st.AppendError(n.Name(), schema.ErrCodeValidation, "booking requires a selected hotel", nil)
		return schema.OutcomeError
	}
	rec := st.AvailabilityFor(st.SelectedHotelID)
	if rec == nil || rec.Status != schema.AvailabilityAvailable || len(rec.Rooms) == 0 {
		st.AppendError(n.Name(), schema.ErrCodeValidation,
			"selected hotel has no confirmed availability",
			map[string]any{"hotel_id": st.SelectedHotelID})
		return schema.OutcomeError
	}
	if err := n.validator.ValidateGuestInfo(st.Guest); err != nil {
		st.AppendError(n.Name(), schema.CodeOf(err), err.Error(), nil)
		return schema.OutcomeError
	}

	room := cheapestRoom(rec.Rooms)
	args := map[string]any{
		"hotel_id":    st.SelectedHotelID,
		"room_id":     room.RoomID,
		"guest_name":  st.Guest.Name,
		"guest_email": st.Guest.Email,
		"check_in":    st.Dates.CheckIn,
		"check_out":   st.Dates.CheckOut,
	}

	raw, err := n.tools.Invoke(ctx, n.provider, "book_hotel", args, n.timeout)
	if err != nil {
		recordToolFailure(st, n.Name(), "book_hotel", err, map[string]any{"hotel_id": st.SelectedHotelID})
		return schema.OutcomeError
	}
	if err := n.validator.ValidateBookingResult(raw); err != nil {
		st.AppendError(n.Name(), schema.CodeOf(err), err.Error(), nil)
		return schema.OutcomeError
	}

	var conf schema.BookingConfirmation
	if err := json.Unmarshal(raw, &conf); err != nil {
		st.AppendError(n.Name(), schema.ErrCodeValidation, "decode booking confirmation: "+err.Error(), nil)
		return schema.OutcomeError
	}
	st.Confirmation = &conf

	n.logger.InfoContext(ctx, "booking confirmed",
		"booking_id", conf.BookingID,
		"hotel_id", conf.HotelID,
		"total_price", conf.TotalPrice,
	)
	return schema.OutcomeDone
}

func cheapestRoom(rooms []schema.RoomOption) schema.RoomOption {
	best := rooms[0]
	bestPrice := math.Inf(1)
	for _, r := range rooms {
		if r.PricePerNight < bestPrice {
			best = r
			bestPrice = r.PricePerNight
		}
	}
	return best
}
