package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/innkeep/innkeep/internal/validation"
	"github.com/innkeep/innkeep/pkg/schema"
)

// AvailabilityChecker probes each candidate hotel for rooms over the stay
// window. Probes run through the gateway's bounded batch pool; a failed or
// timed-out probe yields an "unknown" record and an error event but never
// aborts the rest of the batch.
type AvailabilityChecker struct {
	tools     ToolCaller
	provider  string
	validator *validation.PayloadValidator
	timeout   time.Duration
	logger    *slog.Logger
}

// NewAvailabilityChecker creates the availability node.
func NewAvailabilityChecker(tools ToolCaller, provider string, validator *validation.PayloadValidator, timeout time.Duration, logger *slog.Logger) *AvailabilityChecker {
	return &AvailabilityChecker{
		tools:     tools,
		provider:  provider,
		validator: validator,
		timeout:   timeout,
		logger:    logger,
	}
}

func (n *AvailabilityChecker) Name() string { return schema.NodeAvailabilityCheck }

// availabilityPayload is the provider's wire shape for one probe.
type availabilityPayload struct {
	HotelID        string `json:"hotel_id"`
	Available      bool   `json:"available"`
	AvailableRooms []struct {
		RoomID        string  `json:"room_id"`
		RoomType      string  `json:"room_type"`
		Capacity      int     `json:"capacity"`
		PricePerNight float64 `json:"price_per_night"`
	} `json:"available_rooms"`
}

func (n *AvailabilityChecker) Run(ctx context.Context, st *schema.BookingState) schema.Outcome {
	if len(st.Hotels) == 0 || st.Dates == nil {
		st.AppendError(n.Name(), schema.ErrCodeValidation, "availability check requires search results and stay dates", nil)
		return schema.OutcomeError
	}

	guests := 2
	if st.Params != nil && st.Params.Guests > 0 {
		guests = st.Params.Guests
	}

	argsList := make([]map[string]any, len(st.Hotels))
	for i, h := range st.Hotels {
		argsList[i] = map[string]any{
			"hotel_id":  h.ID,
			"check_in":  st.Dates.CheckIn,
			"check_out": st.Dates.CheckOut,
			"guests":    guests,
		}
	}

	results := n.tools.InvokeBatch(ctx, n.provider, "check_availability", argsList, n.timeout)

	records := make([]schema.AvailabilityRecord, len(st.Hotels))
	available := 0
	for _, res := range results {
		hotelID := st.Hotels[res.Index].ID
		rec := schema.AvailabilityRecord{HotelID: hotelID}

		switch {
		case res.Err != nil:
			rec.Status = schema.AvailabilityUnknown
			rec.Message = res.Err.Error()
			recordToolFailure(st, n.Name(), "check_availability", res.Err, map[string]any{"hotel_id": hotelID})

		default:
			payload, err := n.decodeProbe(res.Data)
			if err != nil {
				rec.Status = schema.AvailabilityUnknown
				rec.Message = err.Error()
				st.AppendError(n.Name(), schema.CodeOf(err), err.Error(), map[string]any{"hotel_id": hotelID})
				break
			}
			if payload.Available {
				rec.Status = schema.AvailabilityAvailable
				for _, r := range payload.AvailableRooms {
					rec.Rooms = append(rec.Rooms, schema.RoomOption{
						RoomID:        r.RoomID,
						Type:          r.RoomType,
						Capacity:      r.Capacity,
						PricePerNight: r.PricePerNight,
					})
				}
				available++
			} else {
				rec.Status = schema.AvailabilityUnavailable
				rec.Message = "no rooms for the requested dates and party size"
			}
		}
		records[res.Index] = rec
	}
	st.Availability = records

	n.logger.InfoContext(ctx, "availability checked",
		"hotels", len(st.Hotels),
		"available", available,
	)

	if available == 0 {
		st.AppendError(n.Name(), schema.ErrCodeNoResults,
			"no rooms were available at any matched hotel for the requested dates",
			map[string]any{"check_in": st.Dates.CheckIn, "check_out": st.Dates.CheckOut})
		return schema.OutcomeError
	}
	return schema.OutcomeContinue
}

func (n *AvailabilityChecker) decodeProbe(raw json.RawMessage) (*availabilityPayload, error) {
	if err := n.validator.ValidateAvailabilityResult(raw); err != nil {
		return nil, err
	}
	var payload availabilityPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "decode availability payload: %s", err.Error()).WithCause(err)
	}
	return &payload, nil
}
