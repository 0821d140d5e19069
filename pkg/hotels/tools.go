package hotels

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// SearchResult is the wire payload of the search_hotels tool.
type SearchResult struct {
	Hotels []Hotel `json:"hotels"`
	Count  int     `json:"count"`
}

// HotelDetailsResult is the wire payload of the get_hotel_details tool.
type HotelDetailsResult struct {
	Hotel          Hotel  `json:"hotel"`
	AvailableRooms []Room `json:"available_rooms"`
}

// BookingDetailsResult is the wire payload of the get_booking_details tool.
type BookingDetailsResult struct {
	Booking   Booking `json:"booking"`
	HotelName string  `json:"hotel_name,omitempty"`
	RoomType  string  `json:"room_type,omitempty"`
}

// ListBookingsResult is the wire payload of the list_all_bookings tool.
type ListBookingsResult struct {
	Bookings []Booking `json:"bookings"`
}

func (s *HotelServer) handleSearchHotels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := SearchQuery{
		Location:  req.GetString("location", ""),
		MinRating: req.GetFloat("min_rating", 0.0),
		MaxPrice:  req.GetFloat("max_price", 1000.0),
	}
	if raw := req.GetString("amenities", ""); raw != "" {
		q.Amenities = strings.Split(raw, ",")
	}

	hotels := s.inv.SearchHotels(q)
	if hotels == nil {
		hotels = []Hotel{}
	}
	s.logger.DebugContext(ctx, "hotel search", "location", q.Location, "matches", len(hotels))
	return marshalResult(SearchResult{Hotels: hotels, Count: len(hotels)})
}

func (s *HotelServer) handleHotelDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hotelID, err := req.RequireString("hotel_id")
	if err != nil {
		return mcp.NewToolResultError("hotel_id is required"), nil
	}

	hotel, rooms, err := s.inv.HotelDetails(hotelID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if rooms == nil {
		rooms = []Room{}
	}
	return marshalResult(HotelDetailsResult{Hotel: hotel, AvailableRooms: rooms})
}

func (s *HotelServer) handleCheckAvailability(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hotelID, err := req.RequireString("hotel_id")
	if err != nil {
		return mcp.NewToolResultError("hotel_id is required"), nil
	}
	checkIn, err := req.RequireString("check_in")
	if err != nil {
		return mcp.NewToolResultError("check_in is required"), nil
	}
	checkOut, err := req.RequireString("check_out")
	if err != nil {
		return mcp.NewToolResultError("check_out is required"), nil
	}
	guests := req.GetInt("guests", 2)

	result, err := s.inv.CheckAvailability(hotelID, checkIn, checkOut, guests)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return marshalResult(result)
}

func (s *HotelServer) handleBookHotel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	breq := BookingRequest{}
	fields := []struct {
		name string
		dst  *string
	}{
		{"hotel_id", &breq.HotelID},
		{"room_id", &breq.RoomID},
		{"guest_name", &breq.GuestName},
		{"guest_email", &breq.GuestEmail},
		{"check_in", &breq.CheckIn},
		{"check_out", &breq.CheckOut},
	}
	for _, f := range fields {
		v, err := req.RequireString(f.name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s is required", f.name)), nil
		}
		*f.dst = v
	}

	result, err := s.inv.Book(breq)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.InfoContext(ctx, "booking placed",
		"booking_id", result.BookingID,
		"hotel_id", result.HotelID,
		"total_price", result.TotalPrice,
	)
	return marshalResult(result)
}

func (s *HotelServer) handleBookingDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bookingID, err := req.RequireString("booking_id")
	if err != nil {
		return mcp.NewToolResultError("booking_id is required"), nil
	}

	booking, err := s.inv.BookingDetails(bookingID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := BookingDetailsResult{Booking: booking}
	if hotel, _, err := s.inv.HotelDetails(booking.HotelID); err == nil {
		result.HotelName = hotel.Name
	}
	return marshalResult(result)
}

func (s *HotelServer) handleCancelBooking(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bookingID, err := req.RequireString("booking_id")
	if err != nil {
		return mcp.NewToolResultError("booking_id is required"), nil
	}

	result, err := s.inv.CancelBooking(bookingID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.InfoContext(ctx, "booking cancelled", "booking_id", bookingID, "refund", result.RefundAmount)
	return marshalResult(result)
}

func (s *HotelServer) handleListBookings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return marshalResult(ListBookingsResult{Bookings: s.inv.ListBookings()})
}

func (s *HotelServer) handleBookingStatistics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return marshalResult(s.inv.Statistics())
}

// marshalResult converts a value to a JSON tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
