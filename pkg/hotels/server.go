package hotels

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// HotelServer wraps an MCP server exposing the booking tools over an
// in-memory inventory.
type HotelServer struct {
	inv       *Inventory
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewHotelServer creates a HotelServer with all 8 tools registered.
func NewHotelServer(inv *Inventory, logger *slog.Logger) *HotelServer {
	if inv == nil {
		inv = NewInventory()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &HotelServer{inv: inv, logger: logger}

	mcpSrv := server.NewMCPServer(
		"hotel-booking",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Hotel booking provider. Use search_hotels to find hotels, get_hotel_details for rooms, check_availability for date-specific availability, book_hotel to reserve, and the booking tools to inspect, cancel or summarize reservations."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *HotelServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for in-process transports and tests.
func (s *HotelServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 8 registered MCP tools as ServerTool entries.
func (s *HotelServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: searchHotelsTool(), Handler: s.handleSearchHotels},
		{Tool: hotelDetailsTool(), Handler: s.handleHotelDetails},
		{Tool: checkAvailabilityTool(), Handler: s.handleCheckAvailability},
		{Tool: bookHotelTool(), Handler: s.handleBookHotel},
		{Tool: bookingDetailsTool(), Handler: s.handleBookingDetails},
		{Tool: cancelBookingTool(), Handler: s.handleCancelBooking},
		{Tool: listBookingsTool(), Handler: s.handleListBookings},
		{Tool: bookingStatisticsTool(), Handler: s.handleBookingStatistics},
	}
}

// --- Tool definitions ---

func searchHotelsTool() mcp.Tool {
	return mcp.NewTool("search_hotels",
		mcp.WithDescription("Search for hotels by location, rating, price and amenities"),
		mcp.WithString("location", mcp.Description("Location to search in (city name, state, etc.)")),
		mcp.WithNumber("min_rating", mcp.Description("Minimum hotel rating (0.0 to 5.0)")),
		mcp.WithNumber("max_price", mcp.Description("Maximum price per night (default: 1000)")),
		mcp.WithString("amenities", mcp.Description("Comma-separated list of desired amenities")),
	)
}

func hotelDetailsTool() mcp.Tool {
	return mcp.NewTool("get_hotel_details",
		mcp.WithDescription("Get detailed information about a hotel including its available rooms"),
		mcp.WithString("hotel_id", mcp.Required(), mcp.Description("The ID of the hotel")),
	)
}

func checkAvailabilityTool() mcp.Tool {
	return mcp.NewTool("check_availability",
		mcp.WithDescription("Check room availability for specific dates"),
		mcp.WithString("hotel_id", mcp.Required(), mcp.Description("The ID of the hotel")),
		mcp.WithString("check_in", mcp.Required(), mcp.Description("Check-in date (YYYY-MM-DD)")),
		mcp.WithString("check_out", mcp.Required(), mcp.Description("Check-out date (YYYY-MM-DD)")),
		mcp.WithNumber("guests", mcp.Description("Number of guests (default: 2)")),
	)
}

func bookHotelTool() mcp.Tool {
	return mcp.NewTool("book_hotel",
		mcp.WithDescription("Book a hotel room"),
		mcp.WithString("hotel_id", mcp.Required(), mcp.Description("The ID of the hotel")),
		mcp.WithString("room_id", mcp.Required(), mcp.Description("The ID of the room to book")),
		mcp.WithString("guest_name", mcp.Required(), mcp.Description("Guest's full name")),
		mcp.WithString("guest_email", mcp.Required(), mcp.Description("Guest's email address")),
		mcp.WithString("check_in", mcp.Required(), mcp.Description("Check-in date (YYYY-MM-DD)")),
		mcp.WithString("check_out", mcp.Required(), mcp.Description("Check-out date (YYYY-MM-DD)")),
	)
}

func bookingDetailsTool() mcp.Tool {
	return mcp.NewTool("get_booking_details",
		mcp.WithDescription("Get details of an existing booking"),
		mcp.WithString("booking_id", mcp.Required(), mcp.Description("The booking ID")),
	)
}

func cancelBookingTool() mcp.Tool {
	return mcp.NewTool("cancel_booking",
		mcp.WithDescription("Cancel an existing booking with a full refund"),
		mcp.WithString("booking_id", mcp.Required(), mcp.Description("The booking ID to cancel")),
	)
}

func listBookingsTool() mcp.Tool {
	return mcp.NewTool("list_all_bookings",
		mcp.WithDescription("List all current bookings"),
	)
}

func bookingStatisticsTool() mcp.Tool {
	return mcp.NewTool("get_booking_statistics",
		mcp.WithDescription("Get summary statistics about all bookings"),
	)
}
