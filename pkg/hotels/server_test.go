package hotels

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// callTool invokes a tool through the MCP server's HandleMessage (full JSON-RPC round-trip).
func callTool(t *testing.T, srv *HotelServer, toolName string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	mcpSrv := srv.MCPServer()

	initMsg := map[string]any{
		"jsonrpc": "2.0",
		"id":      0,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": "2025-03-26",
			"capabilities":    map[string]any{},
			"clientInfo": map[string]any{
				"name":    "hotels-test",
				"version": "1.0.0",
			},
		},
	}
	rawInit, err := json.Marshal(initMsg)
	require.NoError(t, err)
	require.NotNil(t, mcpSrv.HandleMessage(ctx, rawInit))

	reqMsg := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": args,
		},
	}
	rawReq, err := json.Marshal(reqMsg)
	require.NoError(t, err)

	resp := mcpSrv.HandleMessage(ctx, rawReq)
	require.NotNil(t, resp)

	respBytes, err := json.Marshal(resp)
	require.NoError(t, err)

	var rpcResp struct {
		Result *mcp.CallToolResult `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(respBytes, &rpcResp))
	if rpcResp.Error != nil {
		t.Fatalf("JSON-RPC error: code=%d, msg=%s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	require.NotNil(t, rpcResp.Result)
	return rpcResp.Result
}

// extractJSON parses the first text content of a tool result as JSON.
func extractJSON(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text := mcp.GetTextFromContent(result.Content[0])
	require.NoError(t, json.Unmarshal([]byte(text), target))
}

func TestServerSearchHotels(t *testing.T) {
	srv := NewHotelServer(nil, nil)

	result := callTool(t, srv, "search_hotels", map[string]any{
		"location":  "San Francisco",
		"amenities": "beach",
		"max_price": 100,
	})
	require.False(t, result.IsError)

	var payload SearchResult
	extractJSON(t, result, &payload)
	assert.Equal(t, 3, payload.Count)
	for _, h := range payload.Hotels {
		assert.LessOrEqual(t, h.PricePerNight, 100.0)
	}
}

func TestServerCheckAvailabilityDefaults(t *testing.T) {
	srv := NewHotelServer(nil, nil)

	result := callTool(t, srv, "check_availability", map[string]any{
		"hotel_id":  "hotel_3",
		"check_in":  "2025-09-01",
		"check_out": "2025-09-03",
	})
	require.False(t, result.IsError)

	var payload AvailabilityResult
	extractJSON(t, result, &payload)
	assert.Equal(t, 2, payload.Guests)
	assert.True(t, payload.Available)
	assert.Len(t, payload.AvailableRooms, 2)
}

func TestServerBookAndCancel(t *testing.T) {
	srv := NewHotelServer(nil, nil)

	booked := callTool(t, srv, "book_hotel", map[string]any{
		"hotel_id":    "hotel_5",
		"room_id":     "room_5_1",
		"guest_name":  "Alice Chen",
		"guest_email": "alice@example.com",
		"check_in":    "2025-10-10",
		"check_out":   "2025-10-12",
	})
	require.False(t, booked.IsError)

	var confirmation BookingResult
	extractJSON(t, booked, &confirmation)
	assert.Equal(t, BookingStatusConfirmed, confirmation.Status)
	assert.InDelta(t, 320.0, confirmation.TotalPrice, 0.001)

	cancelled := callTool(t, srv, "cancel_booking", map[string]any{
		"booking_id": confirmation.BookingID,
	})
	require.False(t, cancelled.IsError)

	var cres CancellationResult
	extractJSON(t, cancelled, &cres)
	assert.InDelta(t, 320.0, cres.RefundAmount, 0.001)
}

func TestServerMissingRequiredArgument(t *testing.T) {
	srv := NewHotelServer(nil, nil)

	result := callTool(t, srv, "get_hotel_details", map[string]any{})
	assert.True(t, result.IsError)
}

func TestServerUnknownBooking(t *testing.T) {
	srv := NewHotelServer(nil, nil)

	result := callTool(t, srv, "get_booking_details", map[string]any{
		"booking_id": "booking_999",
	})
	assert.True(t, result.IsError)
}
