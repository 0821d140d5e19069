package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/innkeep/pkg/schema"
)

func newValidator(t *testing.T) *PayloadValidator {
	t.Helper()
	v, err := NewPayloadValidator()
	require.NoError(t, err)
	return v
}

// --- Search results ---

func TestValidateSearchResult_Valid(t *testing.T) {
	v := newValidator(t)

	raw := json.RawMessage(`{
		"hotels": [
			{"id": "hotel_6", "name": "Oceanview Lodge", "location": "San Francisco, CA",
			 "rating": 4.2, "price_per_night": 150, "amenities": ["Beach Access"]}
		],
		"count": 1
	}`)
	assert.NoError(t, v.ValidateSearchResult(raw))
}

func TestValidateSearchResult_EmptyHotelsIsValid(t *testing.T) {
	v := newValidator(t)

	// Zero hotels is a domain condition (NoResultsFound), not a schema error.
	assert.NoError(t, v.ValidateSearchResult(json.RawMessage(`{"hotels": [], "count": 0}`)))
}

func TestValidateSearchResult_MissingRequiredField(t *testing.T) {
	v := newValidator(t)

	raw := json.RawMessage(`{"hotels": [{"id": "hotel_1", "name": "X", "location": "Y", "rating": 4.0}]}`)
	err := v.ValidateSearchResult(raw)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestValidateSearchResult_RatingOutOfRange(t *testing.T) {
	v := newValidator(t)

	raw := json.RawMessage(`{"hotels": [{"id": "h", "name": "X", "location": "Y", "rating": 9.5, "price_per_night": 10}]}`)
	require.Error(t, v.ValidateSearchResult(raw))
}

func TestValidateSearchResult_MalformedJSON(t *testing.T) {
	v := newValidator(t)

	err := v.ValidateSearchResult(json.RawMessage(`{"hotels": [`))
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

// --- Availability results ---

func TestValidateAvailabilityResult(t *testing.T) {
	v := newValidator(t)

	valid := json.RawMessage(`{
		"hotel_id": "hotel_6",
		"available": true,
		"available_rooms": [{"room_id": "room_12", "type": "double", "price_per_night": 150, "capacity": 2}]
	}`)
	assert.NoError(t, v.ValidateAvailabilityResult(valid))

	noRooms := json.RawMessage(`{"hotel_id": "hotel_6", "available": false, "message": "fully booked"}`)
	assert.NoError(t, v.ValidateAvailabilityResult(noRooms))

	missing := json.RawMessage(`{"available": true}`)
	assert.Error(t, v.ValidateAvailabilityResult(missing))
}

// --- Booking results ---

func TestValidateBookingResult(t *testing.T) {
	v := newValidator(t)

	valid := json.RawMessage(`{
		"booking_id": "b-1", "hotel_id": "hotel_6", "room_id": "room_12",
		"check_in": "2025-07-25", "check_out": "2025-07-27",
		"total_price": 300, "status": "confirmed"
	}`)
	assert.NoError(t, v.ValidateBookingResult(valid))

	badStatus := json.RawMessage(`{"booking_id": "b-1", "hotel_id": "hotel_6", "status": "pending"}`)
	assert.Error(t, v.ValidateBookingResult(badStatus))
}

// --- Guest info ---

func TestValidateGuestInfo(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.ValidateGuestInfo(&schema.GuestInfo{Name: "Alex Chen", Email: "alex@example.com"}))

	err := v.ValidateGuestInfo(nil)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))

	assert.Error(t, v.ValidateGuestInfo(&schema.GuestInfo{Name: "", Email: "alex@example.com"}))
	assert.Error(t, v.ValidateGuestInfo(&schema.GuestInfo{Name: "Alex", Email: "not-an-email"}))
	assert.Error(t, v.ValidateGuestInfo(&schema.GuestInfo{Name: "Alex", Email: "a b@example.com"}))
}

func TestValidateEmptyPayload(t *testing.T) {
	v := newValidator(t)

	err := v.ValidateSearchResult(nil)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}
