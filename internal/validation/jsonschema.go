package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/innkeep/innkeep/pkg/schema"
)

// Tool payloads are validated before they enter shared state, so a
// misbehaving provider cannot poison a run with malformed records.
// Schemas are embedded as constants to avoid filesystem dependencies.

const searchResultSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://innkeep.dev/schemas/search-result.json",
  "type": "object",
  "required": ["hotels"],
  "properties": {
    "hotels": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "location", "rating", "price_per_night"],
        "properties": {
          "id": { "type": "string", "minLength": 1 },
          "name": { "type": "string", "minLength": 1 },
          "location": { "type": "string" },
          "rating": { "type": "number", "minimum": 0, "maximum": 5 },
          "price_per_night": { "type": "number", "minimum": 0 },
          "amenities": { "type": "array", "items": { "type": "string" } },
          "description": { "type": "string" }
        }
      }
    },
    "count": { "type": "integer", "minimum": 0 },
    "message": { "type": "string" }
  }
}`

const availabilityResultSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://innkeep.dev/schemas/availability-result.json",
  "type": "object",
  "required": ["hotel_id", "available"],
  "properties": {
    "hotel_id": { "type": "string", "minLength": 1 },
    "available": { "type": "boolean" },
    "available_rooms": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["room_id"],
        "properties": {
          "room_id": { "type": "string", "minLength": 1 },
          "room_type": { "type": "string" },
          "price_per_night": { "type": "number", "minimum": 0 },
          "capacity": { "type": "integer", "minimum": 1 }
        }
      }
    },
    "message": { "type": "string" }
  }
}`

const bookingResultSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://innkeep.dev/schemas/booking-result.json",
  "type": "object",
  "required": ["booking_id", "hotel_id", "status"],
  "properties": {
    "booking_id": { "type": "string", "minLength": 1 },
    "hotel_id": { "type": "string", "minLength": 1 },
    "hotel_name": { "type": "string" },
    "room_id": { "type": "string" },
    "check_in": { "type": "string" },
    "check_out": { "type": "string" },
    "total_price": { "type": "number", "minimum": 0 },
    "status": { "type": "string", "enum": ["confirmed", "cancelled", "completed"] }
  }
}`

const guestInfoSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://innkeep.dev/schemas/guest-info.json",
  "type": "object",
  "required": ["name", "email"],
  "properties": {
    "name": { "type": "string", "minLength": 1 },
    "email": {
      "type": "string",
      "minLength": 3,
      "pattern": "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$"
    }
  }
}`

// PayloadValidator validates tool results and booking inputs against the
// embedded JSON Schemas. Safe for concurrent use; every schema is compiled
// once at construction.
type PayloadValidator struct {
	searchResult *jsonschema.Schema
	availability *jsonschema.Schema
	booking      *jsonschema.Schema
	guestInfo    *jsonschema.Schema
}

// NewPayloadValidator compiles all embedded schemas.
func NewPayloadValidator() (*PayloadValidator, error) {
	v := &PayloadValidator{}
	for _, entry := range []struct {
		id   string
		doc  string
		dest **jsonschema.Schema
	}{
		{"https://innkeep.dev/schemas/search-result.json", searchResultSchemaJSON, &v.searchResult},
		{"https://innkeep.dev/schemas/availability-result.json", availabilityResultSchemaJSON, &v.availability},
		{"https://innkeep.dev/schemas/booking-result.json", bookingResultSchemaJSON, &v.booking},
		{"https://innkeep.dev/schemas/guest-info.json", guestInfoSchemaJSON, &v.guestInfo},
	} {
		compiled, err := compile(entry.id, entry.doc)
		if err != nil {
			return nil, err
		}
		*entry.dest = compiled
	}
	return v, nil
}

func compile(id, doc string) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema %s: %w", id, err)
	}
	if err := c.AddResource(id, parsed); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", id, err)
	}
	compiled, err := c.Compile(id)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", id, err)
	}
	return compiled, nil
}

// ValidateSearchResult checks a raw search_hotels payload.
func (v *PayloadValidator) ValidateSearchResult(raw json.RawMessage) error {
	return v.validate(v.searchResult, raw, "search result")
}

// ValidateAvailabilityResult checks a raw check_availability payload.
func (v *PayloadValidator) ValidateAvailabilityResult(raw json.RawMessage) error {
	return v.validate(v.availability, raw, "availability result")
}

// ValidateBookingResult checks a raw book_hotel payload.
func (v *PayloadValidator) ValidateBookingResult(raw json.RawMessage) error {
	return v.validate(v.booking, raw, "booking result")
}

// ValidateGuestInfo checks guest details before any booking attempt.
func (v *PayloadValidator) ValidateGuestInfo(guest *schema.GuestInfo) error {
	if guest == nil {
		return schema.NewError(schema.ErrCodeValidation, "guest info is required before booking")
	}
	raw, err := json.Marshal(guest)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize guest info").WithCause(err)
	}
	return v.validate(v.guestInfo, raw, "guest info")
}

func (v *PayloadValidator) validate(s *jsonschema.Schema, raw json.RawMessage, what string) error {
	if len(raw) == 0 {
		return schema.NewErrorf(schema.ErrCodeValidation, "empty %s payload", what)
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "%s is not valid JSON", what).WithCause(err)
	}
	if err := s.Validate(doc); err != nil {
		return toEngineError(err)
	}
	return nil
}

// toEngineError converts a jsonschema.ValidationError into an EngineError
// with clear, actionable messages.
func toEngineError(err error) *schema.EngineError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf error
// messages with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
