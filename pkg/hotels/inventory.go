// Package hotels provides the bundled hotel booking tool server. It holds an
// in-memory inventory of hotels, rooms and bookings and exposes it over MCP so
// the pipeline can run end to end without an external provider.
package hotels

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Booking status values.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusPending   = "pending"
	BookingStatusCancelled = "cancelled"
)

// Hotel is one property in the inventory.
type Hotel struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Location       string   `json:"location"`
	Rating         float64  `json:"rating"`
	Amenities      []string `json:"amenities"`
	PricePerNight  float64  `json:"price_per_night"`
	AvailableRooms int      `json:"available_rooms"`
	Description    string   `json:"description"`
}

// Room is a bookable room belonging to a hotel.
type Room struct {
	ID            string   `json:"id"`
	HotelID       string   `json:"hotel_id"`
	RoomType      string   `json:"room_type"`
	Capacity      int      `json:"capacity"`
	PricePerNight float64  `json:"price_per_night"`
	Amenities     []string `json:"amenities"`
	Available     bool     `json:"available"`
}

// Booking is a reservation of one room over a date range.
type Booking struct {
	ID         string  `json:"id"`
	HotelID    string  `json:"hotel_id"`
	RoomID     string  `json:"room_id"`
	GuestName  string  `json:"guest_name"`
	GuestEmail string  `json:"guest_email"`
	CheckIn    string  `json:"check_in"`
	CheckOut   string  `json:"check_out"`
	TotalPrice float64 `json:"total_price"`
	Status     string  `json:"status"`
}

// SearchQuery filters the hotel catalog.
type SearchQuery struct {
	Location  string
	MinRating float64
	MaxPrice  float64
	Amenities []string
	Guests    int
}

// AvailableRoom is one room that can be booked for the requested dates.
type AvailableRoom struct {
	RoomID        string   `json:"room_id"`
	RoomType      string   `json:"room_type"`
	Capacity      int      `json:"capacity"`
	PricePerNight float64  `json:"price_per_night"`
	Amenities     []string `json:"amenities,omitempty"`
}

// AvailabilityResult is the response of an availability probe.
type AvailabilityResult struct {
	HotelID        string          `json:"hotel_id"`
	CheckIn        string          `json:"check_in"`
	CheckOut       string          `json:"check_out"`
	Guests         int             `json:"guests"`
	Available      bool            `json:"available"`
	AvailableRooms []AvailableRoom `json:"available_rooms"`
}

// BookingRequest carries everything needed to place a booking.
type BookingRequest struct {
	HotelID    string
	RoomID     string
	GuestName  string
	GuestEmail string
	CheckIn    string
	CheckOut   string
}

// BookingResult is the confirmation payload of a successful booking.
type BookingResult struct {
	BookingID  string  `json:"booking_id"`
	HotelID    string  `json:"hotel_id"`
	HotelName  string  `json:"hotel_name"`
	RoomID     string  `json:"room_id"`
	GuestName  string  `json:"guest_name"`
	GuestEmail string  `json:"guest_email"`
	CheckIn    string  `json:"check_in"`
	CheckOut   string  `json:"check_out"`
	Nights     int     `json:"nights"`
	TotalPrice float64 `json:"total_price"`
	Status     string  `json:"status"`
	Message    string  `json:"message"`
}

// CancellationResult confirms a cancelled booking and its refund.
type CancellationResult struct {
	BookingID      string  `json:"booking_id"`
	PreviousStatus string  `json:"previous_status"`
	NewStatus      string  `json:"new_status"`
	RefundAmount   float64 `json:"refund_amount"`
	Message        string  `json:"message"`
}

// PopularHotel is one entry in the booking statistics ranking.
type PopularHotel struct {
	HotelName    string `json:"hotel_name"`
	BookingCount int    `json:"booking_count"`
}

// Statistics summarizes the booking ledger.
type Statistics struct {
	TotalBookings     int            `json:"total_bookings"`
	ConfirmedBookings int            `json:"confirmed_bookings"`
	PendingBookings   int            `json:"pending_bookings"`
	CancelledBookings int            `json:"cancelled_bookings"`
	TotalRevenue      float64        `json:"total_revenue"`
	MostPopularHotels []PopularHotel `json:"most_popular_hotels"`
}

// Inventory is a mutex-guarded in-memory catalog of hotels, rooms and bookings.
type Inventory struct {
	mu       sync.RWMutex
	hotels   []Hotel
	rooms    []Room
	bookings []Booking
}

// NewInventory returns an inventory seeded with the demo catalog.
func NewInventory() *Inventory {
	return &Inventory{
		hotels:   seedHotels(),
		rooms:    seedRooms(),
		bookings: seedBookings(),
	}
}

// SearchHotels returns hotels matching the query. Location matching is
// flexible: either side may contain the other, and comma-separated parts
// match independently. Amenity matching is partial and case-insensitive.
func (inv *Inventory) SearchHotels(q SearchQuery) []Hotel {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	wanted := make([]string, 0, len(q.Amenities))
	for _, a := range q.Amenities {
		if s := strings.ToLower(strings.TrimSpace(a)); s != "" {
			wanted = append(wanted, s)
		}
	}

	results := make([]Hotel, 0, len(inv.hotels))
	for _, h := range inv.hotels {
		if !matchLocation(q.Location, h.Location) {
			continue
		}
		if h.Rating < q.MinRating {
			continue
		}
		if q.MaxPrice > 0 && h.PricePerNight > q.MaxPrice {
			continue
		}
		if len(wanted) > 0 && !matchAmenities(wanted, h.Amenities) {
			continue
		}
		results = append(results, h)
	}
	return results
}

func matchLocation(query, hotelLoc string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	loc := strings.ToLower(hotelLoc)
	if strings.Contains(loc, query) {
		return true
	}
	for _, part := range strings.Split(query, ",") {
		if part = strings.TrimSpace(part); part != "" && strings.Contains(loc, part) {
			return true
		}
	}
	city := strings.TrimSpace(strings.Split(loc, ",")[0])
	return city != "" && strings.Contains(query, city)
}

func matchAmenities(wanted []string, have []string) bool {
	for _, w := range wanted {
		for _, a := range have {
			if strings.Contains(strings.ToLower(a), w) {
				return true
			}
		}
	}
	return false
}

// HotelDetails returns a hotel and its rooms that are currently available.
func (inv *Inventory) HotelDetails(hotelID string) (Hotel, []Room, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	h, ok := inv.findHotel(hotelID)
	if !ok {
		return Hotel{}, nil, fmt.Errorf("hotel %q not found", hotelID)
	}
	var rooms []Room
	for _, r := range inv.rooms {
		if r.HotelID == hotelID && r.Available {
			rooms = append(rooms, r)
		}
	}
	return h, rooms, nil
}

// CheckAvailability returns rooms of the hotel that fit the party size and
// have no conflicting confirmed or pending booking over the date range.
func (inv *Inventory) CheckAvailability(hotelID, checkIn, checkOut string, guests int) (AvailabilityResult, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	if _, ok := inv.findHotel(hotelID); !ok {
		return AvailabilityResult{}, fmt.Errorf("hotel %q not found", hotelID)
	}

	res := AvailabilityResult{
		HotelID:        hotelID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Guests:         guests,
		AvailableRooms: []AvailableRoom{},
	}
	for _, r := range inv.rooms {
		if r.HotelID != hotelID || !r.Available || r.Capacity < guests {
			continue
		}
		if inv.hasConflict(r.ID, checkIn, checkOut) {
			continue
		}
		res.AvailableRooms = append(res.AvailableRooms, AvailableRoom{
			RoomID:        r.ID,
			RoomType:      r.RoomType,
			Capacity:      r.Capacity,
			PricePerNight: r.PricePerNight,
			Amenities:     r.Amenities,
		})
	}
	res.Available = len(res.AvailableRooms) > 0
	return res, nil
}

// hasConflict reports whether the room has an active booking overlapping the
// requested range. Dates are ISO strings, so lexical comparison is correct.
// Two ranges overlap unless one ends before the other starts; check-out day
// does not count as occupied.
func (inv *Inventory) hasConflict(roomID, checkIn, checkOut string) bool {
	for _, b := range inv.bookings {
		if b.RoomID != roomID {
			continue
		}
		if b.Status != BookingStatusConfirmed && b.Status != BookingStatusPending {
			continue
		}
		if !(checkOut <= b.CheckIn || checkIn >= b.CheckOut) {
			return true
		}
	}
	return false
}

// Book places a booking if the room exists, fits the dates and has no
// conflicting reservation. The total is nights times the room rate.
func (inv *Inventory) Book(req BookingRequest) (BookingResult, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	hotel, ok := inv.findHotel(req.HotelID)
	if !ok {
		return BookingResult{}, fmt.Errorf("hotel %q not found", req.HotelID)
	}
	var room *Room
	for i := range inv.rooms {
		if inv.rooms[i].ID == req.RoomID && inv.rooms[i].HotelID == req.HotelID {
			room = &inv.rooms[i]
			break
		}
	}
	if room == nil {
		return BookingResult{}, fmt.Errorf("room %q not found in hotel %q", req.RoomID, req.HotelID)
	}
	if !room.Available {
		return BookingResult{}, fmt.Errorf("room %q is not available", req.RoomID)
	}

	in, err := time.Parse(dateLayout, req.CheckIn)
	if err != nil {
		return BookingResult{}, fmt.Errorf("invalid check_in date %q: use YYYY-MM-DD", req.CheckIn)
	}
	out, err := time.Parse(dateLayout, req.CheckOut)
	if err != nil {
		return BookingResult{}, fmt.Errorf("invalid check_out date %q: use YYYY-MM-DD", req.CheckOut)
	}
	nights := int(out.Sub(in).Hours() / 24)
	if nights <= 0 {
		return BookingResult{}, fmt.Errorf("invalid date range: check_out must be after check_in")
	}

	if inv.hasConflict(req.RoomID, req.CheckIn, req.CheckOut) {
		return BookingResult{}, fmt.Errorf("room %q is not available for %s to %s due to existing bookings", req.RoomID, req.CheckIn, req.CheckOut)
	}

	booking := Booking{
		ID:         uuid.New().String(),
		HotelID:    req.HotelID,
		RoomID:     req.RoomID,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		TotalPrice: room.PricePerNight * float64(nights),
		Status:     BookingStatusConfirmed,
	}
	inv.bookings = append(inv.bookings, booking)

	return BookingResult{
		BookingID:  booking.ID,
		HotelID:    booking.HotelID,
		HotelName:  hotel.Name,
		RoomID:     booking.RoomID,
		GuestName:  booking.GuestName,
		GuestEmail: booking.GuestEmail,
		CheckIn:    booking.CheckIn,
		CheckOut:   booking.CheckOut,
		Nights:     nights,
		TotalPrice: booking.TotalPrice,
		Status:     booking.Status,
		Message:    fmt.Sprintf("Booking confirmed! Your reservation ID is %s", booking.ID),
	}, nil
}

// BookingDetails returns a booking by ID.
func (inv *Inventory) BookingDetails(bookingID string) (Booking, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	for _, b := range inv.bookings {
		if b.ID == bookingID {
			return b, nil
		}
	}
	return Booking{}, fmt.Errorf("booking %q not found", bookingID)
}

// CancelBooking cancels a booking with a full refund and frees the room.
func (inv *Inventory) CancelBooking(bookingID string) (CancellationResult, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for i := range inv.bookings {
		b := &inv.bookings[i]
		if b.ID != bookingID {
			continue
		}
		if b.Status == BookingStatusCancelled {
			return CancellationResult{}, fmt.Errorf("booking %q is already cancelled", bookingID)
		}
		prev := b.Status
		b.Status = BookingStatusCancelled
		for j := range inv.rooms {
			if inv.rooms[j].ID == b.RoomID {
				inv.rooms[j].Available = true
			}
		}
		return CancellationResult{
			BookingID:      bookingID,
			PreviousStatus: prev,
			NewStatus:      BookingStatusCancelled,
			RefundAmount:   b.TotalPrice,
			Message:        fmt.Sprintf("Booking %s has been successfully cancelled", bookingID),
		}, nil
	}
	return CancellationResult{}, fmt.Errorf("booking %q not found", bookingID)
}

// ListBookings returns a copy of every booking in the ledger.
func (inv *Inventory) ListBookings() []Booking {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make([]Booking, len(inv.bookings))
	copy(out, inv.bookings)
	return out
}

// Statistics aggregates the ledger: counts by status, revenue from confirmed
// bookings and the five most booked hotels.
func (inv *Inventory) Statistics() Statistics {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	stats := Statistics{
		TotalBookings:     len(inv.bookings),
		MostPopularHotels: []PopularHotel{},
	}
	counts := make(map[string]int)
	for _, b := range inv.bookings {
		switch b.Status {
		case BookingStatusConfirmed:
			stats.ConfirmedBookings++
			stats.TotalRevenue += b.TotalPrice
		case BookingStatusPending:
			stats.PendingBookings++
		case BookingStatusCancelled:
			stats.CancelledBookings++
		}
		if b.Status == BookingStatusConfirmed || b.Status == BookingStatusPending {
			counts[b.HotelID]++
		}
	}

	type ranked struct {
		hotelID string
		count   int
	}
	ordered := make([]ranked, 0, len(counts))
	for id, n := range counts {
		ordered = append(ordered, ranked{id, n})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].hotelID < ordered[j].hotelID
	})
	for _, r := range ordered {
		if len(stats.MostPopularHotels) == 5 {
			break
		}
		if h, ok := inv.findHotel(r.hotelID); ok {
			stats.MostPopularHotels = append(stats.MostPopularHotels, PopularHotel{
				HotelName:    h.Name,
				BookingCount: r.count,
			})
		}
	}
	return stats
}

func (inv *Inventory) findHotel(hotelID string) (Hotel, bool) {
	for _, h := range inv.hotels {
		if h.ID == hotelID {
			return h, true
		}
	}
	return Hotel{}, false
}
