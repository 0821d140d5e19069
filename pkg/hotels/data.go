package hotels

// Demo catalog. Eleven hotels across six cities with a San Francisco cluster
// covering the full price band, plus a handful of pre-existing bookings so
// availability conflicts are reachable out of the box.

func seedHotels() []Hotel {
	return []Hotel{
		{
			ID:             "hotel_1",
			Name:           "Grand Plaza Hotel",
			Location:       "New York, NY",
			Rating:         4.5,
			Amenities:      []string{"WiFi", "Pool", "Gym", "Restaurant", "Spa"},
			PricePerNight:  250.0,
			AvailableRooms: 15,
			Description:    "Luxurious hotel in the heart of Manhattan with stunning city views",
		},
		{
			ID:             "hotel_2",
			Name:           "Seaside Resort",
			Location:       "Miami, FL",
			Rating:         4.2,
			Amenities:      []string{"WiFi", "Beach Access", "Pool", "Restaurant", "Bar"},
			PricePerNight:  180.0,
			AvailableRooms: 8,
			Description:    "Beautiful beachfront resort with direct ocean access",
		},
		{
			ID:             "hotel_3",
			Name:           "Mountain View Lodge",
			Location:       "Denver, CO",
			Rating:         4.0,
			Amenities:      []string{"WiFi", "Fireplace", "Hiking Trails", "Restaurant"},
			PricePerNight:  120.0,
			AvailableRooms: 12,
			Description:    "Cozy mountain lodge perfect for nature lovers",
		},
		{
			ID:             "hotel_4",
			Name:           "Business Center Hotel",
			Location:       "Chicago, IL",
			Rating:         4.3,
			Amenities:      []string{"WiFi", "Business Center", "Gym", "Conference Rooms"},
			PricePerNight:  200.0,
			AvailableRooms: 20,
			Description:    "Modern business hotel ideal for corporate travelers",
		},
		{
			ID:             "hotel_5",
			Name:           "Historic Inn",
			Location:       "Boston, MA",
			Rating:         4.1,
			Amenities:      []string{"WiFi", "Historic Charm", "Restaurant", "Library"},
			PricePerNight:  160.0,
			AvailableRooms: 6,
			Description:    "Charming historic inn with old-world elegance",
		},
		{
			ID:             "hotel_6",
			Name:           "Ocean View Resort",
			Location:       "San Francisco, CA",
			Rating:         4.4,
			Amenities:      []string{"WiFi", "Beach Access", "Pool", "Restaurant", "Spa"},
			PricePerNight:  190.0,
			AvailableRooms: 10,
			Description:    "Beautiful oceanfront resort near Golden Gate Bridge with beach access",
		},
		{
			ID:             "hotel_7",
			Name:           "Bay Side Hotel",
			Location:       "San Francisco, CA",
			Rating:         4.2,
			Amenities:      []string{"WiFi", "Bay Views", "Restaurant", "Gym"},
			PricePerNight:  170.0,
			AvailableRooms: 8,
			Description:    "Modern hotel with stunning bay views, walking distance to beaches",
		},
		{
			ID:             "hotel_8",
			Name:           "Coastal Inn",
			Location:       "San Francisco, CA",
			Rating:         4.0,
			Amenities:      []string{"WiFi", "Beach Nearby", "Restaurant", "Parking"},
			PricePerNight:  150.0,
			AvailableRooms: 12,
			Description:    "Comfortable inn just 2 blocks from the beach, perfect for budget travelers",
		},
		{
			ID:             "hotel_9",
			Name:           "Budget Beach Motel",
			Location:       "San Francisco, CA",
			Rating:         3.5,
			Amenities:      []string{"WiFi", "Beach Access", "Parking"},
			PricePerNight:  85.0,
			AvailableRooms: 15,
			Description:    "Simple, clean motel with direct beach access at unbeatable prices",
		},
		{
			ID:             "hotel_10",
			Name:           "Surfer's Paradise Hostel",
			Location:       "San Francisco, CA",
			Rating:         3.8,
			Amenities:      []string{"WiFi", "Beach Nearby", "Shared Kitchen", "Lounge"},
			PricePerNight:  75.0,
			AvailableRooms: 20,
			Description:    "Friendly hostel just steps from the beach, perfect for budget travelers",
		},
		{
			ID:             "hotel_11",
			Name:           "Ocean Breeze Inn",
			Location:       "San Francisco, CA",
			Rating:         3.7,
			Amenities:      []string{"WiFi", "Beach View", "Restaurant"},
			PricePerNight:  95.0,
			AvailableRooms: 10,
			Description:    "Cozy inn with ocean views and easy beach access",
		},
	}
}

func seedRooms() []Room {
	return []Room{
		{ID: "room_1_1", HotelID: "hotel_1", RoomType: "Standard", Capacity: 2, PricePerNight: 250.0, Amenities: []string{"WiFi", "TV", "AC"}, Available: true},
		{ID: "room_1_2", HotelID: "hotel_1", RoomType: "Deluxe", Capacity: 3, PricePerNight: 350.0, Amenities: []string{"WiFi", "TV", "AC", "Mini Bar"}, Available: true},
		{ID: "room_1_3", HotelID: "hotel_1", RoomType: "Suite", Capacity: 4, PricePerNight: 500.0, Amenities: []string{"WiFi", "TV", "AC", "Mini Bar", "Living Room"}, Available: true},
		{ID: "room_2_1", HotelID: "hotel_2", RoomType: "Ocean View", Capacity: 2, PricePerNight: 180.0, Amenities: []string{"WiFi", "TV", "Balcony"}, Available: true},
		{ID: "room_2_2", HotelID: "hotel_2", RoomType: "Beach Suite", Capacity: 4, PricePerNight: 280.0, Amenities: []string{"WiFi", "TV", "Balcony", "Kitchenette"}, Available: true},
		{ID: "room_3_1", HotelID: "hotel_3", RoomType: "Cabin", Capacity: 2, PricePerNight: 120.0, Amenities: []string{"WiFi", "Fireplace"}, Available: true},
		{ID: "room_3_2", HotelID: "hotel_3", RoomType: "Family Cabin", Capacity: 6, PricePerNight: 200.0, Amenities: []string{"WiFi", "Fireplace", "Kitchenette"}, Available: true},
		{ID: "room_4_1", HotelID: "hotel_4", RoomType: "Business", Capacity: 1, PricePerNight: 200.0, Amenities: []string{"WiFi", "Desk", "TV"}, Available: true},
		{ID: "room_4_2", HotelID: "hotel_4", RoomType: "Executive", Capacity: 2, PricePerNight: 280.0, Amenities: []string{"WiFi", "Desk", "TV", "Meeting Area"}, Available: true},
		{ID: "room_5_1", HotelID: "hotel_5", RoomType: "Classic", Capacity: 2, PricePerNight: 160.0, Amenities: []string{"WiFi", "Antique Furniture"}, Available: true},
		{ID: "room_6_1", HotelID: "hotel_6", RoomType: "Ocean View", Capacity: 2, PricePerNight: 190.0, Amenities: []string{"WiFi", "TV", "Ocean View", "Balcony"}, Available: true},
		{ID: "room_6_2", HotelID: "hotel_6", RoomType: "Beach Suite", Capacity: 4, PricePerNight: 290.0, Amenities: []string{"WiFi", "TV", "Ocean View", "Balcony", "Kitchenette"}, Available: true},
		{ID: "room_7_1", HotelID: "hotel_7", RoomType: "Bay View", Capacity: 2, PricePerNight: 170.0, Amenities: []string{"WiFi", "TV", "Bay View"}, Available: true},
		{ID: "room_7_2", HotelID: "hotel_7", RoomType: "Premium Bay", Capacity: 3, PricePerNight: 220.0, Amenities: []string{"WiFi", "TV", "Bay View", "Mini Bar"}, Available: true},
		{ID: "room_8_1", HotelID: "hotel_8", RoomType: "Standard", Capacity: 2, PricePerNight: 150.0, Amenities: []string{"WiFi", "TV"}, Available: true},
		{ID: "room_8_2", HotelID: "hotel_8", RoomType: "Beach Side", Capacity: 4, PricePerNight: 180.0, Amenities: []string{"WiFi", "TV", "Beach View"}, Available: true},
		{ID: "room_9_1", HotelID: "hotel_9", RoomType: "Economy", Capacity: 2, PricePerNight: 85.0, Amenities: []string{"WiFi", "TV"}, Available: true},
		{ID: "room_9_2", HotelID: "hotel_9", RoomType: "Beachfront", Capacity: 3, PricePerNight: 95.0, Amenities: []string{"WiFi", "TV", "Beach View"}, Available: true},
		{ID: "room_10_1", HotelID: "hotel_10", RoomType: "Dorm Bed", Capacity: 1, PricePerNight: 75.0, Amenities: []string{"WiFi", "Shared Bathroom"}, Available: true},
		{ID: "room_10_2", HotelID: "hotel_10", RoomType: "Private Room", Capacity: 2, PricePerNight: 90.0, Amenities: []string{"WiFi", "Private Bathroom"}, Available: true},
		{ID: "room_11_1", HotelID: "hotel_11", RoomType: "Standard", Capacity: 2, PricePerNight: 95.0, Amenities: []string{"WiFi", "TV", "Ocean View"}, Available: true},
		{ID: "room_11_2", HotelID: "hotel_11", RoomType: "Deluxe Ocean", Capacity: 3, PricePerNight: 110.0, Amenities: []string{"WiFi", "TV", "Ocean View", "Balcony"}, Available: true},
	}
}

func seedBookings() []Booking {
	return []Booking{
		{
			ID: "booking_001", HotelID: "hotel_1", RoomID: "room_1_1",
			GuestName: "John Smith", GuestEmail: "john.smith@email.com",
			CheckIn: "2024-12-20", CheckOut: "2024-12-23",
			TotalPrice: 750.0, Status: BookingStatusConfirmed,
		},
		{
			ID: "booking_002", HotelID: "hotel_2", RoomID: "room_2_1",
			GuestName: "Sarah Johnson", GuestEmail: "sarah.j@email.com",
			CheckIn: "2024-12-25", CheckOut: "2024-12-27",
			TotalPrice: 360.0, Status: BookingStatusConfirmed,
		},
		{
			ID: "booking_003", HotelID: "hotel_6", RoomID: "room_6_1",
			GuestName: "Mike Davis", GuestEmail: "mike.davis@email.com",
			CheckIn: "2025-01-15", CheckOut: "2025-01-18",
			TotalPrice: 570.0, Status: BookingStatusConfirmed,
		},
		{
			ID: "booking_004", HotelID: "hotel_7", RoomID: "room_7_1",
			GuestName: "Emma Wilson", GuestEmail: "emma.wilson@email.com",
			CheckIn: "2025-02-10", CheckOut: "2025-02-12",
			TotalPrice: 340.0, Status: BookingStatusPending,
		},
		{
			ID: "booking_005", HotelID: "hotel_9", RoomID: "room_9_1",
			GuestName: "David Brown", GuestEmail: "david.brown@email.com",
			CheckIn: "2024-12-30", CheckOut: "2025-01-02",
			TotalPrice: 255.0, Status: BookingStatusConfirmed,
		},
	}
}
