package model

import "time"

// BookingStatusPending is the status assigned to every new booking.
const BookingStatusPending = "pending"

// Booking represents a guest's booking of a listing, stored in the
// `bookings` table. Date ranges are captured as-is; overlapping
// bookings for the same listing are allowed.
type Booking struct {
	ID        uint64    // bookings.id
	UserID    uint64    // bookings.user_id
	ListingID uint64    // bookings.listing_id
	StartDate time.Time // bookings.start_date (DATE)
	EndDate   time.Time // bookings.end_date (DATE)
	Status    string    // bookings.status
	CreatedAt time.Time // bookings.created_at
}
