// Package queue defines the message payloads exchanged over the
// broker and the background consumer that turns moderation events into
// an audit log.
package queue

// ListingModeratedEvent is published whenever an admin approves or
// rejects a listing. It carries enough context for downstream
// consumers (audit log, notifications) without querying the database.
type ListingModeratedEvent struct {
	ListingID uint64 `json:"listing_id"`
	HostID    uint64 `json:"host_id"`
	AdminID   uint64 `json:"admin_id"`
	Title     string `json:"title"`
	City      string `json:"city"`
	Status    string `json:"status"` // approved | rejected
	ActedAt   string `json:"acted_at"`
}

// BookingCreatedEvent is published when a guest books a listing.
type BookingCreatedEvent struct {
	BookingID uint64 `json:"booking_id"`
	ListingID uint64 `json:"listing_id"`
	UserID    uint64 `json:"user_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	CreatedAt string `json:"created_at"`
}
