package model

import "time"

// Moderation states of a listing. Every new listing starts as pending;
// only approved listings appear in public search results.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Listing represents a rental listing published by a host, stored in
// the `listings` table. Images is a list of URL paths persisted as a
// JSON array in the database.
//
// A listing is publicly discoverable only when IsActive is true AND
// ApprovalStatus is approved. Direct lookup by id deliberately
// bypasses that predicate so a host can always see their own pending
// or rejected listings.
//
// ApprovedAt and ApprovedByAdminID are stamped together on approval.
// On rejection ApprovedAt is cleared while ApprovedByAdminID keeps the
// id of the admin who last acted on the listing.
type Listing struct {
	ID                uint64     // listings.id
	HostID            uint64     // listings.host_id
	Title             string     // listings.title
	Description       string     // listings.description
	Price             float64    // listings.price
	City              string     // listings.city
	Locality          string     // listings.locality
	Type              string     // listings.type (e.g. "Room")
	Gender            string     // listings.gender (e.g. "Any")
	Images            []string   // listings.images (JSON array)
	IsActive          bool       // listings.is_active
	ApprovalStatus    string     // listings.approval_status
	ApprovedAt        *time.Time // listings.approved_at (nullable)
	ApprovedByAdminID *uint64    // listings.approved_by_admin_id (nullable)
	CreatedAt         time.Time  // listings.created_at
}

// PubliclyVisible reports whether the listing may appear in public
// search results and city counts.
func (l Listing) PubliclyVisible() bool {
	return l.IsActive && l.ApprovalStatus == StatusApproved
}

// CityCount is one row of the public city aggregation: a city name
// and how many visible listings it has.
type CityCount struct {
	City  string `json:"city"`
	Count int64  `json:"count"`
}
