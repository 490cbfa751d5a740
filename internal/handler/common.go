// Package handler exposes the HTTP handlers. Each handler struct
// bundles the stores it needs behind small interfaces so tests can
// substitute fakes; the repository types satisfy them.
package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/flatmate/flatmate-backend/internal/middleware"
	"github.com/flatmate/flatmate-backend/internal/model"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// currentUser returns the identity resolved by the auth middleware.
func currentUser(c echo.Context) (model.User, bool) {
	return middleware.CurrentUser(c)
}

// canModify implements the recurring ownership rule: a resource may be
// mutated by its owner or by an admin, nobody else.
func canModify(u model.User, ownerID uint64) bool {
	return u.ID == ownerID || u.Role == model.RoleAdmin
}

// ListingGetter is the read side shared by the booking and moderation
// handlers.
type ListingGetter interface {
	GetByID(ctx context.Context, id uint64) (model.Listing, error)
}

// ----- response views -----

// userView is the public shape of a user. The password hash is never
// part of any response.
type userView struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func newUserView(u model.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role}
}

type listingView struct {
	ID                uint64     `json:"id"`
	HostID            uint64     `json:"host_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Price             float64    `json:"price"`
	City              string     `json:"city"`
	Locality          string     `json:"locality"`
	Type              string     `json:"type"`
	Gender            string     `json:"gender"`
	Images            []string   `json:"images"`
	IsActive          bool       `json:"is_active"`
	ApprovalStatus    string     `json:"approval_status"`
	ApprovedAt        *time.Time `json:"approved_at"`
	ApprovedByAdminID *uint64    `json:"approved_by_admin_id"`
	CreatedAt         time.Time  `json:"created_at"`
}

func newListingView(l model.Listing) listingView {
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return listingView{
		ID:                l.ID,
		HostID:            l.HostID,
		Title:             l.Title,
		Description:       l.Description,
		Price:             l.Price,
		City:              l.City,
		Locality:          l.Locality,
		Type:              l.Type,
		Gender:            l.Gender,
		Images:            images,
		IsActive:          l.IsActive,
		ApprovalStatus:    l.ApprovalStatus,
		ApprovedAt:        l.ApprovedAt,
		ApprovedByAdminID: l.ApprovedByAdminID,
		CreatedAt:         l.CreatedAt,
	}
}

func newListingViews(ls []model.Listing) []listingView {
	out := make([]listingView, 0, len(ls))
	for _, l := range ls {
		out = append(out, newListingView(l))
	}
	return out
}

type bookingView struct {
	ID        uint64    `json:"id"`
	ListingID uint64    `json:"listing_id"`
	UserID    uint64    `json:"user_id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func newBookingView(b model.Booking) bookingView {
	return bookingView{
		ID:        b.ID,
		ListingID: b.ListingID,
		UserID:    b.UserID,
		StartDate: b.StartDate.Format("2006-01-02"),
		EndDate:   b.EndDate.Format("2006-01-02"),
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
	}
}

func newBookingViews(bs []model.Booking) []bookingView {
	out := make([]bookingView, 0, len(bs))
	for _, b := range bs {
		out = append(out, newBookingView(b))
	}
	return out
}
