package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/queue"
	"github.com/flatmate/flatmate-backend/internal/repository"
	queue_publisher "github.com/flatmate/flatmate-backend/internal/service"
)

// AdminUserStore is the user administration surface.
type AdminUserStore interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateRole(ctx context.Context, id uint64, role string) error
	Count(ctx context.Context) (int64, error)
}

// AdminListingStore is the moderation surface over listings.
type AdminListingStore interface {
	ListAll(ctx context.Context) ([]repository.ListingWithHost, error)
	ListPending(ctx context.Context) ([]repository.ListingWithHost, error)
	Approve(ctx context.Context, id, adminID uint64) (model.Listing, error)
	Reject(ctx context.Context, id, adminID uint64) (model.Listing, error)
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int64, error)
}

// Counter reports a table's row count; the stats endpoint uses it for
// bookings so it does not need the whole booking store.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// AdminHandler serves the admin panel: platform stats, user role
// management and the listing moderation queue. Every route is behind
// RequireRole("admin").
type AdminHandler struct {
	Users    AdminUserStore
	Listings AdminListingStore
	Bookings Counter
}

func NewAdminHandler(users AdminUserStore, listings AdminListingStore, bookings Counter) *AdminHandler {
	return &AdminHandler{Users: users, Listings: listings, Bookings: bookings}
}

// Stats returns platform-wide row counts for the dashboard header.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	listings, err := h.Listings.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	bookings, err := h.Bookings.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"users":    users,
		"listings": listings,
		"bookings": bookings,
	})
}

// ListUsers returns every registered user.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	us, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	views := make([]userView, 0, len(us))
	for _, u := range us {
		views = append(views, newUserView(u))
	}
	return c.JSON(http.StatusOK, views)
}

type roleUpdateReq struct {
	Role string `json:"role"`
}

// UpdateRole changes a user's role to user, host or admin.
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req roleUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateRole(ctx, id, req.Role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update role failed"})
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, newUserView(u))
}

// listingWithHostView adds the host's public fields to a listing for
// the admin review screens.
type listingWithHostView struct {
	listingView
	HostName  string `json:"host_name"`
	HostEmail string `json:"host_email"`
}

func newListingWithHostViews(ls []repository.ListingWithHost) []listingWithHostView {
	out := make([]listingWithHostView, 0, len(ls))
	for _, l := range ls {
		out = append(out, listingWithHostView{
			listingView: newListingView(l.Listing),
			HostName:    l.HostName,
			HostEmail:   l.HostEmail,
		})
	}
	return out
}

// AllListings returns every listing of any moderation status.
func (h *AdminHandler) AllListings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ls, err := h.Listings.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, newListingWithHostViews(ls))
}

// PendingListings returns the moderation queue.
func (h *AdminHandler) PendingListings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ls, err := h.Listings.ListPending(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, newListingWithHostViews(ls))
}

// Approve moves a listing to approved. The transition is valid from
// any prior status, so an admin can reverse a rejection directly.
func (h *AdminHandler) Approve(c echo.Context) error {
	return h.moderate(c, h.Listings.Approve)
}

// Reject moves a listing to rejected, also valid from any prior status.
func (h *AdminHandler) Reject(c echo.Context) error {
	return h.moderate(c, h.Listings.Reject)
}

func (h *AdminHandler) moderate(c echo.Context, apply func(ctx context.Context, id, adminID uint64) (model.Listing, error)) error {
	admin, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := apply(ctx, id, admin.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "moderation failed"})
	}

	// Notify asynchronously; a broker outage never fails the decision.
	go func(l model.Listing, adminID uint64) {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishListingModerated(pubCtx, queue.ListingModeratedEvent{
			ListingID: l.ID,
			HostID:    l.HostID,
			AdminID:   adminID,
			Title:     l.Title,
			City:      l.City,
			Status:    l.ApprovalStatus,
			ActedAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}(l, admin.ID)

	return c.JSON(http.StatusOK, newListingView(l))
}

// DeleteListing removes any listing regardless of owner.
func (h *AdminHandler) DeleteListing(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Listings.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete listing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
