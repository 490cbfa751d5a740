package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/repository"
)

// PublicListingStore is the read surface behind the unauthenticated
// search endpoints.
type PublicListingStore interface {
	ListPublic(ctx context.Context, f repository.ListingFilter) ([]model.Listing, int64, error)
	ListCities(ctx context.Context) ([]model.CityCount, error)
	GetByID(ctx context.Context, id uint64) (model.Listing, error)
}

// UserGetter loads a user by id; the detail endpoint uses it to attach
// the host's contact info for authenticated viewers.
type UserGetter interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// PublicHandler serves the browse/search endpoints. They sit behind
// OptionalAuthenticate: anonymous callers get the plain listing,
// authenticated ones additionally get contact and action hints.
type PublicHandler struct {
	Listings PublicListingStore
	Users    UserGetter
}

func NewPublicHandler(listings PublicListingStore, users UserGetter) *PublicHandler {
	return &PublicHandler{Listings: listings, Users: users}
}

// Cities returns the cities that currently have visible listings,
// busiest first.
func (h *PublicHandler) Cities(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	cities, err := h.Listings.ListCities(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, cities)
}

// List searches publicly visible listings. Pending and rejected
// listings never appear here no matter what filters are passed.
func (h *PublicHandler) List(c echo.Context) error {
	f := repository.ListingFilter{
		City:   c.QueryParam("city"),
		Type:   c.QueryParam("type"),
		Gender: c.QueryParam("gender"),
		Sort:   c.QueryParam("sort"),
	}
	if v := c.QueryParam("min_price"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinPrice = &p
		}
	}
	if v := c.QueryParam("max_price"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = &p
		}
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.PerPage, _ = strconv.Atoi(c.QueryParam("per_page"))
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 20
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, total, err := h.Listings.ListPublic(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"items":    newListingViews(items),
			"total":    total,
			"page":     f.Page,
			"per_page": f.PerPage,
		},
	})
}

// listingDetailView extends the listing with viewer-dependent fields.
type listingDetailView struct {
	listingView
	OwnerPhone *string `json:"owner_phone"`
	CanChat    bool    `json:"can_chat"`
	CanBook    bool    `json:"can_book"`
}

// Detail returns a single listing by id. A listing already known by id
// is retrievable regardless of its moderation status; moderation only
// gates discovery through List and Cities.
func (h *PublicHandler) Detail(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	view := listingDetailView{listingView: newListingView(l)}
	if u, ok := currentUser(c); ok {
		notOwner := u.ID != l.HostID
		view.CanChat = notOwner
		view.CanBook = notOwner
		if host, err := h.Users.GetByID(ctx, l.HostID); err == nil {
			view.OwnerPhone = &host.Phone
		}
	}
	return c.JSON(http.StatusOK, view)
}
