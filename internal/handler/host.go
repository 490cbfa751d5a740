package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/flatmate/flatmate-backend/internal/config"
	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/repository"
)

// HostListingStore is the persistence surface of the host dashboard.
type HostListingStore interface {
	Create(ctx context.Context, l model.Listing) (model.Listing, error)
	GetByID(ctx context.Context, id uint64) (model.Listing, error)
	Update(ctx context.Context, l model.Listing) error
	Delete(ctx context.Context, id uint64) error
	ListForHost(ctx context.Context, hostID uint64) ([]model.Listing, error)
}

// HostBookingStore lists bookings made against a host's listings.
type HostBookingStore interface {
	ListForHost(ctx context.Context, hostID uint64) ([]model.Booking, error)
}

// HostHandler serves the host dashboard: a host manages its own
// listings and sees the bookings made against them. Every mutation is
// owner-or-admin gated.
type HostHandler struct {
	Cfg      config.Config
	Listings HostListingStore
	Bookings HostBookingStore
}

func NewHostHandler(cfg config.Config, listings HostListingStore, bookings HostBookingStore) *HostHandler {
	return &HostHandler{Cfg: cfg, Listings: listings, Bookings: bookings}
}

// MyListings returns all of the caller's listings, pending and
// rejected ones included, so the dashboard can show moderation state.
func (h *HostHandler) MyListings(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ls, err := h.Listings.ListForHost(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, newListingViews(ls))
}

// Create inserts a new listing for the caller. The request is
// multipart: text fields plus zero or more "images" files, which are
// stored under the upload directory. The created listing always starts
// pending; only an admin can make it publicly visible.
func (h *HostHandler) Create(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil || price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price"})
	}

	images := []string{}
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fh := range form.File["images"] {
			url, err := saveUpload(h.Cfg.UploadDir, u.ID, fh)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "image upload failed"})
			}
			images = append(images, url)
		}
	}

	l := model.Listing{
		HostID:      u.ID,
		Title:       title,
		Description: c.FormValue("description"),
		Price:       price,
		City:        strings.TrimSpace(c.FormValue("city")),
		Locality:    strings.TrimSpace(c.FormValue("locality")),
		Type:        c.FormValue("type"),
		Gender:      c.FormValue("gender"),
		Images:      images,
		IsActive:    true,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	created, err := h.Listings.Create(ctx, l)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create listing failed"})
	}
	return c.JSON(http.StatusCreated, newListingView(created))
}

type listingUpdateReq struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	City        *string  `json:"city"`
	Locality    *string  `json:"locality"`
	Type        *string  `json:"type"`
	Gender      *string  `json:"gender"`
	Images      []string `json:"images"`
	IsActive    *bool    `json:"is_active"`
}

// Update overwrites the content fields the caller sent, leaving the
// rest intact. Moderation state is untouched: an edited listing keeps
// its approval status.
func (h *HostHandler) Update(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req listingUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
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
	if !canModify(u, l.HostID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your listing"})
	}

	if req.Title != nil {
		l.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price"})
		}
		l.Price = *req.Price
	}
	if req.City != nil {
		l.City = strings.TrimSpace(*req.City)
	}
	if req.Locality != nil {
		l.Locality = strings.TrimSpace(*req.Locality)
	}
	if req.Type != nil {
		l.Type = *req.Type
	}
	if req.Gender != nil {
		l.Gender = *req.Gender
	}
	if len(req.Images) > 0 {
		// Image URLs accumulate; removal is not part of this endpoint.
		l.Images = append(l.Images, req.Images...)
	}
	if req.IsActive != nil {
		l.IsActive = *req.IsActive
	}

	if err := h.Listings.Update(ctx, l); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update listing failed"})
	}

	updated, err := h.Listings.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, newListingView(updated))
}

// Delete removes the listing permanently; its bookings go with it.
func (h *HostHandler) Delete(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
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
	if !canModify(u, l.HostID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your listing"})
	}

	if err := h.Listings.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete listing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// MyBookings lists bookings made by guests against the caller's
// listings.
func (h *HostHandler) MyBookings(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	bs, err := h.Bookings.ListForHost(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, newBookingViews(bs))
}
