package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/queue"
	"github.com/flatmate/flatmate-backend/internal/repository"
	queue_publisher "github.com/flatmate/flatmate-backend/internal/service"
)

// BookingStore is the persistence surface of the booking endpoints.
type BookingStore interface {
	Create(ctx context.Context, userID, listingID uint64, start, end string) (model.Booking, error)
	ListForUser(ctx context.Context, userID uint64) ([]model.Booking, error)
}

// BookingHandler lets an authenticated user request a stay and review
// their own requests.
type BookingHandler struct {
	Bookings BookingStore
	Listings ListingGetter
}

func NewBookingHandler(bookings BookingStore, listings ListingGetter) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Listings: listings}
}

const dateLayout = "2006-01-02"

type bookingReq struct {
	ListingID uint64 `json:"listing_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Create records a booking request against a listing. Dates must be
// well formed, ordered and not in the past; the listing must exist.
// The booking stays pending, and overlapping requests are allowed.
func (h *BookingHandler) Create(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ListingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "listing_id required"})
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date before start_date"})
	}
	today, _ := time.Parse(dateLayout, time.Now().UTC().Format(dateLayout))
	if start.Before(today) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date in the past"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Listings.GetByID(ctx, req.ListingID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	b, err := h.Bookings.Create(ctx, u.ID, req.ListingID, req.StartDate, req.EndDate)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}

	// Notify asynchronously; a broker outage never fails the booking.
	go func(b model.Booking) {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishBookingCreated(pubCtx, queue.BookingCreatedEvent{
			BookingID: b.ID,
			ListingID: b.ListingID,
			UserID:    b.UserID,
			StartDate: b.StartDate.Format(dateLayout),
			EndDate:   b.EndDate.Format(dateLayout),
			CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
		})
	}(b)

	return c.JSON(http.StatusCreated, newBookingView(b))
}

// Mine lists the caller's own booking requests, newest first.
func (h *BookingHandler) Mine(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	bs, err := h.Bookings.ListForUser(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, newBookingViews(bs))
}
