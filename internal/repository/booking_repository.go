package repository

import (
	"context"
	"database/sql"

	"github.com/flatmate/flatmate-backend/internal/model"
)

// BookingRepo persists bookings. Overlapping date ranges on the same
// listing are allowed; the repository only captures what was asked.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingCols = "id, user_id, listing_id, start_date, end_date, status, created_at"

// Create inserts a booking with status pending and returns the stored row.
func (r *BookingRepo) Create(ctx context.Context, userID, listingID uint64, start, end string) (model.Booking, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO bookings (user_id, listing_id, start_date, end_date, status) VALUES (?,?,?,?,?)",
		userID, listingID, start, end, model.BookingStatusPending)
	if err != nil {
		return model.Booking{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Booking{}, err
	}
	var b model.Booking
	err = r.DB.QueryRowContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE id=? LIMIT 1", id).
		Scan(&b.ID, &b.UserID, &b.ListingID, &b.StartDate, &b.EndDate, &b.Status, &b.CreatedAt)
	return b, err
}

// ListForUser returns the caller's bookings, newest first.
func (r *BookingRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return r.list(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE user_id=? ORDER BY id DESC", userID)
}

// ListForHost returns all bookings placed on listings owned by hostID.
func (r *BookingRepo) ListForHost(ctx context.Context, hostID uint64) ([]model.Booking, error) {
	return r.list(ctx,
		`SELECT b.id, b.user_id, b.listing_id, b.start_date, b.end_date, b.status, b.created_at
		 FROM bookings b JOIN listings l ON l.id = b.listing_id
		 WHERE l.host_id=? ORDER BY b.id DESC`, hostID)
}

// Count returns the number of bookings.
func (r *BookingRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings").Scan(&n)
	return n, err
}

func (r *BookingRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Booking, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.ListingID, &b.StartDate, &b.EndDate, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
