package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/flatmate/flatmate-backend/internal/model"
)

// ListingRepo persists listings and owns the moderation transitions.
type ListingRepo struct{ DB *sql.DB }

func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{DB: db} }

const listingCols = "id, host_id, title, description, price, city, locality, type, gender, images, is_active, approval_status, approved_at, approved_by_admin_id, created_at"

// visibleWhere is the public visibility predicate. Search-style reads
// apply it; GetByID deliberately does not, so an already-known id can
// retrieve a pending or rejected listing.
const visibleWhere = "is_active=1 AND approval_status='approved'"

// ListingFilter narrows and orders public search results.
type ListingFilter struct {
	City     string
	MinPrice *float64
	MaxPrice *float64
	Type     string
	Gender   string
	Sort     string // "price_asc" | "price_desc" | anything else = recent first
	Page     int    // 1-based
	PerPage  int
}

// ListingWithHost is a listing joined with the public fields of its
// host, used by the admin review screens.
type ListingWithHost struct {
	model.Listing
	HostName  string
	HostEmail string
}

// Create inserts a listing for the host. The approval status is always
// forced to pending regardless of what the caller put in l, so a
// client can never self-approve.
func (r *ListingRepo) Create(ctx context.Context, l model.Listing) (model.Listing, error) {
	images, err := imagesJSON(l.Images)
	if err != nil {
		return model.Listing{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO listings (host_id, title, description, price, city, locality, type, gender, images, is_active, approval_status)
		 VALUES (?,?,?,?,?,?,?,?,?,1,?)`,
		l.HostID, l.Title, l.Description, l.Price, l.City, l.Locality, l.Type, l.Gender, images, model.StatusPending)
	if err != nil {
		return model.Listing{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Listing{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a listing by id with no visibility filtering.
func (r *ListingRepo) GetByID(ctx context.Context, id uint64) (model.Listing, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+listingCols+" FROM listings WHERE id=? LIMIT 1", id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Listing{}, ErrNotFound
	}
	return l, err
}

// Update overwrites the mutable content fields of a listing. The
// moderation fields are untouched; only Approve/Reject change those.
func (r *ListingRepo) Update(ctx context.Context, l model.Listing) error {
	images, err := imagesJSON(l.Images)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE listings SET title=?, description=?, price=?, city=?, locality=?, type=?, gender=?, images=?, is_active=?
		 WHERE id=?`,
		l.Title, l.Description, l.Price, l.City, l.Locality, l.Type, l.Gender, images, l.IsActive, l.ID)
	if err != nil {
		return err
	}
	return notFoundIfZero(res)
}

// Delete removes a listing permanently. Bookings cascade in the schema.
func (r *ListingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM listings WHERE id=?", id)
	if err != nil {
		return err
	}
	return notFoundIfZero(res)
}

// ListPublic returns one page of publicly visible listings matching
// the filter plus the total match count for pagination.
func (r *ListingRepo) ListPublic(ctx context.Context, f ListingFilter) ([]model.Listing, int64, error) {
	where := visibleWhere
	args := []interface{}{}
	if f.City != "" {
		where += " AND city=?"
		args = append(args, f.City)
	}
	if f.MinPrice != nil {
		where += " AND price>=?"
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where += " AND price<=?"
		args = append(args, *f.MaxPrice)
	}
	if f.Type != "" {
		where += " AND type=?"
		args = append(args, f.Type)
	}
	if f.Gender != "" {
		where += " AND gender=?"
		args = append(args, f.Gender)
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM listings WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "id DESC"
	switch f.Sort {
	case "price_asc":
		order = "price ASC"
	case "price_desc":
		order = "price DESC"
	}

	page, perPage := f.Page, f.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+listingCols+" FROM listings WHERE "+where+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := collectListings(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListCities aggregates publicly visible listings per city, most
// populated city first.
func (r *ListingRepo) ListCities(ctx context.Context) ([]model.CityCount, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT city, COUNT(*) FROM listings
		 WHERE `+visibleWhere+` AND city <> ''
		 GROUP BY city ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CityCount{}
	for rows.Next() {
		var c model.CityCount
		if err := rows.Scan(&c.City, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListForHost returns all of a host's listings regardless of status so
// the host dashboard can show pending and rejected ones too.
func (r *ListingRepo) ListForHost(ctx context.Context, hostID uint64) ([]model.Listing, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+listingCols+" FROM listings WHERE host_id=? ORDER BY id DESC", hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectListings(rows)
}

// ListAll returns every listing of any status joined with its host,
// newest first. Admin only.
func (r *ListingRepo) ListAll(ctx context.Context) ([]ListingWithHost, error) {
	return r.listWithHost(ctx, "")
}

// ListPending returns only pending listings joined with their hosts,
// for the admin review queue.
func (r *ListingRepo) ListPending(ctx context.Context) ([]ListingWithHost, error) {
	return r.listWithHost(ctx, "WHERE l.approval_status='pending'")
}

func (r *ListingRepo) listWithHost(ctx context.Context, where string) ([]ListingWithHost, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT l.id, l.host_id, l.title, l.description, l.price, l.city, l.locality, l.type, l.gender,
		        l.images, l.is_active, l.approval_status, l.approved_at, l.approved_by_admin_id, l.created_at,
		        u.name, u.email
		 FROM listings l JOIN users u ON u.id = l.host_id `+where+`
		 ORDER BY l.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListingWithHost
	for rows.Next() {
		var (
			lw     ListingWithHost
			desc   sql.NullString
			images []byte
		)
		if err := rows.Scan(&lw.ID, &lw.HostID, &lw.Title, &desc, &lw.Price, &lw.City, &lw.Locality,
			&lw.Type, &lw.Gender, &images, &lw.IsActive, &lw.ApprovalStatus, &lw.ApprovedAt,
			&lw.ApprovedByAdminID, &lw.CreatedAt, &lw.HostName, &lw.HostEmail); err != nil {
			return nil, err
		}
		lw.Description = desc.String
		if err := json.Unmarshal(images, &lw.Images); err != nil {
			lw.Images = nil
		}
		out = append(out, lw)
	}
	return out, rows.Err()
}

// Approve moves the listing to approved from any prior state and
// stamps when and by whom. The transition is total: re-approving an
// approved listing simply refreshes the stamp.
func (r *ListingRepo) Approve(ctx context.Context, id, adminID uint64) (model.Listing, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE listings SET approval_status=?, approved_at=?, approved_by_admin_id=? WHERE id=?",
		model.StatusApproved, time.Now().UTC(), adminID, id)
	if err != nil {
		return model.Listing{}, err
	}
	if err := notFoundIfZeroApprove(ctx, r.DB, res, id); err != nil {
		return model.Listing{}, err
	}
	return r.GetByID(ctx, id)
}

// Reject moves the listing to rejected from any prior state, clearing
// the approval timestamp while keeping the acting admin's id as a
// last-acted-by stamp.
func (r *ListingRepo) Reject(ctx context.Context, id, adminID uint64) (model.Listing, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE listings SET approval_status=?, approved_at=NULL, approved_by_admin_id=? WHERE id=?",
		model.StatusRejected, adminID, id)
	if err != nil {
		return model.Listing{}, err
	}
	if err := notFoundIfZeroApprove(ctx, r.DB, res, id); err != nil {
		return model.Listing{}, err
	}
	return r.GetByID(ctx, id)
}

// Count returns the number of listings of any status.
func (r *ListingRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings").Scan(&n)
	return n, err
}

// ----- scanning helpers -----

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanListing(row rowScanner) (model.Listing, error) {
	var (
		l      model.Listing
		desc   sql.NullString
		images []byte
	)
	err := row.Scan(&l.ID, &l.HostID, &l.Title, &desc, &l.Price, &l.City, &l.Locality,
		&l.Type, &l.Gender, &images, &l.IsActive, &l.ApprovalStatus, &l.ApprovedAt,
		&l.ApprovedByAdminID, &l.CreatedAt)
	if err != nil {
		return model.Listing{}, err
	}
	l.Description = desc.String
	if err := json.Unmarshal(images, &l.Images); err != nil {
		l.Images = nil
	}
	return l, nil
}

func collectListings(rows *sql.Rows) ([]model.Listing, error) {
	var out []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func imagesJSON(images []string) ([]byte, error) {
	if images == nil {
		images = []string{}
	}
	return json.Marshal(images)
}

func notFoundIfZero(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// notFoundIfZeroApprove treats zero affected rows on a moderation
// update as not-found only when the listing truly does not exist; an
// update that changed nothing (same status, same admin, same second)
// is still a success.
func notFoundIfZeroApprove(ctx context.Context, db *sql.DB, res sql.Result, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = db.QueryRowContext(ctx, "SELECT 1 FROM listings WHERE id=? LIMIT 1", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
