package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/flatmate/flatmate-backend/internal/middleware"
	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/repository"
	"github.com/flatmate/flatmate-backend/internal/utils"
)

// In-memory fakes standing in for the repository types. They implement
// the same store interfaces the handlers consume, so handler behavior
// is testable without a database.

type fakeUsers struct {
	byID   map[uint64]model.User
	nextID uint64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uint64]model.User{}}
}

func (f *fakeUsers) add(u model.User) model.User {
	if u.ID == 0 {
		f.nextID++
		u.ID = f.nextID
	} else if u.ID > f.nextID {
		f.nextID = u.ID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, name, email, phone, password string, cost int) (uint64, error) {
	email = strings.ToLower(email)
	for _, u := range f.byID {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	u := f.add(model.User{Name: name, Email: email, Phone: phone, PasswordHash: hash, Role: model.RoleUser})
	return u.ID, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.byID {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) List(_ context.Context) ([]model.User, error) {
	ids := make([]uint64, 0, len(f.byID))
	for id := range f.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]model.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.byID[id])
	}
	return out, nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id uint64, role string) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) Count(_ context.Context) (int64, error) {
	return int64(len(f.byID)), nil
}

type openedSession struct {
	userID uint64
	token  string
}

type fakeSessions struct {
	opened  []openedSession
	revoked []string
	openErr error
}

func (f *fakeSessions) Open(_ context.Context, userID uint64, rawToken string) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = append(f.opened, openedSession{userID: userID, token: rawToken})
	return nil
}

func (f *fakeSessions) Revoke(_ context.Context, rawToken string) error {
	f.revoked = append(f.revoked, rawToken)
	return nil
}

type fakeListings struct {
	byID   map[uint64]model.Listing
	nextID uint64
}

func newFakeListings() *fakeListings {
	return &fakeListings{byID: map[uint64]model.Listing{}}
}

func (f *fakeListings) add(l model.Listing) model.Listing {
	if l.ID == 0 {
		f.nextID++
		l.ID = f.nextID
	} else if l.ID > f.nextID {
		f.nextID = l.ID
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	f.byID[l.ID] = l
	return l
}

func (f *fakeListings) sorted(keep func(model.Listing) bool) []model.Listing {
	out := []model.Listing{}
	for _, l := range f.byID {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakeListings) Create(_ context.Context, l model.Listing) (model.Listing, error) {
	l.ApprovalStatus = model.StatusPending
	l.ApprovedAt = nil
	l.ApprovedByAdminID = nil
	return f.add(l), nil
}

func (f *fakeListings) GetByID(_ context.Context, id uint64) (model.Listing, error) {
	l, ok := f.byID[id]
	if !ok {
		return model.Listing{}, repository.ErrNotFound
	}
	return l, nil
}

func (f *fakeListings) Update(_ context.Context, l model.Listing) error {
	cur, ok := f.byID[l.ID]
	if !ok {
		return repository.ErrNotFound
	}
	// Content fields only; moderation state is owned by Approve/Reject.
	cur.Title = l.Title
	cur.Description = l.Description
	cur.Price = l.Price
	cur.City = l.City
	cur.Locality = l.Locality
	cur.Type = l.Type
	cur.Gender = l.Gender
	cur.Images = l.Images
	cur.IsActive = l.IsActive
	f.byID[l.ID] = cur
	return nil
}

func (f *fakeListings) Delete(_ context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeListings) ListPublic(_ context.Context, filter repository.ListingFilter) ([]model.Listing, int64, error) {
	items := f.sorted(func(l model.Listing) bool {
		if !l.PubliclyVisible() {
			return false
		}
		if filter.City != "" && l.City != filter.City {
			return false
		}
		return true
	})
	return items, int64(len(items)), nil
}

func (f *fakeListings) ListCities(_ context.Context) ([]model.CityCount, error) {
	counts := map[string]int64{}
	for _, l := range f.byID {
		if l.PubliclyVisible() && l.City != "" {
			counts[l.City]++
		}
	}
	out := []model.CityCount{}
	for city, n := range counts {
		out = append(out, model.CityCount{City: city, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

func (f *fakeListings) ListForHost(_ context.Context, hostID uint64) ([]model.Listing, error) {
	return f.sorted(func(l model.Listing) bool { return l.HostID == hostID }), nil
}

func (f *fakeListings) withHost(ls []model.Listing) []repository.ListingWithHost {
	out := make([]repository.ListingWithHost, 0, len(ls))
	for _, l := range ls {
		out = append(out, repository.ListingWithHost{Listing: l})
	}
	return out
}

func (f *fakeListings) ListAll(_ context.Context) ([]repository.ListingWithHost, error) {
	return f.withHost(f.sorted(func(model.Listing) bool { return true })), nil
}

func (f *fakeListings) ListPending(_ context.Context) ([]repository.ListingWithHost, error) {
	return f.withHost(f.sorted(func(l model.Listing) bool { return l.ApprovalStatus == model.StatusPending })), nil
}

func (f *fakeListings) Approve(_ context.Context, id, adminID uint64) (model.Listing, error) {
	l, ok := f.byID[id]
	if !ok {
		return model.Listing{}, repository.ErrNotFound
	}
	now := time.Now().UTC()
	l.ApprovalStatus = model.StatusApproved
	l.ApprovedAt = &now
	l.ApprovedByAdminID = &adminID
	f.byID[id] = l
	return l, nil
}

func (f *fakeListings) Reject(_ context.Context, id, adminID uint64) (model.Listing, error) {
	l, ok := f.byID[id]
	if !ok {
		return model.Listing{}, repository.ErrNotFound
	}
	l.ApprovalStatus = model.StatusRejected
	l.ApprovedAt = nil
	l.ApprovedByAdminID = &adminID
	f.byID[id] = l
	return l, nil
}

func (f *fakeListings) Count(_ context.Context) (int64, error) {
	return int64(len(f.byID)), nil
}

type fakeBookings struct {
	byID   map[uint64]model.Booking
	nextID uint64
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{byID: map[uint64]model.Booking{}}
}

func (f *fakeBookings) Create(_ context.Context, userID, listingID uint64, start, end string) (model.Booking, error) {
	startAt, err := time.Parse("2006-01-02", start)
	if err != nil {
		return model.Booking{}, err
	}
	endAt, err := time.Parse("2006-01-02", end)
	if err != nil {
		return model.Booking{}, err
	}
	f.nextID++
	b := model.Booking{
		ID:        f.nextID,
		UserID:    userID,
		ListingID: listingID,
		StartDate: startAt,
		EndDate:   endAt,
		Status:    model.BookingStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	f.byID[b.ID] = b
	return b, nil
}

func (f *fakeBookings) ListForUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	out := []model.Booking{}
	for _, b := range f.byID {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeBookings) ListForHost(context.Context, uint64) ([]model.Booking, error) {
	return nil, nil
}

func (f *fakeBookings) Count(_ context.Context) (int64, error) {
	return int64(len(f.byID)), nil
}

func nowPtr() *time.Time {
	now := time.Now().UTC()
	return &now
}

func idString(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// ----- request plumbing -----

func jsonRequest(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// asUser injects an authenticated identity the way Authenticate would.
func asUser(c echo.Context, u model.User) {
	c.Set(middleware.CtxUser, u)
	c.Set(middleware.CtxUserID, u.ID)
	c.Set(middleware.CtxRole, u.Role)
}

// testBcryptCost keeps the password hashing in tests fast.
const testBcryptCost = bcrypt.MinCost

func hashedUser(t *testing.T, id uint64, email, password, role string) model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, testBcryptCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return model.User{ID: id, Name: "User " + email, Email: email, PasswordHash: hash, Role: role}
}
