package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatmate/flatmate-backend/internal/config"
	"github.com/flatmate/flatmate-backend/internal/model"
)

func hostFixture(t *testing.T) (*HostHandler, *fakeListings) {
	t.Helper()
	listings := newFakeListings()
	cfg := config.Config{UploadDir: t.TempDir()}
	return NewHostHandler(cfg, listings, newFakeBookings()), listings
}

func formRequest(t *testing.T, target string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHostCreateForcesPending(t *testing.T) {
	h, listings := hostFixture(t)
	host := model.User{ID: 1, Role: model.RoleHost}

	form := url.Values{
		"title": {"Sunny 2BHK"},
		"price": {"12500"},
		"city":  {"Pune"},
	}
	c, rec := formRequest(t, "/api/host/properties", form)
	asUser(c, host)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec.Body.String())
	assert.Equal(t, model.StatusPending, body["approval_status"])
	assert.Equal(t, true, body["is_active"])
	assert.Equal(t, []interface{}{}, body["images"])
	require.Len(t, listings.byID, 1)
}

func TestHostCreateValidation(t *testing.T) {
	h, _ := hostFixture(t)
	host := model.User{ID: 1, Role: model.RoleHost}

	t.Run("missing title", func(t *testing.T) {
		c, rec := formRequest(t, "/api/host/properties", url.Values{"price": {"100"}})
		asUser(c, host)
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad price", func(t *testing.T) {
		c, rec := formRequest(t, "/api/host/properties", url.Values{"title": {"x"}, "price": {"-5"}})
		asUser(c, host)
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHostUpdateOwnership(t *testing.T) {
	h, listings := hostFixture(t)
	owner := model.User{ID: 1, Role: model.RoleHost}
	other := model.User{ID: 2, Role: model.RoleHost}
	admin := model.User{ID: 3, Role: model.RoleAdmin}
	l := listings.add(model.Listing{HostID: owner.ID, Title: "Old", Price: 100, IsActive: true, ApprovalStatus: model.StatusApproved})

	update := func(u model.User, body string) int {
		c, rec := jsonRequest(t, http.MethodPut, "/api/host/properties/"+idString(l.ID), body)
		c.SetParamNames("id")
		c.SetParamValues(idString(l.ID))
		asUser(c, u)
		require.NoError(t, h.Update(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, update(other, `{"title":"Hijacked"}`))
	assert.Equal(t, "Old", listings.byID[l.ID].Title)

	assert.Equal(t, http.StatusOK, update(owner, `{"title":"New title"}`))
	assert.Equal(t, "New title", listings.byID[l.ID].Title)
	// Moderation state untouched by a content edit.
	assert.Equal(t, model.StatusApproved, listings.byID[l.ID].ApprovalStatus)

	assert.Equal(t, http.StatusOK, update(admin, `{"title":"Admin edit"}`))
	assert.Equal(t, "Admin edit", listings.byID[l.ID].Title)
}

func TestHostDeleteOwnership(t *testing.T) {
	h, listings := hostFixture(t)
	owner := model.User{ID: 1, Role: model.RoleHost}
	other := model.User{ID: 2, Role: model.RoleHost}
	l := listings.add(model.Listing{HostID: owner.ID, IsActive: true, ApprovalStatus: model.StatusApproved})

	del := func(u model.User) int {
		c, rec := jsonRequest(t, http.MethodDelete, "/api/host/properties/"+idString(l.ID), "")
		c.SetParamNames("id")
		c.SetParamValues(idString(l.ID))
		asUser(c, u)
		require.NoError(t, h.Delete(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, del(other))
	require.Len(t, listings.byID, 1)
	assert.Equal(t, http.StatusOK, del(owner))
	assert.Empty(t, listings.byID)
}

func TestMyListingsIncludesAllStatuses(t *testing.T) {
	h, listings := hostFixture(t)
	host := model.User{ID: 1, Role: model.RoleHost}
	listings.add(model.Listing{HostID: host.ID, ApprovalStatus: model.StatusPending, IsActive: true})
	listings.add(model.Listing{HostID: host.ID, ApprovalStatus: model.StatusRejected, IsActive: true})
	listings.add(model.Listing{HostID: 2, ApprovalStatus: model.StatusApproved, IsActive: true})

	c, rec := jsonRequest(t, http.MethodGet, "/api/host/properties", "")
	asUser(c, host)
	require.NoError(t, h.MyListings(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), model.StatusPending)
	assert.Contains(t, rec.Body.String(), model.StatusRejected)
	assert.NotContains(t, rec.Body.String(), `"host_id":2`)
}
