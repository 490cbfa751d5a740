package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatmate/flatmate-backend/internal/model"
)

func adminFixture(t *testing.T) (*AdminHandler, *fakeUsers, *fakeListings, model.User) {
	t.Helper()
	users := newFakeUsers()
	admin := users.add(model.User{Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin})
	listings := newFakeListings()
	return NewAdminHandler(users, listings, newFakeBookings()), users, listings, admin
}

func moderateRequest(t *testing.T, h func(echo.Context) error, admin model.User, id string) (int, map[string]interface{}) {
	t.Helper()
	c, rec := jsonRequest(t, http.MethodPost, "/api/admin/properties/"+id+"/x", "")
	c.SetParamNames("id")
	c.SetParamValues(id)
	asUser(c, admin)
	require.NoError(t, h(c))
	if rec.Code != http.StatusOK {
		return rec.Code, nil
	}
	return rec.Code, decodeBody(t, rec.Body.String())
}

func TestModerationLifecycle(t *testing.T) {
	h, users, listings, admin := adminFixture(t)
	host := users.add(model.User{Name: "Host", Email: "host@example.com", Role: model.RoleHost})
	l := listings.add(model.Listing{HostID: host.ID, Title: "Flat", City: "Pune", IsActive: true, ApprovalStatus: model.StatusPending})

	// approve: stamps time and admin
	code, body := moderateRequest(t, h.Approve, admin, idString(l.ID))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.StatusApproved, body["approval_status"])
	assert.NotNil(t, body["approved_at"])
	assert.Equal(t, float64(admin.ID), body["approved_by_admin_id"])

	// reject after approval: timestamp cleared, admin kept
	code, body = moderateRequest(t, h.Reject, admin, idString(l.ID))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.StatusRejected, body["approval_status"])
	assert.Nil(t, body["approved_at"])
	assert.Equal(t, float64(admin.ID), body["approved_by_admin_id"])

	// re-approve after rejection is allowed
	code, body = moderateRequest(t, h.Approve, admin, idString(l.ID))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.StatusApproved, body["approval_status"])
	assert.NotNil(t, body["approved_at"])

	// unknown listing
	code, _ = moderateRequest(t, h.Approve, admin, "9999")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPendingQueue(t *testing.T) {
	h, users, listings, admin := adminFixture(t)
	host := users.add(model.User{Role: model.RoleHost})
	pending := listings.add(model.Listing{HostID: host.ID, Title: "Pending", IsActive: true, ApprovalStatus: model.StatusPending})
	listings.add(model.Listing{HostID: host.ID, Title: "Approved", IsActive: true, ApprovalStatus: model.StatusApproved})

	c, rec := jsonRequest(t, http.MethodGet, "/api/admin/properties/pending", "")
	asUser(c, admin)
	require.NoError(t, h.PendingListings(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, float64(pending.ID), out[0]["id"])
}

func TestUpdateRole(t *testing.T) {
	h, users, _, admin := adminFixture(t)
	u := users.add(model.User{Name: "U", Email: "u@example.com", Role: model.RoleUser})

	t.Run("promote to host", func(t *testing.T) {
		c, rec := jsonRequest(t, http.MethodPut, "/api/admin/users/"+idString(u.ID)+"/role", `{"role":"host"}`)
		c.SetParamNames("id")
		c.SetParamValues(idString(u.ID))
		asUser(c, admin)
		require.NoError(t, h.UpdateRole(c))
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec.Body.String())
		assert.Equal(t, model.RoleHost, body["role"])
	})

	t.Run("invalid role", func(t *testing.T) {
		c, rec := jsonRequest(t, http.MethodPut, "/api/admin/users/"+idString(u.ID)+"/role", `{"role":"superuser"}`)
		c.SetParamNames("id")
		c.SetParamValues(idString(u.ID))
		asUser(c, admin)
		require.NoError(t, h.UpdateRole(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		c, rec := jsonRequest(t, http.MethodPut, "/api/admin/users/9999/role", `{"role":"host"}`)
		c.SetParamNames("id")
		c.SetParamValues("9999")
		asUser(c, admin)
		require.NoError(t, h.UpdateRole(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStats(t *testing.T) {
	h, users, listings, admin := adminFixture(t)
	host := users.add(model.User{Role: model.RoleHost})
	listings.add(model.Listing{HostID: host.ID, IsActive: true, ApprovalStatus: model.StatusPending})

	c, rec := jsonRequest(t, http.MethodGet, "/api/admin/stats", "")
	asUser(c, admin)
	require.NoError(t, h.Stats(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"users":2,"listings":1,"bookings":0}`, rec.Body.String())
}

func TestAdminDeleteListing(t *testing.T) {
	h, users, listings, admin := adminFixture(t)
	host := users.add(model.User{Role: model.RoleHost})
	l := listings.add(model.Listing{HostID: host.ID, IsActive: true, ApprovalStatus: model.StatusApproved})

	c, rec := jsonRequest(t, http.MethodDelete, "/api/admin/properties/"+idString(l.ID), "")
	c.SetParamNames("id")
	c.SetParamValues(idString(l.ID))
	asUser(c, admin)
	require.NoError(t, h.DeleteListing(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, listings.byID)
}
