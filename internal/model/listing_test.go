package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPubliclyVisible(t *testing.T) {
	cases := []struct {
		name    string
		active  bool
		status  string
		visible bool
	}{
		{"approved and active", true, StatusApproved, true},
		{"approved but inactive", false, StatusApproved, false},
		{"pending", true, StatusPending, false},
		{"rejected", true, StatusRejected, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := Listing{IsActive: tc.active, ApprovalStatus: tc.status}
			assert.Equal(t, tc.visible, l.PubliclyVisible())
		})
	}
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleUser))
	assert.True(t, ValidRole(RoleHost))
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("owner"))
	assert.False(t, ValidRole("ADMIN"))
}
