package handraise_test

import (
	"testing"

	"github.com/handraise/handraise"
	"github.com/stretchr/testify/assert"
)

func TestIsValidRole(t *testing.T) {
	assert.True(t, handraise.IsValidRole(handraise.RoleVolunteer))
	assert.True(t, handraise.IsValidRole(handraise.RoleCharityAdmin))
	assert.True(t, handraise.IsValidRole(handraise.RoleAdmin))
	assert.False(t, handraise.IsValidRole("superuser"))
	assert.False(t, handraise.IsValidRole(""))
}

func TestRoleIsAtLeast(t *testing.T) {
	cases := []struct {
		role     handraise.UserRole
		minRole  handraise.UserRole
		expected bool
	}{
		{handraise.RoleVolunteer, handraise.RoleVolunteer, true},
		{handraise.RoleVolunteer, handraise.RoleCharityAdmin, false},
		{handraise.RoleVolunteer, handraise.RoleAdmin, false},
		{handraise.RoleCharityAdmin, handraise.RoleVolunteer, true},
		{handraise.RoleCharityAdmin, handraise.RoleCharityAdmin, true},
		{handraise.RoleCharityAdmin, handraise.RoleAdmin, false},
		{handraise.RoleAdmin, handraise.RoleVolunteer, true},
		{handraise.RoleAdmin, handraise.RoleAdmin, true},
		{"unknown", handraise.RoleVolunteer, false},
		{handraise.RoleAdmin, "unknown", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, handraise.RoleIsAtLeast(tc.role, tc.minRole),
			"role=%s min=%s", tc.role, tc.minRole)
	}
}

func TestRoleIn(t *testing.T) {
	allowed := []handraise.UserRole{handraise.RoleCharityAdmin, handraise.RoleAdmin}

	assert.True(t, handraise.RoleIn(handraise.RoleAdmin, allowed...))
	assert.True(t, handraise.RoleIn(handraise.RoleCharityAdmin, allowed...))
	assert.False(t, handraise.RoleIn(handraise.RoleVolunteer, allowed...))
	assert.False(t, handraise.RoleIn(handraise.RoleVolunteer))
}

func TestParseRole(t *testing.T) {
	role, ok := handraise.ParseRole("charity_admin")
	assert.True(t, ok)
	assert.Equal(t, handraise.RoleCharityAdmin, role)

	_, ok = handraise.ParseRole("root")
	assert.False(t, ok)
}

func TestGetAllRoles(t *testing.T) {
	roles := handraise.GetAllRoles()
	assert.Equal(t, []handraise.UserRole{
		handraise.RoleVolunteer,
		handraise.RoleCharityAdmin,
		handraise.RoleAdmin,
	}, roles)
}
