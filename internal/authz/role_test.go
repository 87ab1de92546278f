package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIsTotal(t *testing.T) {
	seenLevels := make(map[int]Role)
	for _, role := range AllRoles() {
		meta, ok := MetaFor(role)
		require.True(t, ok, "role %s has no metadata", role)
		assert.NotEmpty(t, meta.Label, "role %s has no label", role)
		assert.NotEmpty(t, meta.DefaultRoute, "role %s has no default route", role)

		level := Level(string(role))
		require.Greater(t, level, 0, "role %s has no hierarchy level", role)
		if prev, dup := seenLevels[level]; dup {
			t.Fatalf("roles %s and %s share level %d", prev, role, level)
		}
		seenLevels[level] = role

		perms := DefaultPermissions(role)
		require.NotEmpty(t, perms, "role %s has an empty static permission set", role)
		for _, p := range perms {
			assert.True(t, IsKnown(p), "role %s grants unknown permission %s", role, p)
		}
	}
}

func TestAllRolesOrderedBySeniority(t *testing.T) {
	roles := AllRoles()
	for i := 1; i < len(roles); i++ {
		assert.Greater(t, Level(string(roles[i-1])), Level(string(roles[i])),
			"%s should outrank %s", roles[i-1], roles[i])
	}
}

func TestIsBuiltIn(t *testing.T) {
	assert.True(t, IsBuiltIn("SENIOR_ADMIN"))
	assert.True(t, IsBuiltIn("TENANT"))
	assert.False(t, IsBuiltIn("PROJECT_COORDINATOR"))
	assert.False(t, IsBuiltIn(""))
	// The legacy alias is not a catalog role; it only normalizes for
	// hierarchy checks.
	assert.False(t, IsBuiltIn("ADMIN"))
}

func TestStaticMatrixReturnsFreshCopies(t *testing.T) {
	first := StaticMatrix()
	delete(first, string(RoleSeniorAdmin))
	second := StaticMatrix()
	assert.Contains(t, second, string(RoleSeniorAdmin))
}

func TestAliasesResolveToCatalogValues(t *testing.T) {
	assert.Equal(t, PermManageAllEmployees, Canonical("MANAGE_EMPLOYEES"))
	assert.Equal(t, PermViewAllEmployees, Canonical("VIEW_EMPLOYEES"))
	assert.Equal(t, PermManageAccounts, Canonical("MANAGE_FINANCES"))
	assert.Equal(t, PermViewDashboard, Canonical(PermViewDashboard))
	assert.True(t, IsKnown("MANAGE_EMPLOYEES"))
	assert.False(t, IsKnown("NOT_A_PERMISSION"))
}
