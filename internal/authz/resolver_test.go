package authz

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory SettingStore with per-key load counters and
// error injection.
type memStore struct {
	mu       sync.Mutex
	values   map[string]string
	getCalls map[string]int
	getErr   error
}

func newMemStore() *memStore {
	return &memStore{
		values:   make(map[string]string),
		getCalls: make(map[string]int),
	}
}

func (s *memStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls[key]++
	if s.getErr != nil {
		return "", false, s.getErr
	}
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *memStore) Upsert(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *memStore) loads(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCalls[key]
}

func (s *memStore) put(t *testing.T, key string, doc any) {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(context.Background(), key, string(data)))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestResolver(store SettingStore) (*Resolver, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	r := NewResolver(store, slog.New(slog.DiscardHandler), WithClock(clock.Now))
	return r, clock
}

func TestHasPermissionStaticDefaults(t *testing.T) {
	r, _ := newTestResolver(newMemStore())
	ctx := context.Background()

	assert.True(t, r.HasPermission(ctx, "SENIOR_ADMIN", PermManageSystemSettings))
	assert.True(t, r.HasPermission(ctx, "ACCOUNTANT", PermApprovePaymentRequests))
	assert.False(t, r.HasPermission(ctx, "ARTISAN", PermManageAccounts))
}

func TestHasPermissionFailClosedOnUnknownRole(t *testing.T) {
	r, _ := newTestResolver(newMemStore())
	ctx := context.Background()

	for _, p := range AllPermissions() {
		assert.False(t, r.HasPermission(ctx, "NOT_A_REAL_ROLE", p))
	}
	assert.Empty(t, r.PermissionsForRole(ctx, "NOT_A_REAL_ROLE"))
}

func TestAliasEquivalence(t *testing.T) {
	store := newMemStore()
	// Store an override and a custom role using alias identifiers to prove
	// aliases survive the dynamic path as well.
	store.put(t, SettingRolePermissions, map[string][]Permission{
		"ACCOUNTANT": {"MANAGE_FINANCES"},
	})
	store.put(t, SettingCustomRoles, []CustomRole{
		{Name: "HR_CLERK", Label: "HR Clerk", Permissions: []Permission{"MANAGE_EMPLOYEES"}},
	})
	r, _ := newTestResolver(store)
	ctx := context.Background()

	assert.Equal(t,
		r.HasPermission(ctx, "ACCOUNTANT", "MANAGE_FINANCES"),
		r.HasPermission(ctx, "ACCOUNTANT", PermManageAccounts))
	assert.True(t, r.HasPermission(ctx, "ACCOUNTANT", PermManageAccounts))

	assert.True(t, r.HasPermission(ctx, "HR_CLERK", PermManageAllEmployees))
	assert.True(t, r.HasPermission(ctx, "HR_CLERK", "MANAGE_EMPLOYEES"))

	// Alias and canonical answer identically for every built-in role.
	for _, role := range AllRoles() {
		assert.Equal(t,
			StaticHasPermission(string(role), "MANAGE_EMPLOYEES"),
			StaticHasPermission(string(role), PermManageAllEmployees), "role %s", role)
	}
}

func TestCustomRoleCannotShadowBuiltIn(t *testing.T) {
	store := newMemStore()
	store.put(t, SettingCustomRoles, []CustomRole{
		{Name: "SENIOR_ADMIN", Label: "Impostor", Permissions: []Permission{}},
	})
	r, _ := newTestResolver(store)
	ctx := context.Background()

	// The built-in's permissions win; the empty custom set is dropped.
	assert.True(t, r.HasPermission(ctx, "SENIOR_ADMIN", PermManageSystemSettings))
	table := r.EffectiveTable(ctx)
	assert.True(t, table["SENIOR_ADMIN"].Has(PermManageSystemSettings))
}

func TestDynamicOverrideReplacesStaticEntirely(t *testing.T) {
	store := newMemStore()
	store.put(t, SettingRolePermissions, map[string][]Permission{
		"ACCOUNTANT": {PermManageAccounts, PermViewAllInvoices},
	})
	r, _ := newTestResolver(store)
	ctx := context.Background()

	assert.True(t, r.HasPermission(ctx, "ACCOUNTANT", PermManageAccounts))
	// Roles omitted from the override lose their static capability.
	assert.False(t, r.HasPermission(ctx, "SENIOR_ADMIN", PermManageSystemSettings))
	assert.False(t, r.HasPermission(ctx, "MANAGER", PermManageProjects))

	// The static-only variant still answers from the compiled-in matrix.
	assert.True(t, StaticHasPermission("SENIOR_ADMIN", PermManageSystemSettings))
}

func TestCustomRoleLayersOverActiveMatrix(t *testing.T) {
	store := newMemStore()
	store.put(t, SettingCustomRoles, []CustomRole{
		{Name: "PROJECT_COORDINATOR", Label: "Project Coordinator", Permissions: []Permission{PermViewAllProjects}},
	})
	r, _ := newTestResolver(store)
	ctx := context.Background()

	assert.True(t, r.HasPermission(ctx, "PROJECT_COORDINATOR", PermViewAllProjects))
	assert.False(t, r.HasPermission(ctx, "PROJECT_COORDINATOR", PermManageAccounts))

	// Same behavior when a dynamic override is active.
	require.NoError(t, r.UpdateDynamicMatrix(ctx, map[string][]Permission{
		"ACCOUNTANT": {PermManageAccounts},
	}))
	assert.True(t, r.HasPermission(ctx, "PROJECT_COORDINATOR", PermViewAllProjects))
	assert.False(t, r.HasPermission(ctx, "PROJECT_COORDINATOR", PermManageAccounts))
}

func TestCustomRoleCacheFreshness(t *testing.T) {
	store := newMemStore()
	store.put(t, SettingCustomRoles, []CustomRole{
		{Name: "AUDIT_CLERK", Label: "Audit Clerk", Permissions: []Permission{PermViewReports}},
	})
	r, clock := newTestResolver(store)
	ctx := context.Background()

	r.CustomRoles(ctx)
	r.CustomRoles(ctx)
	r.CustomRoles(ctx)
	assert.Equal(t, 1, store.loads(SettingCustomRoles), "calls within the window must not reload")

	clock.Advance(DefaultFreshness + time.Second)
	r.CustomRoles(ctx)
	assert.Equal(t, 2, store.loads(SettingCustomRoles), "stale cache must reload")

	r.InvalidateCustomRoles()
	r.CustomRoles(ctx)
	assert.Equal(t, 3, store.loads(SettingCustomRoles), "invalidation must force a reload")
}

func TestDynamicMatrixCacheFreshness(t *testing.T) {
	store := newMemStore()
	r, clock := newTestResolver(store)
	ctx := context.Background()

	// Absence is cached too: repeated checks do not hammer the store.
	r.DynamicMatrix(ctx)
	r.DynamicMatrix(ctx)
	assert.Equal(t, 1, store.loads(SettingRolePermissions))

	clock.Advance(DefaultFreshness + time.Second)
	r.DynamicMatrix(ctx)
	assert.Equal(t, 2, store.loads(SettingRolePermissions))

	r.InvalidateDynamicMatrix()
	r.DynamicMatrix(ctx)
	assert.Equal(t, 3, store.loads(SettingRolePermissions))
}

func TestMutationsInvalidateAfterConfirmedWrite(t *testing.T) {
	store := newMemStore()
	r, _ := newTestResolver(store)
	ctx := context.Background()

	assert.False(t, r.HasPermission(ctx, "PROJECT_COORDINATOR", PermViewAllProjects))

	require.NoError(t, r.SaveCustomRoles(ctx, []CustomRole{
		{Name: "PROJECT_COORDINATOR", Label: "Project Coordinator", Permissions: []Permission{PermViewAllProjects}},
	}))
	// Visible immediately, without waiting for the freshness window.
	assert.True(t, r.HasPermission(ctx, "PROJECT_COORDINATOR", PermViewAllProjects))

	require.NoError(t, r.UpdateDynamicMatrix(ctx, map[string][]Permission{
		"MANAGER": {PermViewDashboard},
	}))
	assert.False(t, r.HasPermission(ctx, "SENIOR_ADMIN", PermManageSystemSettings))

	require.NoError(t, r.ResetToStatic(ctx))
	assert.True(t, r.HasPermission(ctx, "SENIOR_ADMIN", PermManageSystemSettings))
	_, found, err := store.Get(ctx, SettingRolePermissions)
	require.NoError(t, err)
	assert.False(t, found, "reset must delete the persisted override document")
}

func TestMalformedDocumentsDegradeToDefaults(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Upsert(context.Background(), SettingCustomRoles, `{"not":"a list"`))
	require.NoError(t, store.Upsert(context.Background(), SettingRolePermissions, `[]`))
	r, _ := newTestResolver(store)
	ctx := context.Background()

	assert.Empty(t, r.CustomRoles(ctx))
	// A role that only exists as a (now unreadable) custom role is denied,
	// not an error.
	assert.False(t, r.HasPermission(ctx, "PROJECT_COORDINATOR", PermViewAllProjects))
	// A corrupt override document falls back to the static matrix.
	assert.True(t, r.HasPermission(ctx, "SENIOR_ADMIN", PermManageSystemSettings))
}

func TestStoreFailureDegradesToDefaults(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("store unreachable")
	r, _ := newTestResolver(store)
	ctx := context.Background()

	assert.True(t, r.HasPermission(ctx, "SENIOR_ADMIN", PermManageSystemSettings))
	assert.False(t, r.HasPermission(ctx, "PROJECT_COORDINATOR", PermViewAllProjects))
	assert.Empty(t, r.CustomRoles(ctx))
}

func TestConcurrentStaleReloadsConverge(t *testing.T) {
	store := newMemStore()
	store.put(t, SettingCustomRoles, []CustomRole{
		{Name: "NIGHT_AUDITOR", Label: "Night Auditor", Permissions: []Permission{PermViewReports}},
	})
	r, _ := newTestResolver(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, r.HasPermission(ctx, "NIGHT_AUDITOR", PermViewReports))
		}()
	}
	wg.Wait()
	// Redundant loads are tolerated but bounded by the number of racers.
	assert.LessOrEqual(t, store.loads(SettingCustomRoles), 16)
}
