package authz

import (
	"context"
	"log/slog"
	"time"
)

// Setting keys under which the resolver's documents live in the external
// store.
const (
	SettingCustomRoles     = "custom_roles"
	SettingRolePermissions = "role_permissions"
)

// DefaultFreshness is how long a loaded document is trusted before the next
// check forces a reload. Permission changes made on another instance become
// visible within at most this window.
const DefaultFreshness = 5 * time.Minute

// SettingStore is the external key-value document store the resolver reads
// its dynamic configuration from. Get reports found=false when the key is
// absent.
type SettingStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Upsert(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Resolver answers "does role R hold permission P" against the merged view
// of the static matrix, the optional dynamic override and the custom-role
// list. Construct one per process and inject it; it owns all cache state.
type Resolver struct {
	store  SettingStore
	logger *slog.Logger

	window time.Duration
	now    func() time.Time

	customRoles cacheCell[[]CustomRole]
	// dynamic caches the override matrix; a nil payload means "no override
	// present", which is itself cached to avoid re-reading an absent key.
	dynamic cacheCell[map[string][]Permission]
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithFreshness overrides the cache freshness window.
func WithFreshness(window time.Duration) ResolverOption {
	return func(r *Resolver) {
		if window > 0 {
			r.window = window
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver constructs a Resolver over the given store.
func NewResolver(store SettingStore, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		store:  store,
		logger: logger,
		window: DefaultFreshness,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CustomRoles returns the cached custom-role list, reloading from the store
// when the cache is cold or stale. Load and parse failures degrade to an
// empty list; an authorization check never fails because configuration is
// unreadable.
func (r *Resolver) CustomRoles(ctx context.Context) []CustomRole {
	if roles, ok := r.customRoles.get(r.now(), r.window); ok {
		return roles
	}
	roles := r.loadCustomRoles(ctx)
	r.customRoles.put(roles, r.now())
	return roles
}

func (r *Resolver) loadCustomRoles(ctx context.Context) []CustomRole {
	raw, found, err := r.store.Get(ctx, SettingCustomRoles)
	if err != nil {
		r.logger.Error("authz: load custom roles", slog.Any("error", err))
		return nil
	}
	if !found {
		return nil
	}
	roles, err := decodeCustomRoles(raw)
	if err != nil {
		r.logger.Error("authz: malformed custom roles document", slog.Any("error", err))
		return nil
	}
	return roles
}

// InvalidateCustomRoles clears the custom-role cache. Call it after every
// confirmed create, update or delete of a custom role.
func (r *Resolver) InvalidateCustomRoles() {
	r.customRoles.invalidate()
}

// DynamicMatrix returns the cached override matrix, or nil when no override
// is stored or the stored document is unreadable.
func (r *Resolver) DynamicMatrix(ctx context.Context) map[string][]Permission {
	if matrix, ok := r.dynamic.get(r.now(), r.window); ok {
		return matrix
	}
	matrix := r.loadDynamicMatrix(ctx)
	r.dynamic.put(matrix, r.now())
	return matrix
}

func (r *Resolver) loadDynamicMatrix(ctx context.Context) map[string][]Permission {
	raw, found, err := r.store.Get(ctx, SettingRolePermissions)
	if err != nil {
		r.logger.Error("authz: load dynamic matrix", slog.Any("error", err))
		return nil
	}
	if !found {
		return nil
	}
	matrix, err := decodeMatrix(raw)
	if err != nil {
		r.logger.Error("authz: malformed dynamic matrix document", slog.Any("error", err))
		return nil
	}
	return matrix
}

// InvalidateDynamicMatrix clears the override cache. Call it after every
// confirmed write of the role_permissions document.
func (r *Resolver) InvalidateDynamicMatrix() {
	r.dynamic.invalidate()
}

// UpdateDynamicMatrix persists a full replacement matrix and invalidates
// the cache. The document replaces the static matrix wholesale: roles it
// omits lose all capability until it is reset.
func (r *Resolver) UpdateDynamicMatrix(ctx context.Context, matrix map[string][]Permission) error {
	raw, err := encodeMatrix(matrix)
	if err != nil {
		return err
	}
	if err := r.store.Upsert(ctx, SettingRolePermissions, raw); err != nil {
		return err
	}
	r.InvalidateDynamicMatrix()
	return nil
}

// ResetToStatic deletes the persisted override so future loads fall through
// to the compiled-in matrix. Distinct from cache invalidation, which only
// forces a re-read of whatever is stored.
func (r *Resolver) ResetToStatic(ctx context.Context) error {
	if err := r.store.Delete(ctx, SettingRolePermissions); err != nil {
		return err
	}
	r.InvalidateDynamicMatrix()
	return nil
}

// SaveCustomRoles persists the full custom-role list and invalidates the
// cache. Callers mutate the list (create/update/delete) and hand it back.
func (r *Resolver) SaveCustomRoles(ctx context.Context, roles []CustomRole) error {
	raw, err := encodeCustomRoles(roles)
	if err != nil {
		return err
	}
	if err := r.store.Upsert(ctx, SettingCustomRoles, raw); err != nil {
		return err
	}
	r.InvalidateCustomRoles()
	return nil
}

// EffectiveTable computes the merged role→permission-set table: the dynamic
// override when one is stored, otherwise the static matrix, with custom
// roles layered on top. A custom role whose name collides with a built-in
// identifier is dropped here, whatever the merge order would have produced:
// custom roles cannot shadow built-ins.
func (r *Resolver) EffectiveTable(ctx context.Context) map[string]PermissionSet {
	var table map[string]PermissionSet
	if override := r.DynamicMatrix(ctx); override != nil {
		table = make(map[string]PermissionSet, len(override))
		for role, perms := range override {
			table[role] = NewPermissionSet(perms...)
		}
	} else {
		table = StaticMatrix()
	}
	for _, custom := range r.CustomRoles(ctx) {
		if IsBuiltIn(custom.Name) {
			r.logger.Warn("authz: custom role shadows built-in, ignored", slog.String("role", custom.Name))
			continue
		}
		table[custom.Name] = custom.PermissionSet()
	}
	return table
}

// HasPermission reports whether the role holds the permission. Unknown
// roles have no permissions; the caller cannot distinguish "denied" from
// "unknown role", both are false.
func (r *Resolver) HasPermission(ctx context.Context, role string, perm Permission) bool {
	set, ok := r.EffectiveTable(ctx)[role]
	if !ok {
		return false
	}
	return set.Has(perm)
}

// HasAnyPermission reports whether the role holds at least one of the given
// permissions.
func (r *Resolver) HasAnyPermission(ctx context.Context, role string, perms ...Permission) bool {
	set, ok := r.EffectiveTable(ctx)[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if set.Has(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the role holds every given permission.
func (r *Resolver) HasAllPermissions(ctx context.Context, role string, perms ...Permission) bool {
	set, ok := r.EffectiveTable(ctx)[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if !set.Has(p) {
			return false
		}
	}
	return true
}

// PermissionsForRole returns the role's effective permission set, empty for
// unknown roles.
func (r *Resolver) PermissionsForRole(ctx context.Context, role string) PermissionSet {
	set, ok := r.EffectiveTable(ctx)[role]
	if !ok {
		return PermissionSet{}
	}
	return set
}
