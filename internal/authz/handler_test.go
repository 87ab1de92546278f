package authz

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pm/meridian/internal/shared"
)

func newTestHandler(store SettingStore) (*Handler, *Resolver) {
	resolver, _ := newTestResolver(store)
	logger := slog.New(slog.DiscardHandler)
	mw := Middleware{Resolver: resolver, Logger: logger}
	return NewHandler(logger, resolver, nil, mw), resolver
}

func adminRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	sess := &shared.Session{}
	sess.SetUser("1", "SENIOR_ADMIN")
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Route("/admin/access", h.MountRoutes)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestCreateCustomRoleRejectsShadowing(t *testing.T) {
	h, resolver := newTestHandler(newMemStore())

	res := serve(h, adminRequest(http.MethodPost, "/admin/access/custom-roles",
		`{"name":"SENIOR_ADMIN","permissions":["VIEW_DASHBOARD"]}`))
	assert.Equal(t, http.StatusBadRequest, res.Code)

	// Normalization catches case and spacing tricks too.
	res = serve(h, adminRequest(http.MethodPost, "/admin/access/custom-roles",
		`{"name":"senior admin","permissions":["VIEW_DASHBOARD"]}`))
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = serve(h, adminRequest(http.MethodPost, "/admin/access/custom-roles",
		`{"name":"admin","permissions":["VIEW_DASHBOARD"]}`))
	assert.Equal(t, http.StatusBadRequest, res.Code)

	assert.Empty(t, resolver.CustomRoles(adminRequest(http.MethodGet, "/", "").Context()))
}

func TestCreateCustomRoleLifecycle(t *testing.T) {
	h, resolver := newTestHandler(newMemStore())

	res := serve(h, adminRequest(http.MethodPost, "/admin/access/custom-roles",
		`{"name":"project coordinator","permissions":["VIEW_ALL_PROJECTS"]}`))
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	var created CustomRole
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
	assert.Equal(t, "PROJECT_COORDINATOR", created.Name)
	assert.Equal(t, "Project Coordinator", created.Label)

	ctx := adminRequest(http.MethodGet, "/", "").Context()
	assert.True(t, resolver.HasPermission(ctx, "PROJECT_COORDINATOR", PermViewAllProjects))
	assert.False(t, resolver.HasPermission(ctx, "PROJECT_COORDINATOR", PermManageAccounts))

	// Duplicate create conflicts.
	res = serve(h, adminRequest(http.MethodPost, "/admin/access/custom-roles",
		`{"name":"PROJECT_COORDINATOR","permissions":["VIEW_ALL_PROJECTS"]}`))
	assert.Equal(t, http.StatusConflict, res.Code)

	// Update swaps the permission set and is visible immediately.
	res = serve(h, adminRequest(http.MethodPut, "/admin/access/custom-roles/PROJECT_COORDINATOR",
		`{"name":"PROJECT_COORDINATOR","permissions":["VIEW_REPORTS"]}`))
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.False(t, resolver.HasPermission(ctx, "PROJECT_COORDINATOR", PermViewAllProjects))
	assert.True(t, resolver.HasPermission(ctx, "PROJECT_COORDINATOR", PermViewReports))

	// Delete removes the role and the grant with it.
	res = serve(h, adminRequest(http.MethodDelete, "/admin/access/custom-roles/PROJECT_COORDINATOR", ""))
	require.Equal(t, http.StatusOK, res.Code)
	assert.False(t, resolver.HasPermission(ctx, "PROJECT_COORDINATOR", PermViewReports))

	res = serve(h, adminRequest(http.MethodDelete, "/admin/access/custom-roles/PROJECT_COORDINATOR", ""))
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestCreateCustomRoleRejectsUnknownPermissions(t *testing.T) {
	h, _ := newTestHandler(newMemStore())
	res := serve(h, adminRequest(http.MethodPost, "/admin/access/custom-roles",
		`{"name":"AUDIT_CLERK","permissions":["NOT_A_PERMISSION"]}`))
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestUpdateMatrixRoundTrip(t *testing.T) {
	h, resolver := newTestHandler(newMemStore())
	ctx := adminRequest(http.MethodGet, "/", "").Context()

	res := serve(h, adminRequest(http.MethodPut, "/admin/access/matrix",
		`{"ACCOUNTANT":["MANAGE_ACCOUNTS","VIEW_ALL_INVOICES"]}`))
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	// Total replacement: every role not re-listed lost its capability.
	assert.True(t, resolver.HasPermission(ctx, "ACCOUNTANT", PermManageAccounts))
	assert.False(t, resolver.HasPermission(ctx, "SENIOR_ADMIN", PermManageSystemSettings))

	res = serve(h, adminRequest(http.MethodGet, "/admin/access/matrix", ""))
	require.Equal(t, http.StatusOK, res.Code)
	var payload struct {
		Overridden bool                    `json:"overridden"`
		Matrix     map[string][]Permission `json:"matrix"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.True(t, payload.Overridden)
	assert.NotContains(t, payload.Matrix, "SENIOR_ADMIN")

	res = serve(h, adminRequest(http.MethodDelete, "/admin/access/matrix", ""))
	require.Equal(t, http.StatusOK, res.Code)
	assert.True(t, resolver.HasPermission(ctx, "SENIOR_ADMIN", PermManageSystemSettings))
}

func TestUpdateMatrixRejectsBadPayloads(t *testing.T) {
	h, _ := newTestHandler(newMemStore())

	res := serve(h, adminRequest(http.MethodPut, "/admin/access/matrix", `[]`))
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = serve(h, adminRequest(http.MethodPut, "/admin/access/matrix", `{}`))
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = serve(h, adminRequest(http.MethodPut, "/admin/access/matrix",
		`{"ACCOUNTANT":["NOT_A_PERMISSION"]}`))
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestAdminSurfaceIsGated(t *testing.T) {
	h, _ := newTestHandler(newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/admin/access/matrix", nil)
	sess := &shared.Session{}
	sess.SetUser("7", "ARTISAN")
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := serve(h, req)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestListRolesIncludesCustomMetadata(t *testing.T) {
	store := newMemStore()
	h, _ := newTestHandler(store)

	res := serve(h, adminRequest(http.MethodPost, "/admin/access/custom-roles",
		`{"name":"NIGHT_AUDITOR","label":"Night Auditor","color":"cyan","permissions":["VIEW_REPORTS"]}`))
	require.Equal(t, http.StatusCreated, res.Code)

	res = serve(h, adminRequest(http.MethodGet, "/admin/access/roles", ""))
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Roles []struct {
			Name    string `json:"name"`
			Level   int    `json:"level"`
			BuiltIn bool   `json:"builtIn"`
			Label   string `json:"label"`
		} `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	require.Len(t, payload.Roles, len(AllRoles())+1)

	var foundCustom bool
	for _, role := range payload.Roles {
		if role.Name == "NIGHT_AUDITOR" {
			foundCustom = true
			assert.False(t, role.BuiltIn)
			assert.Zero(t, role.Level)
			assert.Equal(t, "Night Auditor", role.Label)
		}
		if role.BuiltIn {
			assert.Greater(t, role.Level, 0)
		}
	}
	assert.True(t, foundCustom)
}
