package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/meridian-pm/meridian/internal/platform/httpx"
	"github.com/meridian-pm/meridian/internal/shared"
)

// Handler exposes the administrative surface of the authorization engine:
// role catalog, effective matrix, dynamic override management and custom
// role CRUD. Every mutation invalidates the relevant resolver cache after
// the write is confirmed.
type Handler struct {
	logger    *slog.Logger
	resolver  *Resolver
	audit     *shared.AuditLogger
	mw        Middleware
	validate  *validator.Validate
	flight    singleflight.Group
	titler    cases.Caser
	snapshots SnapshotEnqueuer
}

// SnapshotEnqueuer schedules a durable permissions snapshot after matrix
// mutations. Optional; nil disables snapshots.
type SnapshotEnqueuer interface {
	EnqueueAuthzSnapshot(ctx context.Context, reason string) error
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, resolver *Resolver, audit *shared.AuditLogger, mw Middleware) *Handler {
	return &Handler{
		logger:   logger,
		resolver: resolver,
		audit:    audit,
		mw:       mw,
		validate: validator.New(),
		titler:   cases.Title(language.English),
	}
}

// WithSnapshots attaches a snapshot queue; matrix mutations then enqueue a
// best-effort snapshot so operators keep a durable record of what changed.
func (h *Handler) WithSnapshots(s SnapshotEnqueuer) *Handler {
	h.snapshots = s
	return h
}

func (h *Handler) enqueueSnapshot(ctx context.Context, reason string) {
	if h.snapshots == nil {
		return
	}
	if err := h.snapshots.EnqueueAuthzSnapshot(ctx, reason); err != nil {
		h.logger.Warn("enqueue authz snapshot", slog.String("reason", reason), slog.Any("error", err))
	}
}

// MountRoutes registers the admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(PermManagePermissions, PermManageSystemSettings))
		r.Get("/roles", h.listRoles)
		r.Get("/matrix", h.getMatrix)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAll(PermManagePermissions))
		r.Put("/matrix", h.updateMatrix)
		r.Delete("/matrix", h.resetMatrix)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(PermManageCustomRoles))
		r.Get("/custom-roles", h.listCustomRoles)
		r.Post("/custom-roles", h.createCustomRole)
		r.Put("/custom-roles/{name}", h.updateCustomRole)
		r.Delete("/custom-roles/{name}", h.deleteCustomRole)
	})
}

type roleView struct {
	Name    string `json:"name"`
	Level   int    `json:"level,omitempty"`
	BuiltIn bool   `json:"builtIn"`
	Meta
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	views := make([]roleView, 0, len(AllRoles()))
	for _, role := range AllRoles() {
		meta, _ := MetaFor(role)
		views = append(views, roleView{Name: string(role), Level: Level(string(role)), BuiltIn: true, Meta: meta})
	}
	for _, custom := range h.resolver.CustomRoles(r.Context()) {
		if IsBuiltIn(custom.Name) {
			continue
		}
		views = append(views, roleView{
			Name:    custom.Name,
			BuiltIn: false,
			Meta: Meta{
				Label:        custom.Label,
				Color:        custom.Color,
				Description:  custom.Description,
				DefaultRoute: custom.DefaultRoute,
			},
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": views})
}

func (h *Handler) getMatrix(w http.ResponseWriter, r *http.Request) {
	// Concurrent admin refreshes collapse to one table build.
	table, err, _ := h.flight.Do("matrix", func() (any, error) {
		out := make(map[string][]Permission)
		for role, set := range h.resolver.EffectiveTable(r.Context()) {
			out[role] = set.Slice()
		}
		return out, nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"overridden": h.resolver.DynamicMatrix(r.Context()) != nil,
		"matrix":     table,
	})
}

func (h *Handler) updateMatrix(w http.ResponseWriter, r *http.Request) {
	var matrix map[string][]Permission
	if err := httpx.DecodeJSON(r, &matrix); err != nil || len(matrix) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "body must be a non-empty role to permission-list object")
		return
	}
	for role, perms := range matrix {
		if strings.TrimSpace(role) == "" {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "empty role key")
			return
		}
		for _, p := range perms {
			if !IsKnown(p) {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown permission "+string(p))
				return
			}
		}
	}
	if err := h.resolver.UpdateDynamicMatrix(r.Context(), matrix); err != nil {
		h.logger.Error("update dynamic matrix", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "authz.matrix.update", "setting", SettingRolePermissions, map[string]any{"roles": len(matrix)})
	h.enqueueSnapshot(r.Context(), "matrix updated")
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "updated"})
}

func (h *Handler) resetMatrix(w http.ResponseWriter, r *http.Request) {
	if err := h.resolver.ResetToStatic(r.Context()); err != nil {
		h.logger.Error("reset dynamic matrix", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "authz.matrix.reset", "setting", SettingRolePermissions, nil)
	h.enqueueSnapshot(r.Context(), "matrix reset")
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "reset"})
}

func (h *Handler) listCustomRoles(w http.ResponseWriter, r *http.Request) {
	roles := h.resolver.CustomRoles(r.Context())
	if roles == nil {
		roles = []CustomRole{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customRoles": roles})
}

type customRolePayload struct {
	Name         string       `json:"name" validate:"required,min=2,max=64"`
	Label        string       `json:"label" validate:"max=128"`
	Color        string       `json:"color" validate:"max=32"`
	Description  string       `json:"description" validate:"max=512"`
	DefaultRoute string       `json:"defaultRoute" validate:"max=256"`
	Permissions  []Permission `json:"permissions" validate:"required,min=1"`
}

func (h *Handler) createCustomRole(w http.ResponseWriter, r *http.Request) {
	role, ok := h.decodeCustomRole(w, r, "")
	if !ok {
		return
	}
	existing := h.resolver.CustomRoles(r.Context())
	for _, cur := range existing {
		if cur.Name == role.Name {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "custom role already exists: "+role.Name)
			return
		}
	}
	if err := h.resolver.SaveCustomRoles(r.Context(), append(append([]CustomRole{}, existing...), role)); err != nil {
		h.logger.Error("create custom role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "authz.customrole.create", "custom_role", role.Name, map[string]any{"permissions": len(role.Permissions)})
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) updateCustomRole(w http.ResponseWriter, r *http.Request) {
	name := NormalizeName(chi.URLParam(r, "name"))
	role, ok := h.decodeCustomRole(w, r, name)
	if !ok {
		return
	}
	existing := h.resolver.CustomRoles(r.Context())
	updated := make([]CustomRole, 0, len(existing))
	found := false
	for _, cur := range existing {
		if cur.Name == name {
			updated = append(updated, role)
			found = true
			continue
		}
		updated = append(updated, cur)
	}
	if !found {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "custom role not found: "+name)
		return
	}
	if err := h.resolver.SaveCustomRoles(r.Context(), updated); err != nil {
		h.logger.Error("update custom role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "authz.customrole.update", "custom_role", name, map[string]any{"permissions": len(role.Permissions)})
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) deleteCustomRole(w http.ResponseWriter, r *http.Request) {
	name := NormalizeName(chi.URLParam(r, "name"))
	existing := h.resolver.CustomRoles(r.Context())
	remaining := make([]CustomRole, 0, len(existing))
	for _, cur := range existing {
		if cur.Name != name {
			remaining = append(remaining, cur)
		}
	}
	if len(remaining) == len(existing) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "custom role not found: "+name)
		return
	}
	if err := h.resolver.SaveCustomRoles(r.Context(), remaining); err != nil {
		h.logger.Error("delete custom role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "authz.customrole.delete", "custom_role", name, nil)
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// decodeCustomRole parses and validates a custom-role payload. Shadowing a
// built-in identifier is rejected here at creation time; the resolver drops
// colliding entries again at resolution time as a second line of defense.
func (h *Handler) decodeCustomRole(w http.ResponseWriter, r *http.Request, fixedName string) (CustomRole, bool) {
	var payload customRolePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return CustomRole{}, false
	}
	if fixedName != "" {
		payload.Name = fixedName
	}
	payload.Name = NormalizeName(payload.Name)
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return CustomRole{}, false
	}
	if IsBuiltIn(payload.Name) || payload.Name == LegacyAdminRole {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "name collides with a built-in role: "+payload.Name)
		return CustomRole{}, false
	}
	for _, p := range payload.Permissions {
		if !IsKnown(p) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown permission "+string(p))
			return CustomRole{}, false
		}
	}
	if payload.Label == "" {
		payload.Label = h.titler.String(strings.ToLower(strings.ReplaceAll(payload.Name, "_", " ")))
	}
	return CustomRole{
		Name:         payload.Name,
		Label:        payload.Label,
		Color:        payload.Color,
		Description:  payload.Description,
		DefaultRoute: payload.DefaultRoute,
		Permissions:  payload.Permissions,
	}, true
}

func (h *Handler) recordAudit(r *http.Request, action, entity, entityID string, meta map[string]any) {
	if h.audit == nil {
		return
	}
	var actorID int64
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		actorID, _ = strconv.ParseInt(sess.User(), 10, 64)
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
	}); err != nil {
		h.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
