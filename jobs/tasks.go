package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-pm/meridian/internal/authz"
	"github.com/meridian-pm/meridian/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuthzSnapshot dumps the effective permission table to the audit
	// log. Because permission changes propagate to other instances only as
	// their caches expire, the periodic snapshot gives operators a durable
	// record of what was actually in force.
	TaskAuthzSnapshot = "authz:snapshot"
)

// AuthzSnapshotPayload parameterizes a snapshot run.
type AuthzSnapshotPayload struct {
	Reason string `json:"reason"`
}

// NewAuthzSnapshotTask constructs an Asynq task.
func NewAuthzSnapshotTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(AuthzSnapshotPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuthzSnapshot, data), nil
}

// SnapshotHandler processes TaskAuthzSnapshot tasks.
type SnapshotHandler struct {
	Resolver *authz.Resolver
	Audit    *shared.AuditLogger
	Logger   *slog.Logger
}

// Handle records one effective-table snapshot.
func (h *SnapshotHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AuthzSnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	table := h.Resolver.EffectiveTable(ctx)
	meta := make(map[string]any, len(table))
	for role, set := range table {
		perms := set.Slice()
		names := make([]string, len(perms))
		for i, p := range perms {
			names[i] = string(p)
		}
		meta[role] = names
	}

	if err := h.Audit.Record(ctx, shared.AuditLog{
		ActorID:  0,
		Action:   "authz.snapshot",
		Entity:   "authz",
		EntityID: "effective_table",
		Meta:     map[string]any{"reason": payload.Reason, "table": meta},
	}); err != nil {
		h.Logger.Error("authz snapshot audit write", slog.Any("error", err))
		return err
	}
	h.Logger.Info("authz snapshot recorded", slog.Int("roles", len(table)), slog.String("reason", payload.Reason))
	return nil
}
