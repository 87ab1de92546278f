package invoices

import (
	"context"
	"log/slog"
	"strings"

	"github.com/meridian-pm/meridian/internal/authz"
)

// Authorizer answers fine-grained permission questions. Satisfied by
// *authz.Resolver.
type Authorizer interface {
	HasPermission(ctx context.Context, role string, perm authz.Permission) bool
}

// Service handles invoice business logic. Every mutation is gated on the
// acting role; a false authorization answer surfaces as ErrForbidden and
// the handler translates it to a generic 403.
type Service struct {
	repo   RepositoryPort
	authz  Authorizer
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, authorizer Authorizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, authz: authorizer, logger: logger}
}

// GetInvoice returns one invoice.
func (s *Service) GetInvoice(ctx context.Context, actorRole string, id int64) (*Invoice, error) {
	if !s.authz.HasPermission(ctx, actorRole, authz.PermViewAllInvoices) {
		return nil, ErrForbidden
	}
	return s.repo.GetInvoice(ctx, id)
}

// CreateDraft creates a new draft invoice.
func (s *Service) CreateDraft(ctx context.Context, actorRole string, inv Invoice) (*Invoice, error) {
	if !s.authz.HasPermission(ctx, actorRole, authz.PermManageInvoices) {
		return nil, ErrForbidden
	}
	inv.Number = strings.TrimSpace(inv.Number)
	if inv.Number == "" {
		return nil, ErrInvalidTransition
	}
	return s.repo.CreateInvoice(ctx, &inv)
}

// Transition moves an invoice along its lifecycle. Sending and voiding
// require invoice management; marking paid additionally requires payment
// approval, the finance-side sign-off. Voiding also requires manager
// seniority since it destroys a billing document.
func (s *Service) Transition(ctx context.Context, actorRole string, id int64, to Status) (*Invoice, error) {
	switch to {
	case StatusSent:
		if !s.authz.HasPermission(ctx, actorRole, authz.PermManageInvoices) {
			return nil, ErrForbidden
		}
	case StatusPaid:
		if !s.authz.HasPermission(ctx, actorRole, authz.PermApprovePaymentRequests) {
			return nil, ErrForbidden
		}
	case StatusVoid:
		if !s.authz.HasPermission(ctx, actorRole, authz.PermManageInvoices) || !authz.HasRoleLevel(actorRole, authz.RoleManager) {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrInvalidTransition
	}

	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(inv.Status, to) {
		return nil, ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	s.logger.Info("invoice status changed",
		slog.Int64("invoice", id),
		slog.String("from", string(inv.Status)),
		slog.String("to", string(to)),
		slog.String("role", actorRole))
	inv.Status = to
	return inv, nil
}
