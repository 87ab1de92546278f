package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// RepositoryPort defines data access methods for invoices.
type RepositoryPort interface {
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	CreateInvoice(ctx context.Context, inv *Invoice) (*Invoice, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetInvoice fetches an invoice by ID.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	var inv Invoice
	err := r.pool.QueryRow(ctx, `
		SELECT id, number, tenant_id, amount_cts, currency, status, issued_at, paid_at, created_at, updated_at
		FROM invoices WHERE id = $1`, id).
		Scan(&inv.ID, &inv.Number, &inv.TenantID, &inv.AmountCts, &inv.Currency, &inv.Status,
			&inv.IssuedAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("invoices: get %d: %w", id, err)
	}
	return &inv, nil
}

// CreateInvoice inserts a new draft invoice.
func (r *Repository) CreateInvoice(ctx context.Context, inv *Invoice) (*Invoice, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (number, tenant_id, amount_cts, currency, status, issued_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at, updated_at`,
		inv.Number, inv.TenantID, inv.AmountCts, inv.Currency, StatusDraft).
		Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateNumber
		}
		return nil, fmt.Errorf("invoices: create: %w", err)
	}
	inv.Status = StatusDraft
	return inv, nil
}

// UpdateStatus persists a status change.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	paid := status == StatusPaid
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET status = $2, paid_at = CASE WHEN $3 THEN NOW() ELSE paid_at END, updated_at = NOW()
		WHERE id = $1`, id, status, paid)
	if err != nil {
		return fmt.Errorf("invoices: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
