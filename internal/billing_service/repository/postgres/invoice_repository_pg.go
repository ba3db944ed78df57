package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/replytics/dashboard-api/internal/billing_service/domain"
	"github.com/replytics/dashboard-api/internal/billing_service/repository"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

type pgInvoiceRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgInvoiceRepository creates a new PostgreSQL implementation of
// repository.InvoiceRepository.
func NewPgInvoiceRepository(db database.PGXPool, logger *slog.Logger) repository.InvoiceRepository {
	return &pgInvoiceRepository{db: db, logger: logger}
}

const invoiceColumns = `id, business_id, amount_cents, currency, status, download_url, issued_at`

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := row.Scan(&inv.ID, &inv.BusinessID, &inv.AmountCents, &inv.Currency, &inv.Status, &inv.DownloadURL, &inv.IssuedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *pgInvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	query := `INSERT INTO invoices (id, business_id, amount_cents, currency, status, download_url, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query,
		invoice.ID, invoice.BusinessID, invoice.AmountCents, invoice.Currency,
		invoice.Status, invoice.DownloadURL, invoice.IssuedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating invoice", "error", err, "invoice_id", invoice.ID)
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *pgInvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting invoice", "error", err, "invoice_id", id)
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

func (r *pgInvoiceRepository) ListByBusinessID(ctx context.Context, businessID string, limit int) ([]*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE business_id = $1 ORDER BY issued_at DESC LIMIT $2`

	rows, err := r.db.Query(ctx, query, businessID, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing invoices", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := []*domain.Invoice{}
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading invoice rows: %w", err)
	}
	return invoices, nil
}

func (r *pgInvoiceRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE invoices SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating invoice status", "error", err, "invoice_id", id)
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}
