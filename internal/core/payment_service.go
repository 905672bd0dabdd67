package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PaymentService is the append-only payment ledger. Recording a payment and
// re-deriving the invoice's totalPaid and status happen in one transaction, so
// there is never a window where totalPaid is updated but status is not.
//
// RecordPayment is intentionally NOT idempotent: submitting the same amount
// twice creates two payments and double-counts. There is no dedup key; callers
// are responsible for not double-submitting.
type PaymentService interface {
	// RecordPayment appends an immutable payment, then recomputes
	// totalPaid = SUM(payments) and status via ComputeStatus. Overpayment is
	// accepted: any amount > 0 is valid and simply yields PAID with totalPaid
	// exceeding total.
	RecordPayment(ctx context.Context, userID, invoiceID int, amount decimal.Decimal, method, notes string) (*Invoice, error)
	// ListPayments returns the invoice's payment history, newest first.
	ListPayments(ctx context.Context, userID, invoiceID int) ([]Payment, error)
	// RefreshStatus re-derives totalPaid and status from the payment stream.
	// Suitable for a periodic status-refresh job: it moves unpaid invoices to
	// OVERDUE as time passes and clears a stale EMAILED marker.
	RefreshStatus(ctx context.Context, invoiceID int) error
}

type paymentService struct {
	pool *pgxpool.Pool
}

func NewPaymentService(pool *pgxpool.Pool) PaymentService {
	return &paymentService{pool: pool}
}

func (s *paymentService) RecordPayment(ctx context.Context, userID, invoiceID int, amount decimal.Decimal, method, notes string) (*Invoice, error) {
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "payment amount must be greater than 0"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the invoice and verify ownership.
	var (
		total     decimal.Decimal
		issueDate time.Time
		dueDays   int
	)
	err = tx.QueryRow(ctx,
		"SELECT total, issue_date, due_days FROM invoices WHERE id = $1 AND user_id = $2 FOR UPDATE",
		invoiceID, userID,
	).Scan(&total, &issueDate, &dueDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewNotFound("invoice", invoiceID)
		}
		return nil, fmt.Errorf("failed to lock invoice %d: %w", invoiceID, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payments (invoice_id, amount, method, notes, payment_date)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NOW())
	`, invoiceID, amount, method, notes)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	// Re-derive from the full stream rather than incrementing, so the stored
	// figure can never drift from the ledger.
	var totalPaid decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1",
		invoiceID,
	).Scan(&totalPaid)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payments for invoice %d: %w", invoiceID, err)
	}

	status := ComputeStatus(total, totalPaid, issueDate, dueDays, time.Now())

	_, err = tx.Exec(ctx,
		"UPDATE invoices SET total_paid = $1, status = $2, updated_at = NOW() WHERE id = $3",
		totalPaid, status, invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice %d after payment: %w", invoiceID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	var inv Invoice
	err = scanInvoice(s.pool.QueryRow(ctx,
		"SELECT"+invoiceColumns+" FROM invoices WHERE id = $1", invoiceID), &inv)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invoice %d: %w", invoiceID, err)
	}
	items, err := fetchItemsQ(ctx, s.pool, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return &inv, nil
}

func (s *paymentService) ListPayments(ctx context.Context, userID, invoiceID int) ([]Payment, error) {
	// Verify ownership up front so a foreign invoice reads as missing rather
	// than as an invoice with no payments.
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1 AND user_id = $2)",
		invoiceID, userID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check invoice %d: %w", invoiceID, err)
	}
	if !exists {
		return nil, NewNotFound("invoice", invoiceID)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_id, amount, COALESCE(method, ''), COALESCE(notes, ''), payment_date, created_at
		FROM payments
		WHERE invoice_id = $1
		ORDER BY payment_date DESC, id DESC
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Notes, &p.PaymentDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *paymentService) RefreshStatus(ctx context.Context, invoiceID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		total     decimal.Decimal
		issueDate time.Time
		dueDays   int
	)
	err = tx.QueryRow(ctx,
		"SELECT total, issue_date, due_days FROM invoices WHERE id = $1 FOR UPDATE",
		invoiceID,
	).Scan(&total, &issueDate, &dueDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return NewNotFound("invoice", invoiceID)
		}
		return fmt.Errorf("failed to lock invoice %d: %w", invoiceID, err)
	}

	var totalPaid decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1",
		invoiceID,
	).Scan(&totalPaid)
	if err != nil {
		return fmt.Errorf("failed to sum payments for invoice %d: %w", invoiceID, err)
	}

	status := ComputeStatus(total, totalPaid, issueDate, dueDays, time.Now())

	_, err = tx.Exec(ctx,
		"UPDATE invoices SET total_paid = $1, status = $2, updated_at = NOW() WHERE id = $3",
		totalPaid, status, invoiceID,
	)
	if err != nil {
		return fmt.Errorf("failed to refresh invoice %d status: %w", invoiceID, err)
	}

	return tx.Commit(ctx)
}
