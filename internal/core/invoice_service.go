package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InvoiceService owns the invoice lifecycle: header + line items, stock
// effects of item changes, and the manual status overrides. Every operation
// takes the authenticated user's ID explicitly; ownership is enforced in SQL
// so an invoice belonging to another user is indistinguishable from a missing
// one.
type InvoiceService interface {
	Create(ctx context.Context, userID int, in InvoiceInput) (*Invoice, error)
	// Edit replaces the invoice's entire item set: existing items are deleted
	// and the submitted set inserted, never diffed. Stock consumed by the old
	// items is added back before the new items are validated.
	Edit(ctx context.Context, userID, invoiceID int, in InvoiceInput) (*Invoice, error)
	// Delete restores stock for every tracked item, then removes the invoice
	// (items cascade).
	Delete(ctx context.Context, userID, invoiceID int) error
	// MarkAsPaid overrides status to PAID without touching totalPaid. It is a
	// manual escape hatch independent of the payment ledger; totalPaid may
	// remain below total afterwards.
	MarkAsPaid(ctx context.Context, userID, invoiceID int) (*Invoice, error)
	// MarkEmailed records the email-sent side-channel status. The next payment
	// or status refresh overwrites it with a derived status.
	MarkEmailed(ctx context.Context, userID, invoiceID int) (*Invoice, error)
	Get(ctx context.Context, userID, invoiceID int) (*Invoice, error)
	List(ctx context.Context, userID int, status *InvoiceStatus) ([]Invoice, error)
}

type invoiceService struct {
	pool  *pgxpool.Pool
	stock StockService
}

func NewInvoiceService(pool *pgxpool.Pool, stock StockService) InvoiceService {
	return &invoiceService{pool: pool, stock: stock}
}

// validateHeader enforces the header rules shared by create and edit.
func validateHeader(in InvoiceInput) error {
	if strings.TrimSpace(in.InvoiceName) == "" {
		return &ValidationError{Field: "invoice_name", Message: "invoice name is required"}
	}
	if in.InvoiceNumber < 1 {
		return &ValidationError{Field: "invoice_number", Message: "invoice number must be at least 1"}
	}
	if in.IssueDate.IsZero() {
		return &ValidationError{Field: "issue_date", Message: "issue date is required"}
	}
	if in.DueDays < 0 {
		return &ValidationError{Field: "due_days", Message: "due days must be 0 or greater"}
	}
	if !in.Currency.Valid() {
		return &ValidationError{Field: "currency", Message: fmt.Sprintf("unsupported currency %q", in.Currency)}
	}
	return nil
}

func (s *invoiceService) Create(ctx context.Context, userID int, in InvoiceInput) (*Invoice, error) {
	if err := validateHeader(in); err != nil {
		return nil, err
	}
	if err := ValidateItems(in.Items); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Reserve stock item by item, in submission order. ReserveTx locks the
	// product row, so the check and the decrement are atomic with the insert
	// below — the whole create lands or none of it does.
	for _, item := range in.Items {
		if item.ProductID == nil {
			continue
		}
		if err := s.stock.ReserveTx(ctx, tx, *item.ProductID, item.VariationID, item.Quantity); err != nil {
			return nil, err
		}
	}

	total := ItemsTotal(in.Items)

	var invoiceID int
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (user_id, invoice_number, invoice_name, issue_date, due_days, currency,
		                      total, total_paid, status, note,
		                      from_name, from_email, from_address,
		                      client_name, client_email, client_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`, userID, in.InvoiceNumber, in.InvoiceName, in.IssueDate, in.DueDays, in.Currency,
		total, StatusPending, in.Note,
		in.FromName, in.FromEmail, in.FromAddress,
		in.ClientName, in.ClientEmail, in.ClientAddress,
	).Scan(&invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	if err := insertItemsTx(ctx, tx, invoiceID, in.Items); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice creation: %w", err)
	}

	return s.Get(ctx, userID, invoiceID)
}

func (s *invoiceService) Edit(ctx context.Context, userID, invoiceID int, in InvoiceInput) (*Invoice, error) {
	if err := validateHeader(in); err != nil {
		return nil, err
	}
	if err := ValidateItems(in.Items); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the invoice and verify ownership.
	var ownerID int
	err = tx.QueryRow(ctx, "SELECT user_id FROM invoices WHERE id = $1 FOR UPDATE", invoiceID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewNotFound("invoice", invoiceID)
		}
		return nil, fmt.Errorf("failed to lock invoice %d: %w", invoiceID, err)
	}
	if ownerID != userID {
		return nil, NewNotFound("invoice", invoiceID)
	}

	existing, err := fetchItemsQ(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}

	// The quantities the old items consumed are being replaced, not newly
	// consumed: add them back before validating the new set. Restoring first
	// makes the per-pair availability seen by each ReserveTx equal to
	// currentStock + the quantity already committed to this invoice for that
	// product/variation.
	for _, item := range existing {
		if item.ProductID == nil {
			continue
		}
		if err := s.stock.RestoreTx(ctx, tx, *item.ProductID, item.VariationID, item.Quantity); err != nil {
			return nil, err
		}
	}

	// Replacement semantics: delete the full old set, insert the full new set.
	if _, err := tx.Exec(ctx, "DELETE FROM invoice_items WHERE invoice_id = $1", invoiceID); err != nil {
		return nil, fmt.Errorf("failed to delete invoice items: %w", err)
	}

	for _, item := range in.Items {
		if item.ProductID == nil {
			continue
		}
		if err := s.stock.ReserveTx(ctx, tx, *item.ProductID, item.VariationID, item.Quantity); err != nil {
			return nil, err
		}
	}

	total := ItemsTotal(in.Items)

	_, err = tx.Exec(ctx, `
		UPDATE invoices
		SET invoice_number = $1, invoice_name = $2, issue_date = $3, due_days = $4, currency = $5,
		    total = $6, note = $7,
		    from_name = $8, from_email = $9, from_address = $10,
		    client_name = $11, client_email = $12, client_address = $13,
		    updated_at = NOW()
		WHERE id = $14
	`, in.InvoiceNumber, in.InvoiceName, in.IssueDate, in.DueDays, in.Currency,
		total, in.Note,
		in.FromName, in.FromEmail, in.FromAddress,
		in.ClientName, in.ClientEmail, in.ClientAddress,
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice %d: %w", invoiceID, err)
	}

	if err := insertItemsTx(ctx, tx, invoiceID, in.Items); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice edit: %w", err)
	}

	return s.Get(ctx, userID, invoiceID)
}

func (s *invoiceService) Delete(ctx context.Context, userID, invoiceID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var ownerID int
	err = tx.QueryRow(ctx, "SELECT user_id FROM invoices WHERE id = $1 FOR UPDATE", invoiceID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return NewNotFound("invoice", invoiceID)
		}
		return fmt.Errorf("failed to lock invoice %d: %w", invoiceID, err)
	}
	if ownerID != userID {
		return NewNotFound("invoice", invoiceID)
	}

	items, err := fetchItemsQ(ctx, tx, invoiceID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		if err := s.stock.RestoreTx(ctx, tx, *item.ProductID, item.VariationID, item.Quantity); err != nil {
			return err
		}
	}

	// Items cascade via FK.
	if _, err := tx.Exec(ctx, "DELETE FROM invoices WHERE id = $1", invoiceID); err != nil {
		return fmt.Errorf("failed to delete invoice %d: %w", invoiceID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit invoice deletion: %w", err)
	}
	return nil
}

func (s *invoiceService) MarkAsPaid(ctx context.Context, userID, invoiceID int) (*Invoice, error) {
	return s.overrideStatus(ctx, userID, invoiceID, StatusPaid)
}

func (s *invoiceService) MarkEmailed(ctx context.Context, userID, invoiceID int) (*Invoice, error) {
	return s.overrideStatus(ctx, userID, invoiceID, StatusEmailed)
}

func (s *invoiceService) overrideStatus(ctx context.Context, userID, invoiceID int, status InvoiceStatus) (*Invoice, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3",
		status, invoiceID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set invoice %d status: %w", invoiceID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, NewNotFound("invoice", invoiceID)
	}
	return s.Get(ctx, userID, invoiceID)
}

const invoiceColumns = `
	id, user_id, invoice_number, invoice_name, issue_date, due_days, currency,
	total, total_paid, status, COALESCE(note, ''),
	from_name, from_email, from_address,
	client_name, client_email, client_address,
	created_at, updated_at`

func scanInvoice(row pgx.Row, inv *Invoice) error {
	return row.Scan(
		&inv.ID, &inv.UserID, &inv.InvoiceNumber, &inv.InvoiceName, &inv.IssueDate, &inv.DueDays, &inv.Currency,
		&inv.Total, &inv.TotalPaid, &inv.Status, &inv.Note,
		&inv.FromName, &inv.FromEmail, &inv.FromAddress,
		&inv.ClientName, &inv.ClientEmail, &inv.ClientAddress,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
}

func (s *invoiceService) Get(ctx context.Context, userID, invoiceID int) (*Invoice, error) {
	var inv Invoice
	err := scanInvoice(s.pool.QueryRow(ctx,
		"SELECT"+invoiceColumns+" FROM invoices WHERE id = $1 AND user_id = $2",
		invoiceID, userID,
	), &inv)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewNotFound("invoice", invoiceID)
		}
		return nil, fmt.Errorf("failed to fetch invoice %d: %w", invoiceID, err)
	}

	items, err := fetchItemsQ(ctx, s.pool, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return &inv, nil
}

func (s *invoiceService) List(ctx context.Context, userID int, status *InvoiceStatus) ([]Invoice, error) {
	query := "SELECT" + invoiceColumns + " FROM invoices WHERE user_id = $1"
	args := []any{userID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := scanInvoice(rows, &inv); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// query helpers.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func fetchItemsQ(ctx context.Context, q pgxQuerier, invoiceID int) ([]InvoiceItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, invoice_id, description, quantity, rate, product_id, variation_id
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice items: %w", err)
	}
	defer rows.Close()

	var items []InvoiceItem
	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Quantity, &it.Rate, &it.ProductID, &it.VariationID); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func insertItemsTx(ctx context.Context, tx pgx.Tx, invoiceID int, items []InvoiceItemInput) error {
	for i, item := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO invoice_items (invoice_id, description, quantity, rate, product_id, variation_id)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, invoiceID, item.Description, item.Quantity, item.Rate, item.ProductID, item.VariationID)
		if err != nil {
			return fmt.Errorf("failed to insert invoice item %d: %w", i+1, err)
		}
	}
	return nil
}
