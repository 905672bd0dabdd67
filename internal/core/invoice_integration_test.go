package core_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"invoice-marshal/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE payments, invoice_items, invoices, product_variations, products, companies, users RESTART IDENTITY CASCADE;

		INSERT INTO users (id, email, first_name, last_name, address, password_hash) VALUES
		(1, 'jan@example.com',   'Jan',   'Marshall', '1 Main St, Springfield', 'x'),
		(2, 'other@example.com', 'Other', 'User',     '2 Side St, Shelbyville', 'x');
		SELECT setval('users_id_seq', 2);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

// seedProduct inserts a stock-tracked product and returns its id.
func seedProduct(t *testing.T, pool *pgxpool.Pool, name string, stockQty int) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(), `
		INSERT INTO products (user_id, name, type, base_price, currency, track_stock, stock_qty)
		VALUES (1, $1, 'PRODUCT', 25.00, 'USD', true, $2)
		RETURNING id
	`, name, stockQty).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}
	return id
}

func getStockQty(t *testing.T, pool *pgxpool.Pool, productID int) int {
	t.Helper()
	var qty int
	err := pool.QueryRow(context.Background(),
		"SELECT stock_qty FROM products WHERE id = $1", productID).Scan(&qty)
	if err != nil {
		t.Fatalf("Failed to read stock: %v", err)
	}
	return qty
}

func invoiceInput(items ...core.InvoiceItemInput) core.InvoiceInput {
	return core.InvoiceInput{
		InvoiceNumber: 1,
		InvoiceName:   "Website build",
		IssueDate:     time.Now().UTC().Truncate(24 * time.Hour),
		DueDays:       30,
		Currency:      core.CurrencyUSD,
		FromName:      "Jan Marshall",
		FromEmail:     "jan@example.com",
		FromAddress:   "1 Main St, Springfield",
		ClientName:    "Acme Corp",
		ClientEmail:   "billing@acme.com",
		ClientAddress: "100 Acme Way",
		Items:         items,
	}
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestInvoiceService_CreateConsumesStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	productID := seedProduct(t, pool, "Widget", 5)
	svc := core.NewInvoiceService(pool, core.NewStockService(pool))

	inv, err := svc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Widget", Quantity: 5, Rate: d("25.00"), ProductID: &productID},
	))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if inv.Status != core.StatusPending {
		t.Errorf("Expected PENDING, got %s", inv.Status)
	}
	if !inv.Total.Equal(d("125.00")) {
		t.Errorf("Expected total 125.00, got %s", inv.Total)
	}
	if !inv.TotalPaid.IsZero() {
		t.Errorf("Expected total_paid 0, got %s", inv.TotalPaid)
	}
	if got := getStockQty(t, pool, productID); got != 0 {
		t.Errorf("Expected stock 0 after create, got %d", got)
	}

	// A second invoice for one more unit must fail and leave no trace.
	_, err = svc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Widget", Quantity: 1, Rate: d("25.00"), ProductID: &productID},
	))
	var stockErr *core.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 0 || stockErr.Requested != 1 {
		t.Errorf("Expected available=0 requested=1, got %+v", stockErr)
	}

	invoices, err := svc.List(ctx, 1, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(invoices) != 1 {
		t.Errorf("Failed create must not persist an invoice; have %d", len(invoices))
	}
}

func TestInvoiceService_CreateRollbackOnLaterItem(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	okID := seedProduct(t, pool, "Plentiful", 10)
	scarceID := seedProduct(t, pool, "Scarce", 1)
	svc := core.NewInvoiceService(pool, core.NewStockService(pool))

	// First item would succeed; second fails. Whole create must roll back,
	// including the first item's decrement.
	_, err := svc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Plentiful", Quantity: 4, Rate: d("10"), ProductID: &okID},
		core.InvoiceItemInput{Description: "Scarce", Quantity: 2, Rate: d("10"), ProductID: &scarceID},
	))
	var stockErr *core.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if got := getStockQty(t, pool, okID); got != 10 {
		t.Errorf("Expected first product's stock restored to 10, got %d", got)
	}
	if got := getStockQty(t, pool, scarceID); got != 1 {
		t.Errorf("Expected scarce stock untouched at 1, got %d", got)
	}
}

func TestInvoiceService_EditAddsBackExistingQuantity(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	productID := seedProduct(t, pool, "Widget", 5)
	svc := core.NewInvoiceService(pool, core.NewStockService(pool))

	inv, err := svc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Widget", Quantity: 3, Rate: d("25.00"), ProductID: &productID},
	))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got := getStockQty(t, pool, productID); got != 2 {
		t.Fatalf("Expected stock 2 after create, got %d", got)
	}

	// Raising the quantity to 4 must pass: availability for the edit is
	// current stock (2) plus the 3 units this invoice already holds.
	inv, err = svc.Edit(ctx, 1, inv.ID, invoiceInput(
		core.InvoiceItemInput{Description: "Widget", Quantity: 4, Rate: d("25.00"), ProductID: &productID},
	))
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if got := getStockQty(t, pool, productID); got != 1 {
		t.Errorf("Expected stock 1 after edit, got %d", got)
	}
	if !inv.Total.Equal(d("100.00")) {
		t.Errorf("Expected total 100.00 after edit, got %s", inv.Total)
	}
	if len(inv.Items) != 1 || inv.Items[0].Quantity != 4 {
		t.Errorf("Expected one item with quantity 4, got %+v", inv.Items)
	}

	// Asking for 6 exceeds current + held (1 + 4 = 5): the edit must fail and
	// change nothing.
	_, err = svc.Edit(ctx, 1, inv.ID, invoiceInput(
		core.InvoiceItemInput{Description: "Widget", Quantity: 6, Rate: d("25.00"), ProductID: &productID},
	))
	var stockErr *core.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if got := getStockQty(t, pool, productID); got != 1 {
		t.Errorf("Expected stock still 1 after failed edit, got %d", got)
	}
	inv, err = svc.Get(ctx, 1, inv.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(inv.Items) != 1 || inv.Items[0].Quantity != 4 {
		t.Errorf("Failed edit must not change items, got %+v", inv.Items)
	}
}

func TestInvoiceService_DeleteRestoresStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	productID := seedProduct(t, pool, "Widget", 5)
	svc := core.NewInvoiceService(pool, core.NewStockService(pool))

	inv, err := svc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Widget", Quantity: 5, Rate: d("25.00"), ProductID: &productID},
	))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got := getStockQty(t, pool, productID); got != 0 {
		t.Fatalf("Expected stock 0 after create, got %d", got)
	}

	if err := svc.Delete(ctx, 1, inv.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got := getStockQty(t, pool, productID); got != 5 {
		t.Errorf("Expected stock restored to 5 after delete, got %d", got)
	}
	if _, err := svc.Get(ctx, 1, inv.ID); err == nil {
		t.Error("Expected deleted invoice to be gone")
	}

	// Items must be gone too (cascade).
	var itemCount int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM invoice_items WHERE invoice_id = $1", inv.ID).Scan(&itemCount); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if itemCount != 0 {
		t.Errorf("Expected 0 items after delete, got %d", itemCount)
	}
}

func TestInvoiceService_VariationStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	productID := seedProduct(t, pool, "Shirt", 100)
	var variationID int
	err := pool.QueryRow(ctx, `
		INSERT INTO product_variations (product_id, name, value, price_adjust, stock_qty)
		VALUES ($1, 'Size', 'L', 0, 3) RETURNING id
	`, productID).Scan(&variationID)
	if err != nil {
		t.Fatalf("Failed to seed variation: %v", err)
	}

	svc := core.NewInvoiceService(pool, core.NewStockService(pool))

	// Variation-level stock (3) governs, not the product-level 100.
	_, err = svc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Shirt L", Quantity: 4, Rate: d("20"), ProductID: &productID, VariationID: &variationID},
	))
	var stockErr *core.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 3 {
		t.Errorf("Expected available=3 (variation level), got %d", stockErr.Available)
	}

	if _, err = svc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Shirt L", Quantity: 3, Rate: d("20"), ProductID: &productID, VariationID: &variationID},
	)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var varQty int
	if err := pool.QueryRow(ctx, "SELECT stock_qty FROM product_variations WHERE id = $1", variationID).Scan(&varQty); err != nil {
		t.Fatalf("Read variation stock: %v", err)
	}
	if varQty != 0 {
		t.Errorf("Expected variation stock 0, got %d", varQty)
	}
	if got := getStockQty(t, pool, productID); got != 100 {
		t.Errorf("Expected product-level stock untouched at 100, got %d", got)
	}
}

func TestInvoiceService_OwnershipIsNotFound(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	svc := core.NewInvoiceService(pool, core.NewStockService(pool))

	inv, err := svc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Consulting", Quantity: 2, Rate: d("150")},
	))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// User 2 must see user 1's invoice as missing, on every operation.
	var nf *core.NotFoundError
	if _, err := svc.Get(ctx, 2, inv.ID); !errors.As(err, &nf) {
		t.Errorf("Get as other user: expected NotFoundError, got %v", err)
	}
	if _, err := svc.Edit(ctx, 2, inv.ID, invoiceInput(
		core.InvoiceItemInput{Description: "x", Quantity: 1, Rate: d("1")},
	)); !errors.As(err, &nf) {
		t.Errorf("Edit as other user: expected NotFoundError, got %v", err)
	}
	if err := svc.Delete(ctx, 2, inv.ID); !errors.As(err, &nf) {
		t.Errorf("Delete as other user: expected NotFoundError, got %v", err)
	}
	if _, err := svc.MarkAsPaid(ctx, 2, inv.ID); !errors.As(err, &nf) {
		t.Errorf("MarkAsPaid as other user: expected NotFoundError, got %v", err)
	}

	// And the invoice is untouched.
	got, err := svc.Get(ctx, 1, inv.ID)
	if err != nil {
		t.Fatalf("Get as owner failed: %v", err)
	}
	if got.Status != core.StatusPending {
		t.Errorf("Expected PENDING, got %s", got.Status)
	}
}

func TestInvoiceService_MarkAsPaidLeavesTotalPaid(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	svc := core.NewInvoiceService(pool, core.NewStockService(pool))

	inv, err := svc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Consulting", Quantity: 1, Rate: d("100")},
	))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	inv, err = svc.MarkAsPaid(ctx, 1, inv.ID)
	if err != nil {
		t.Fatalf("MarkAsPaid failed: %v", err)
	}
	if inv.Status != core.StatusPaid {
		t.Errorf("Expected PAID, got %s", inv.Status)
	}
	if !inv.TotalPaid.IsZero() {
		t.Errorf("MarkAsPaid must not touch total_paid; got %s", inv.TotalPaid)
	}

	var paymentCount int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM payments WHERE invoice_id = $1", inv.ID).Scan(&paymentCount); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if paymentCount != 0 {
		t.Errorf("MarkAsPaid must not create payments; got %d", paymentCount)
	}
}

func TestInvoiceService_MarkEmailed(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	stockSvc := core.NewStockService(pool)
	svc := core.NewInvoiceService(pool, stockSvc)
	paySvc := core.NewPaymentService(pool)

	inv, err := svc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Consulting", Quantity: 1, Rate: d("100")},
	))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	inv, err = svc.MarkEmailed(ctx, 1, inv.ID)
	if err != nil {
		t.Fatalf("MarkEmailed failed: %v", err)
	}
	if inv.Status != core.StatusEmailed {
		t.Errorf("Expected EMAILED, got %s", inv.Status)
	}

	// The next payment overwrites the marker with a derived status.
	inv, err = paySvc.RecordPayment(ctx, 1, inv.ID, d("40"), "", "")
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if inv.Status != core.StatusPartiallyPaid {
		t.Errorf("Expected PARTIALLY_PAID after payment, got %s", inv.Status)
	}
}

func TestInvoiceService_ListFilterByStatus(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	svc := core.NewInvoiceService(pool, core.NewStockService(pool))

	a, err := svc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "A", Quantity: 1, Rate: d("10")},
	))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "B", Quantity: 1, Rate: d("20")},
	)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.MarkAsPaid(ctx, 1, a.ID); err != nil {
		t.Fatalf("MarkAsPaid failed: %v", err)
	}

	paid := core.StatusPaid
	got, err := svc.List(ctx, 1, &paid)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("Expected only invoice %d PAID, got %+v", a.ID, got)
	}

	all, err := svc.List(ctx, 1, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 invoices, got %d", len(all))
	}
}

func TestStockService_ReserveRestoreRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	productID := seedProduct(t, pool, "Widget", 7)
	stockSvc := core.NewStockService(pool)

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer tx.Rollback(ctx)

	if err := stockSvc.ReserveTx(ctx, tx, productID, nil, 4); err != nil {
		t.Fatalf("ReserveTx failed: %v", err)
	}
	if err := stockSvc.RestoreTx(ctx, tx, productID, nil, 4); err != nil {
		t.Fatalf("RestoreTx failed: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if got := getStockQty(t, pool, productID); got != 7 {
		t.Errorf("Expected stock back at 7 after round trip, got %d", got)
	}

	info, err := stockSvc.GetStock(ctx, productID, nil)
	if err != nil {
		t.Fatalf("GetStock failed: %v", err)
	}
	if info.Qty != 7 || !info.TrackStock {
		t.Errorf("Unexpected stock info: %+v", info)
	}
}

func TestStockService_UntrackedProductIsNoop(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	var productID int
	err := pool.QueryRow(ctx, `
		INSERT INTO products (user_id, name, type, base_price, currency, track_stock, stock_qty)
		VALUES (1, 'Consulting', 'SERVICE', 150.00, 'USD', false, 0)
		RETURNING id
	`).Scan(&productID)
	if err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}

	svc := core.NewInvoiceService(pool, core.NewStockService(pool))

	// Any quantity passes for an untracked product, and stock stays put.
	if _, err := svc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Consulting", Quantity: 500, Rate: d("150"), ProductID: &productID},
	)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got := getStockQty(t, pool, productID); got != 0 {
		t.Errorf("Expected stock unchanged at 0, got %d", got)
	}
}
