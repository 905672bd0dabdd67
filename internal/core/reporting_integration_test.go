package core_test

import (
	"context"
	"testing"

	"invoice-marshal/internal/core"
)

func TestReportingService_Dashboard(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	invSvc := core.NewInvoiceService(pool, core.NewStockService(pool))
	paySvc := core.NewPaymentService(pool)
	repSvc := core.NewReportingService(pool)

	a, err := invSvc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "A", Quantity: 1, Rate: d("100")},
	))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := invSvc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "B", Quantity: 1, Rate: d("200")},
	)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := paySvc.RecordPayment(ctx, 1, a.ID, d("100"), "", ""); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	// Another user's data stays out of the numbers.
	if _, err := invSvc.Create(ctx, 2, invoiceInput(
		core.InvoiceItemInput{Description: "C", Quantity: 1, Rate: d("999")},
	)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	seedProduct(t, pool, "LowWidget", 0) // tracked, reorder point 0 → low

	stats, err := repSvc.Dashboard(ctx, 1)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if !stats.Revenue.Equal(d("300")) {
		t.Errorf("Expected revenue 300, got %s", stats.Revenue)
	}
	if !stats.TotalPaid.Equal(d("100")) {
		t.Errorf("Expected total paid 100, got %s", stats.TotalPaid)
	}
	if !stats.Outstanding.Equal(d("200")) {
		t.Errorf("Expected outstanding 200, got %s", stats.Outstanding)
	}
	if stats.InvoicesIssued != 2 || stats.InvoicesPaid != 1 || stats.InvoicesOpen != 1 {
		t.Errorf("Unexpected counts: %+v", stats)
	}
	if stats.LowStockProducts != 1 {
		t.Errorf("Expected 1 low-stock product, got %d", stats.LowStockProducts)
	}
}
