package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"invoice-marshal/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

func setupPaymentTest(t *testing.T) (*pgxpool.Pool, core.InvoiceService, core.PaymentService, context.Context) {
	t.Helper()
	pool := setupTestDB(t)
	return pool, core.NewInvoiceService(pool, core.NewStockService(pool)), core.NewPaymentService(pool), context.Background()
}

func TestPaymentService_PartialThenFull(t *testing.T) {
	pool, invSvc, paySvc, ctx := setupPaymentTest(t)
	defer pool.Close()

	inv, err := invSvc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Consulting", Quantity: 1, Rate: d("100.00")},
	))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// 40 of 100 → PARTIALLY_PAID
	inv, err = paySvc.RecordPayment(ctx, 1, inv.ID, d("40.00"), "bank_transfer", "first installment")
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if inv.Status != core.StatusPartiallyPaid {
		t.Errorf("Expected PARTIALLY_PAID, got %s", inv.Status)
	}
	if !inv.TotalPaid.Equal(d("40.00")) {
		t.Errorf("Expected total_paid 40.00, got %s", inv.TotalPaid)
	}

	// +60 → PAID
	inv, err = paySvc.RecordPayment(ctx, 1, inv.ID, d("60.00"), "cash", "")
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if inv.Status != core.StatusPaid {
		t.Errorf("Expected PAID, got %s", inv.Status)
	}
	if !inv.TotalPaid.Equal(d("100.00")) {
		t.Errorf("Expected total_paid 100.00, got %s", inv.TotalPaid)
	}

	payments, err := paySvc.ListPayments(ctx, 1, inv.ID)
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("Expected 2 payments, got %d", len(payments))
	}
	// Newest first.
	if !payments[0].Amount.Equal(d("60.00")) || !payments[1].Amount.Equal(d("40.00")) {
		t.Errorf("Expected newest-first ordering, got %s then %s", payments[0].Amount, payments[1].Amount)
	}
	if payments[1].Method != "bank_transfer" || payments[1].Notes != "first installment" {
		t.Errorf("Unexpected payment metadata: %+v", payments[1])
	}
}

func TestPaymentService_OverpaymentAndDoubleSubmit(t *testing.T) {
	pool, invSvc, paySvc, ctx := setupPaymentTest(t)
	defer pool.Close()

	inv, err := invSvc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Consulting", Quantity: 1, Rate: d("100.00")},
	))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// The same amount twice is two payments, not one: there is no dedup.
	if _, err = paySvc.RecordPayment(ctx, 1, inv.ID, d("80.00"), "", ""); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	inv, err = paySvc.RecordPayment(ctx, 1, inv.ID, d("80.00"), "", "")
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if !inv.TotalPaid.Equal(d("160.00")) {
		t.Errorf("Expected total_paid 160.00, got %s", inv.TotalPaid)
	}
	if inv.Status != core.StatusPaid {
		t.Errorf("Overpayment must still read PAID, got %s", inv.Status)
	}
}

func TestPaymentService_RejectsNonPositiveAmount(t *testing.T) {
	pool, invSvc, paySvc, ctx := setupPaymentTest(t)
	defer pool.Close()

	inv, err := invSvc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Consulting", Quantity: 1, Rate: d("100.00")},
	))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var verr *core.ValidationError
	if _, err := paySvc.RecordPayment(ctx, 1, inv.ID, d("0"), "", ""); !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError for zero amount, got %v", err)
	}
	if _, err := paySvc.RecordPayment(ctx, 1, inv.ID, d("-5"), "", ""); !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError for negative amount, got %v", err)
	}

	payments, err := paySvc.ListPayments(ctx, 1, inv.ID)
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	if len(payments) != 0 {
		t.Errorf("Rejected payments must not persist; have %d", len(payments))
	}
}

func TestPaymentService_OwnershipIsNotFound(t *testing.T) {
	pool, invSvc, paySvc, ctx := setupPaymentTest(t)
	defer pool.Close()

	inv, err := invSvc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Consulting", Quantity: 1, Rate: d("100.00")},
	))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var nf *core.NotFoundError
	if _, err := paySvc.RecordPayment(ctx, 2, inv.ID, d("40"), "", ""); !errors.As(err, &nf) {
		t.Errorf("RecordPayment as other user: expected NotFoundError, got %v", err)
	}
	if _, err := paySvc.ListPayments(ctx, 2, inv.ID); !errors.As(err, &nf) {
		t.Errorf("ListPayments as other user: expected NotFoundError, got %v", err)
	}
}

func TestPaymentService_RefreshStatusMovesToOverdue(t *testing.T) {
	pool, invSvc, paySvc, ctx := setupPaymentTest(t)
	defer pool.Close()

	in := invoiceInput(
		core.InvoiceItemInput{Description: "Consulting", Quantity: 1, Rate: d("100.00")},
	)
	in.IssueDate = time.Now().UTC().AddDate(0, 0, -45)
	in.DueDays = 30

	inv, err := invSvc.Create(ctx, 1, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	// Create always lands at PENDING; the refresh derives the real state.
	if inv.Status != core.StatusPending {
		t.Fatalf("Expected PENDING at creation, got %s", inv.Status)
	}

	if err := paySvc.RefreshStatus(ctx, inv.ID); err != nil {
		t.Fatalf("RefreshStatus failed: %v", err)
	}
	inv, err = invSvc.Get(ctx, 1, inv.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if inv.Status != core.StatusOverdue {
		t.Errorf("Expected OVERDUE after refresh, got %s", inv.Status)
	}

	// A partial payment suppresses OVERDUE even past the due date.
	inv, err = paySvc.RecordPayment(ctx, 1, inv.ID, d("10"), "", "")
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if inv.Status != core.StatusPartiallyPaid {
		t.Errorf("Expected PARTIALLY_PAID, got %s", inv.Status)
	}
	if err := paySvc.RefreshStatus(ctx, inv.ID); err != nil {
		t.Fatalf("RefreshStatus failed: %v", err)
	}
	inv, err = invSvc.Get(ctx, 1, inv.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if inv.Status != core.StatusPartiallyPaid {
		t.Errorf("Refresh must keep PARTIALLY_PAID, got %s", inv.Status)
	}
}

func TestPaymentService_RefreshOverridesManualPaid(t *testing.T) {
	pool, invSvc, paySvc, ctx := setupPaymentTest(t)
	defer pool.Close()

	inv, err := invSvc.Create(ctx, 1, invoiceInput(
		core.InvoiceItemInput{Description: "Consulting", Quantity: 1, Rate: d("100.00")},
	))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Manual PAID with an empty ledger does not survive a refresh: the
	// derived state wins.
	if _, err := invSvc.MarkAsPaid(ctx, 1, inv.ID); err != nil {
		t.Fatalf("MarkAsPaid failed: %v", err)
	}
	if err := paySvc.RefreshStatus(ctx, inv.ID); err != nil {
		t.Fatalf("RefreshStatus failed: %v", err)
	}
	inv, err = invSvc.Get(ctx, 1, inv.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if inv.Status != core.StatusPending {
		t.Errorf("Expected refresh to re-derive PENDING, got %s", inv.Status)
	}
}
