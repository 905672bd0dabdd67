package app

import (
	"context"

	"invoice-marshal/internal/core"
)

// ApplicationService is the single interface all adapters (web, CLI) call.
// It decouples presentation from business logic: implementations contain no
// HTTP types and no display logic.
type ApplicationService interface {
	// SignUp registers a new account with a bcrypt-hashed password.
	SignUp(ctx context.Context, req SignUpRequest) (*core.User, error)

	// Authenticate verifies credentials and returns the user on success.
	// Unknown email and wrong password are indistinguishable to the caller.
	Authenticate(ctx context.Context, email, password string) (*core.User, error)

	// OnboardUser completes a fresh account's profile (name and address).
	OnboardUser(ctx context.Context, userID int, req OnboardRequest) (*core.User, error)

	// GetUser returns the user's profile.
	GetUser(ctx context.Context, userID int) (*core.User, error)

	// GetCompany returns the user's company profile, if configured.
	GetCompany(ctx context.Context, userID int) (*core.Company, error)

	// SaveCompany creates or updates the company profile.
	SaveCompany(ctx context.Context, userID int, req CompanyRequest) (*core.Company, error)

	// CreateInvoice validates and persists a new invoice, consuming stock for
	// catalog-linked items, then emails the client in the background.
	CreateInvoice(ctx context.Context, userID int, req InvoiceRequest) (*core.Invoice, error)

	// UpdateInvoice replaces the invoice's header and full item set, then
	// emails the client an updated copy in the background.
	UpdateInvoice(ctx context.Context, userID, invoiceID int, req InvoiceRequest) (*core.Invoice, error)

	// DeleteInvoice removes the invoice and returns consumed stock.
	DeleteInvoice(ctx context.Context, userID, invoiceID int) error

	GetInvoice(ctx context.Context, userID, invoiceID int) (*core.Invoice, error)
	ListInvoices(ctx context.Context, userID int, status *core.InvoiceStatus) ([]core.Invoice, error)

	// MarkInvoicePaid manually overrides the status to PAID without touching
	// the payment ledger.
	MarkInvoicePaid(ctx context.Context, userID, invoiceID int) (*core.Invoice, error)

	// SendReminder emails a payment reminder to the client and marks the
	// invoice EMAILED. The send is synchronous; a delivery failure is
	// reported and leaves the status untouched.
	SendReminder(ctx context.Context, userID, invoiceID int) (*core.Invoice, error)

	// RecordPayment appends a payment and re-derives totalPaid and status.
	RecordPayment(ctx context.Context, userID, invoiceID int, req PaymentRequest) (*core.Invoice, error)

	// ListPayments returns the invoice's payment history, newest first.
	ListPayments(ctx context.Context, userID, invoiceID int) ([]core.Payment, error)

	// RefreshStatuses re-derives the status of every invoice. Intended for a
	// periodic job; it moves aging unpaid invoices to OVERDUE.
	RefreshStatuses(ctx context.Context) (int, error)

	// RenderInvoicePDF produces the printable PDF, branded with the company
	// profile when one exists.
	RenderInvoicePDF(ctx context.Context, userID, invoiceID int) ([]byte, error)

	// Dashboard returns the summary metrics for the user.
	Dashboard(ctx context.Context, userID int) (*core.DashboardStats, error)

	CreateProduct(ctx context.Context, userID int, req ProductRequest) (*core.Product, error)
	UpdateProduct(ctx context.Context, userID, productID int, req ProductRequest) (*core.Product, error)
	DeleteProduct(ctx context.Context, userID, productID int) error
	GetProduct(ctx context.Context, userID, productID int) (*core.Product, error)
	ListProducts(ctx context.Context, userID int) ([]core.Product, error)
	SetProductStock(ctx context.Context, userID, productID, qty int) error
	ListLowStock(ctx context.Context, userID int) ([]core.Product, error)

	CreateVariation(ctx context.Context, userID, productID int, req VariationRequest) (*core.ProductVariation, error)
	UpdateVariation(ctx context.Context, userID, variationID int, req VariationRequest) (*core.ProductVariation, error)
	DeleteVariation(ctx context.Context, userID, variationID int) error
}
