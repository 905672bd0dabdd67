package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the set of currencies an invoice can be denominated in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Valid reports whether c is a supported currency code.
func (c Currency) Valid() bool {
	return c == CurrencyUSD || c == CurrencyEUR
}

// InvoiceStatus is the lifecycle state of an invoice.
//
// PENDING, PARTIALLY_PAID, PAID and OVERDUE are derived by ComputeStatus from
// the payment stream and the due date. EMAILED is a side-channel state set
// only when a reminder email is sent; the next payment or status refresh
// overwrites it with a derived state.
type InvoiceStatus string

const (
	StatusPending       InvoiceStatus = "PENDING"
	StatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	StatusPaid          InvoiceStatus = "PAID"
	StatusOverdue       InvoiceStatus = "OVERDUE"
	StatusEmailed       InvoiceStatus = "EMAILED"
)

// User is an application account. Onboarding fills in the name and address
// fields after signup.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Address      string    `json:"address"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Company is the per-user company profile. Its name and email take precedence
// over the invoice from-fields as the sender identity for outbound email, and
// it provides the branding block on rendered PDFs.
type Company struct {
	ID      int    `json:"id"`
	UserID  int    `json:"user_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
	Logo    string `json:"logo"`
	TaxID   string `json:"tax_id"`
}

// Invoice is a billing document owned by exactly one user. Total and TotalPaid
// are derived server-side: Total from the line items, TotalPaid from the
// payment ledger.
type Invoice struct {
	ID            int             `json:"id"`
	UserID        int             `json:"user_id"`
	InvoiceNumber int             `json:"invoice_number"` // per-user, user-assigned
	InvoiceName   string          `json:"invoice_name"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDays       int             `json:"due_days"` // days after IssueDate until due
	Currency      Currency        `json:"currency"`
	Total         decimal.Decimal `json:"total"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Status        InvoiceStatus   `json:"status"`
	Note          string          `json:"note"`
	FromName      string          `json:"from_name"`
	FromEmail     string          `json:"from_email"`
	FromAddress   string          `json:"from_address"`
	ClientName    string          `json:"client_name"`
	ClientEmail   string          `json:"client_email"`
	ClientAddress string          `json:"client_address"`
	Items         []InvoiceItem   `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DueDate returns the date after which an unpaid invoice counts as overdue.
func (inv *Invoice) DueDate() time.Time {
	return inv.IssueDate.AddDate(0, 0, inv.DueDays)
}

// InvoiceItem is one quantity × rate line on an invoice, optionally tied to a
// catalog product (and variation). Items are value-owned by the invoice: edits
// replace the whole set, deleting the invoice cascades.
type InvoiceItem struct {
	ID          int             `json:"id"`
	InvoiceID   int             `json:"invoice_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	ProductID   *int            `json:"product_id,omitempty"`
	VariationID *int            `json:"variation_id,omitempty"`
}

// Subtotal returns quantity × rate for this line.
func (it InvoiceItem) Subtotal() decimal.Decimal {
	return it.Rate.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Payment is one append-only row in an invoice's payment ledger. Payments are
// immutable once created; there is no edit or delete operation.
type Payment struct {
	ID          int             `json:"id"`
	InvoiceID   int             `json:"invoice_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	PaymentDate time.Time       `json:"payment_date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// InvoiceItemInput is one submitted line item, before product resolution.
type InvoiceItemInput struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	ProductID   *int            `json:"product_id,omitempty"`
	VariationID *int            `json:"variation_id,omitempty"`
}

// InvoiceInput is the header + items payload for creating or editing an invoice.
// Total is always recomputed from the items; a client-submitted total is never
// trusted.
type InvoiceInput struct {
	InvoiceNumber int
	InvoiceName   string
	IssueDate     time.Time
	DueDays       int
	Currency      Currency
	Note          string
	FromName      string
	FromEmail     string
	FromAddress   string
	ClientName    string
	ClientEmail   string
	ClientAddress string
	Items         []InvoiceItemInput
}
