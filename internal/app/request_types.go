package app

import "github.com/shopspring/decimal"

// SignUpRequest registers a new account.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// OnboardRequest completes a fresh account's profile.
type OnboardRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2"`
	LastName  string `json:"last_name" validate:"required,min=2"`
	Address   string `json:"address" validate:"required,min=2"`
}

// CompanyRequest creates or updates the company profile.
type CompanyRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Website string `json:"website" validate:"omitempty,url"`
	Logo    string `json:"logo" validate:"omitempty,url"`
	TaxID   string `json:"tax_id"`
}

// InvoiceRequest is the header + items payload for creating or editing an
// invoice. Items arrive as a serialized JSON array, the format the invoice
// form submits; it is parsed strictly by core.ParseInvoiceItems.
type InvoiceRequest struct {
	InvoiceNumber int    `json:"invoice_number" validate:"required,min=1"`
	InvoiceName   string `json:"invoice_name" validate:"required"`
	IssueDate     string `json:"issue_date" validate:"required"` // YYYY-MM-DD
	DueDays       int    `json:"due_days" validate:"min=0"`
	Currency      string `json:"currency" validate:"required,oneof=USD EUR"`
	Note          string `json:"note"`
	FromName      string `json:"from_name" validate:"required"`
	FromEmail     string `json:"from_email" validate:"required,email"`
	FromAddress   string `json:"from_address" validate:"required"`
	ClientName    string `json:"client_name" validate:"required"`
	ClientEmail   string `json:"client_email" validate:"required,email"`
	ClientAddress string `json:"client_address" validate:"required"`
	RawItems      string `json:"items" validate:"required"`
}

// PaymentRequest records one payment against an invoice.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Method string          `json:"method"`
	Notes  string          `json:"notes"`
}

// ProductRequest creates or updates a catalog product.
type ProductRequest struct {
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description"`
	SKU           string          `json:"sku"`
	Type          string          `json:"type" validate:"required,oneof=SERVICE PRODUCT"`
	BasePrice     decimal.Decimal `json:"base_price"`
	Currency      string          `json:"currency" validate:"required,oneof=USD EUR"`
	TrackStock    bool            `json:"track_stock"`
	StockQty      int             `json:"stock_qty" validate:"min=0"`
	MinStockLevel int             `json:"min_stock_level" validate:"min=0"`
	ReorderPoint  int             `json:"reorder_point" validate:"min=0"`
}

// VariationRequest creates or updates a product variation.
type VariationRequest struct {
	Name        string          `json:"name" validate:"required"`
	Value       string          `json:"value" validate:"required"`
	PriceAdjust decimal.Decimal `json:"price_adjust"`
	StockQty    int             `json:"stock_qty" validate:"min=0"`
}
