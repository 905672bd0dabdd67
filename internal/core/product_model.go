package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType distinguishes physical goods from services. Only PRODUCT items
// can carry stock.
type ProductType string

const (
	ProductTypeService ProductType = "SERVICE"
	ProductTypeProduct ProductType = "PRODUCT"
)

// Product is a catalog entry owned by a user. When TrackStock is set, StockQty
// is guarded against going negative by invoice-item creation.
type Product struct {
	ID            int                `json:"id"`
	UserID        int                `json:"user_id"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	SKU           string             `json:"sku,omitempty"`
	Type          ProductType        `json:"type"`
	BasePrice     decimal.Decimal    `json:"base_price"`
	Currency      Currency           `json:"currency"`
	TrackStock    bool               `json:"track_stock"`
	StockQty      int                `json:"stock_qty"`
	MinStockLevel int                `json:"min_stock_level"`
	ReorderPoint  int                `json:"reorder_point"`
	Variations    []ProductVariation `json:"variations,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// ProductVariation is a name/value variant of a product (e.g. "Size: L").
// PriceAdjust is added to the product base price; StockQty overrides the
// product-level stock when the variation is selected on an invoice item.
type ProductVariation struct {
	ID          int             `json:"id"`
	ProductID   int             `json:"product_id"`
	Name        string          `json:"name"`
	Value       string          `json:"value"`
	PriceAdjust decimal.Decimal `json:"price_adjust"`
	StockQty    int             `json:"stock_qty"`
}

// ProductInput is the payload for creating or updating a product.
type ProductInput struct {
	Name          string
	Description   string
	SKU           string
	Type          ProductType
	BasePrice     decimal.Decimal
	Currency      Currency
	TrackStock    bool
	StockQty      int
	MinStockLevel int
	ReorderPoint  int
}

// VariationInput is the payload for creating or updating a product variation.
type VariationInput struct {
	Name        string
	Value       string
	PriceAdjust decimal.Decimal
	StockQty    int
}
