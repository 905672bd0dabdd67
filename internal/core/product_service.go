package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductService manages the per-user product catalog and its variations.
// Variation ownership is always checked through the parent product.
type ProductService interface {
	Create(ctx context.Context, userID int, in ProductInput) (*Product, error)
	Update(ctx context.Context, userID, productID int, in ProductInput) (*Product, error)
	Delete(ctx context.Context, userID, productID int) error
	// Get returns the product with its variations loaded.
	Get(ctx context.Context, userID, productID int) (*Product, error)
	List(ctx context.Context, userID int) ([]Product, error)
	// SetStock overwrites the product-level stock quantity (manual adjustment).
	SetStock(ctx context.Context, userID, productID, qty int) error
	// ListLowStock returns tracked products at or below their reorder point.
	ListLowStock(ctx context.Context, userID int) ([]Product, error)

	CreateVariation(ctx context.Context, userID, productID int, in VariationInput) (*ProductVariation, error)
	UpdateVariation(ctx context.Context, userID, variationID int, in VariationInput) (*ProductVariation, error)
	DeleteVariation(ctx context.Context, userID, variationID int) error
}

type productService struct {
	pool *pgxpool.Pool
}

func NewProductService(pool *pgxpool.Pool) ProductService {
	return &productService{pool: pool}
}

func validateProduct(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "product name is required"}
	}
	if in.Type != ProductTypeService && in.Type != ProductTypeProduct {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unsupported product type %q", in.Type)}
	}
	if in.BasePrice.IsNegative() {
		return &ValidationError{Field: "base_price", Message: "price must be 0 or greater"}
	}
	if !in.Currency.Valid() {
		return &ValidationError{Field: "currency", Message: fmt.Sprintf("unsupported currency %q", in.Currency)}
	}
	if in.StockQty < 0 {
		return &ValidationError{Field: "stock_qty", Message: "stock quantity must be 0 or greater"}
	}
	if in.MinStockLevel < 0 {
		return &ValidationError{Field: "min_stock_level", Message: "minimum stock level must be 0 or greater"}
	}
	if in.ReorderPoint < 0 {
		return &ValidationError{Field: "reorder_point", Message: "reorder point must be 0 or greater"}
	}
	return nil
}

const productColumns = `
	id, user_id, name, COALESCE(description, ''), COALESCE(sku, ''), type, base_price, currency,
	track_stock, stock_qty, min_stock_level, reorder_point, created_at, updated_at`

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Description, &p.SKU, &p.Type, &p.BasePrice, &p.Currency,
		&p.TrackStock, &p.StockQty, &p.MinStockLevel, &p.ReorderPoint, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (s *productService) Create(ctx context.Context, userID int, in ProductInput) (*Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (user_id, name, description, sku, type, base_price, currency,
		                      track_stock, stock_qty, min_stock_level, reorder_point)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, userID, in.Name, in.Description, in.SKU, in.Type, in.BasePrice, in.Currency,
		in.TrackStock, in.StockQty, in.MinStockLevel, in.ReorderPoint,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return s.Get(ctx, userID, id)
}

func (s *productService) Update(ctx context.Context, userID, productID int, in ProductInput) (*Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET name = $1, description = NULLIF($2, ''), sku = NULLIF($3, ''), type = $4,
		    base_price = $5, currency = $6, track_stock = $7, stock_qty = $8,
		    min_stock_level = $9, reorder_point = $10, updated_at = NOW()
		WHERE id = $11 AND user_id = $12
	`, in.Name, in.Description, in.SKU, in.Type,
		in.BasePrice, in.Currency, in.TrackStock, in.StockQty,
		in.MinStockLevel, in.ReorderPoint, productID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, NewNotFound("product", productID)
	}
	return s.Get(ctx, userID, productID)
}

func (s *productService) Delete(ctx context.Context, userID, productID int) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM products WHERE id = $1 AND user_id = $2", productID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return NewNotFound("product", productID)
	}
	return nil
}

func (s *productService) Get(ctx context.Context, userID, productID int) (*Product, error) {
	var p Product
	err := scanProduct(s.pool.QueryRow(ctx,
		"SELECT"+productColumns+" FROM products WHERE id = $1 AND user_id = $2",
		productID, userID,
	), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, name, value, price_adjust, stock_qty
		FROM product_variations
		WHERE product_id = $1
		ORDER BY id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query variations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v ProductVariation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Value, &v.PriceAdjust, &v.StockQty); err != nil {
			return nil, fmt.Errorf("failed to scan variation: %w", err)
		}
		p.Variations = append(p.Variations, v)
	}
	return &p, rows.Err()
}

func (s *productService) List(ctx context.Context, userID int) ([]Product, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT"+productColumns+" FROM products WHERE user_id = $1 ORDER BY name", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *productService) SetStock(ctx context.Context, userID, productID, qty int) error {
	if qty < 0 {
		return &ValidationError{Field: "stock_qty", Message: "stock quantity must be 0 or greater"}
	}
	tag, err := s.pool.Exec(ctx,
		"UPDATE products SET stock_qty = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3",
		qty, productID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set stock for product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return NewNotFound("product", productID)
	}
	return nil
}

func (s *productService) ListLowStock(ctx context.Context, userID int) ([]Product, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT"+productColumns+` FROM products
		 WHERE user_id = $1 AND track_stock = true AND stock_qty <= reorder_point
		 ORDER BY stock_qty, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query low-stock products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ── Variations ───────────────────────────────────────────────────────────────

func validateVariation(in VariationInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "variation name is required"}
	}
	if strings.TrimSpace(in.Value) == "" {
		return &ValidationError{Field: "value", Message: "variation value is required"}
	}
	if in.StockQty < 0 {
		return &ValidationError{Field: "stock_qty", Message: "stock quantity must be 0 or greater"}
	}
	return nil
}

func (s *productService) CreateVariation(ctx context.Context, userID, productID int, in VariationInput) (*ProductVariation, error) {
	if err := validateVariation(in); err != nil {
		return nil, err
	}

	// The parent product must belong to the caller.
	var ownerID int
	err := s.pool.QueryRow(ctx, "SELECT user_id FROM products WHERE id = $1", productID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}
	if ownerID != userID {
		return nil, NewNotFound("product", productID)
	}

	var v ProductVariation
	err = s.pool.QueryRow(ctx, `
		INSERT INTO product_variations (product_id, name, value, price_adjust, stock_qty)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, product_id, name, value, price_adjust, stock_qty
	`, productID, in.Name, in.Value, in.PriceAdjust, in.StockQty,
	).Scan(&v.ID, &v.ProductID, &v.Name, &v.Value, &v.PriceAdjust, &v.StockQty)
	if err != nil {
		return nil, fmt.Errorf("failed to create variation: %w", err)
	}
	return &v, nil
}

func (s *productService) UpdateVariation(ctx context.Context, userID, variationID int, in VariationInput) (*ProductVariation, error) {
	if err := validateVariation(in); err != nil {
		return nil, err
	}

	var v ProductVariation
	err := s.pool.QueryRow(ctx, `
		UPDATE product_variations pv
		SET name = $1, value = $2, price_adjust = $3, stock_qty = $4
		FROM products p
		WHERE pv.id = $5 AND p.id = pv.product_id AND p.user_id = $6
		RETURNING pv.id, pv.product_id, pv.name, pv.value, pv.price_adjust, pv.stock_qty
	`, in.Name, in.Value, in.PriceAdjust, in.StockQty, variationID, userID,
	).Scan(&v.ID, &v.ProductID, &v.Name, &v.Value, &v.PriceAdjust, &v.StockQty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewNotFound("variation", variationID)
		}
		return nil, fmt.Errorf("failed to update variation %d: %w", variationID, err)
	}
	return &v, nil
}

func (s *productService) DeleteVariation(ctx context.Context, userID, variationID int) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM product_variations pv
		USING products p
		WHERE pv.id = $1 AND p.id = pv.product_id AND p.user_id = $2
	`, variationID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete variation %d: %w", variationID, err)
	}
	if tag.RowsAffected() == 0 {
		return NewNotFound("variation", variationID)
	}
	return nil
}
