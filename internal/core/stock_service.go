package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StockInfo is the locked view of a (product, variation) stock position.
type StockInfo struct {
	ProductName string
	TrackStock  bool
	Qty         int // variation-level when a variation is selected, else product-level
}

// StockService tracks per-product and per-variation available quantity.
//
// All mutating operations are TX-scoped: availability checks and the matching
// decrement happen on rows locked inside the caller's invoice transaction, so
// two concurrent invoice writes against the same low-stock product cannot both
// pass validation. There is no separate reservation hold — the decrement is the
// reservation.
type StockService interface {
	// AvailableTx locks the stock row(s) for the pair and returns the current
	// position. The lock is held until the caller's transaction ends.
	AvailableTx(ctx context.Context, tx pgx.Tx, productID int, variationID *int) (StockInfo, error)
	// ReserveTx checks availability and decrements in one step. Products that
	// do not track stock are a no-op. Fails with InsufficientStockError when
	// available < qty.
	ReserveTx(ctx context.Context, tx pgx.Tx, productID int, variationID *int, qty int) error
	// RestoreTx increments the relevant stock quantity by qty; used when
	// invoice items are removed. No-op for untracked products.
	RestoreTx(ctx context.Context, tx pgx.Tx, productID int, variationID *int, qty int) error
	// GetStock is a read-only convenience lookup outside any transaction.
	GetStock(ctx context.Context, productID int, variationID *int) (StockInfo, error)
}

type stockService struct {
	pool *pgxpool.Pool
}

func NewStockService(pool *pgxpool.Pool) StockService {
	return &stockService{pool: pool}
}

func (s *stockService) AvailableTx(ctx context.Context, tx pgx.Tx, productID int, variationID *int) (StockInfo, error) {
	var info StockInfo
	err := tx.QueryRow(ctx,
		"SELECT name, track_stock, stock_qty FROM products WHERE id = $1 FOR UPDATE",
		productID,
	).Scan(&info.ProductName, &info.TrackStock, &info.Qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockInfo{}, NewNotFound("product", productID)
		}
		return StockInfo{}, fmt.Errorf("failed to lock product %d: %w", productID, err)
	}

	if variationID != nil {
		err = tx.QueryRow(ctx,
			"SELECT stock_qty FROM product_variations WHERE id = $1 AND product_id = $2 FOR UPDATE",
			*variationID, productID,
		).Scan(&info.Qty)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return StockInfo{}, NewNotFound("variation", *variationID)
			}
			return StockInfo{}, fmt.Errorf("failed to lock variation %d: %w", *variationID, err)
		}
	}
	return info, nil
}

func (s *stockService) ReserveTx(ctx context.Context, tx pgx.Tx, productID int, variationID *int, qty int) error {
	info, err := s.AvailableTx(ctx, tx, productID, variationID)
	if err != nil {
		return err
	}
	if !info.TrackStock {
		return nil
	}
	if info.Qty < qty {
		return &InsufficientStockError{ProductName: info.ProductName, Available: info.Qty, Requested: qty}
	}
	return s.adjustTx(ctx, tx, productID, variationID, -qty)
}

func (s *stockService) RestoreTx(ctx context.Context, tx pgx.Tx, productID int, variationID *int, qty int) error {
	info, err := s.AvailableTx(ctx, tx, productID, variationID)
	if err != nil {
		return err
	}
	if !info.TrackStock {
		return nil
	}
	return s.adjustTx(ctx, tx, productID, variationID, qty)
}

// adjustTx applies a signed delta to the variation-level quantity when a
// variation is selected, otherwise to the product-level quantity. Callers hold
// the row lock via AvailableTx.
func (s *stockService) adjustTx(ctx context.Context, tx pgx.Tx, productID int, variationID *int, delta int) error {
	if variationID != nil {
		_, err := tx.Exec(ctx,
			"UPDATE product_variations SET stock_qty = stock_qty + $1 WHERE id = $2",
			delta, *variationID,
		)
		if err != nil {
			return fmt.Errorf("failed to adjust stock for variation %d: %w", *variationID, err)
		}
		return nil
	}
	_, err := tx.Exec(ctx,
		"UPDATE products SET stock_qty = stock_qty + $1, updated_at = NOW() WHERE id = $2",
		delta, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to adjust stock for product %d: %w", productID, err)
	}
	return nil
}

func (s *stockService) GetStock(ctx context.Context, productID int, variationID *int) (StockInfo, error) {
	var info StockInfo
	err := s.pool.QueryRow(ctx,
		"SELECT name, track_stock, stock_qty FROM products WHERE id = $1",
		productID,
	).Scan(&info.ProductName, &info.TrackStock, &info.Qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockInfo{}, NewNotFound("product", productID)
		}
		return StockInfo{}, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}
	if variationID != nil {
		err = s.pool.QueryRow(ctx,
			"SELECT stock_qty FROM product_variations WHERE id = $1 AND product_id = $2",
			*variationID, productID,
		).Scan(&info.Qty)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return StockInfo{}, NewNotFound("variation", *variationID)
			}
			return StockInfo{}, fmt.Errorf("failed to fetch variation %d: %w", *variationID, err)
		}
	}
	return info, nil
}
