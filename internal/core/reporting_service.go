package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DashboardStats is the summary block shown on the dashboard: headline money
// figures plus lifecycle counts for the user's invoices.
type DashboardStats struct {
	Revenue          decimal.Decimal `json:"revenue"`     // sum of all invoice totals
	TotalPaid        decimal.Decimal `json:"total_paid"`  // sum of derived paid amounts
	Outstanding      decimal.Decimal `json:"outstanding"` // revenue - total paid, floored at 0
	InvoicesIssued   int             `json:"invoices_issued"`
	InvoicesPaid     int             `json:"invoices_paid"`
	InvoicesOpen     int             `json:"invoices_open"` // everything not PAID
	InvoicesOverdue  int             `json:"invoices_overdue"`
	LowStockProducts int             `json:"low_stock_products"`
}

type ReportingService interface {
	Dashboard(ctx context.Context, userID int) (*DashboardStats, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) Dashboard(ctx context.Context, userID int) (*DashboardStats, error) {
	var stats DashboardStats
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0),
		       COALESCE(SUM(total_paid), 0),
		       COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'PAID'),
		       COUNT(*) FILTER (WHERE status <> 'PAID'),
		       COUNT(*) FILTER (WHERE status = 'OVERDUE')
		FROM invoices
		WHERE user_id = $1
	`, userID).Scan(
		&stats.Revenue, &stats.TotalPaid,
		&stats.InvoicesIssued, &stats.InvoicesPaid, &stats.InvoicesOpen, &stats.InvoicesOverdue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate invoices for user %d: %w", userID, err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM products
		WHERE user_id = $1 AND track_stock = true AND stock_qty <= reorder_point
	`, userID).Scan(&stats.LowStockProducts)
	if err != nil {
		return nil, fmt.Errorf("failed to count low-stock products for user %d: %w", userID, err)
	}

	stats.Outstanding = stats.Revenue.Sub(stats.TotalPaid)
	if stats.Outstanding.IsNegative() {
		stats.Outstanding = decimal.Zero
	}
	return &stats, nil
}
