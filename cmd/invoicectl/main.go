// invoicectl is the operator CLI: status sweeps and stock reports that would
// otherwise need direct SQL.
package main

import (
	"context"
	"fmt"
	"os"

	"invoice-marshal/internal/core"
	"invoice-marshal/internal/db"
	"invoice-marshal/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "invoicectl",
	Short: "Admin CLI for the invoicing service",
	Long: `invoicectl runs maintenance operations against the invoicing database:
periodic status sweeps and low-stock reports.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		return logger.Setup(logger.FromEnv())
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh-statuses",
	Short: "Re-derive every invoice's status from its payment ledger",
	Long: `Re-derives totalPaid and status for every invoice. Run this on a
schedule to move aging unpaid invoices to OVERDUE and clear stale
EMAILED markers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		pool, err := db.NewPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		paySvc := core.NewPaymentService(pool)
		log := logger.WithComponent("refresh")

		rows, err := pool.Query(ctx, "SELECT id FROM invoices ORDER BY id")
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}
		defer rows.Close()

		var ids []int
		for rows.Next() {
			var id int
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		refreshed := 0
		for _, id := range ids {
			if err := paySvc.RefreshStatus(ctx, id); err != nil {
				log.Error().Err(err).Int("invoice_id", id).Msg("refresh failed")
				continue
			}
			refreshed++
		}
		fmt.Printf("Refreshed %d of %d invoices.\n", refreshed, len(ids))
		return nil
	},
}

var lowStockCmd = &cobra.Command{
	Use:   "low-stock [user-id]",
	Short: "List tracked products at or below their reorder point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var userID int
		if _, err := fmt.Sscanf(args[0], "%d", &userID); err != nil {
			return fmt.Errorf("user-id must be an integer: %w", err)
		}

		ctx := context.Background()
		pool, err := db.NewPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		products, err := core.NewProductService(pool).ListLowStock(ctx, userID)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			fmt.Println("No low-stock products.")
			return nil
		}
		for _, p := range products {
			fmt.Printf("%-6d %-30s stock=%d reorder_point=%d\n", p.ID, p.Name, p.StockQty, p.ReorderPoint)
		}
		return nil
	},
}

func main() {
	rootCmd.AddCommand(refreshCmd, lowStockCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
