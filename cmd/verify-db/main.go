// Command verify-db checks that the live database matches the schema the
// services expect: every table and column queried by the code must exist.
// Exit status is non-zero when anything is missing.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"invoice-marshal/internal/db"

	"github.com/joho/godotenv"
)

var expected = map[string][]string{
	"users": {
		"id", "email", "first_name", "last_name", "address", "password_hash", "created_at",
	},
	"companies": {
		"id", "user_id", "name", "email", "address", "phone", "website", "logo", "tax_id",
	},
	"products": {
		"id", "user_id", "name", "description", "sku", "type", "base_price", "currency",
		"track_stock", "stock_qty", "min_stock_level", "reorder_point", "created_at", "updated_at",
	},
	"product_variations": {
		"id", "product_id", "name", "value", "price_adjust", "stock_qty",
	},
	"invoices": {
		"id", "user_id", "invoice_number", "invoice_name", "issue_date", "due_days",
		"currency", "total", "total_paid", "status", "note",
		"from_name", "from_email", "from_address",
		"client_name", "client_email", "client_address", "created_at", "updated_at",
	},
	"invoice_items": {
		"id", "invoice_id", "description", "quantity", "rate", "product_id", "variation_id",
	},
	"payments": {
		"id", "invoice_id", "amount", "method", "notes", "payment_date", "created_at",
	},
}

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = 'public'
	`)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read schema: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	have := map[string]map[string]bool{}
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
			os.Exit(1)
		}
		if have[table] == nil {
			have[table] = map[string]bool{}
		}
		have[table][column] = true
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read schema: %v\n", err)
		os.Exit(1)
	}

	tables := make([]string, 0, len(expected))
	for t := range expected {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	missing := 0
	for _, table := range tables {
		cols := have[table]
		if cols == nil {
			fmt.Printf("MISSING table %s\n", table)
			missing++
			continue
		}
		for _, col := range expected[table] {
			if !cols[col] {
				fmt.Printf("MISSING column %s.%s\n", table, col)
				missing++
			}
		}
	}

	if missing > 0 {
		fmt.Printf("\n%d problem(s) found. Apply migrations/ and re-run.\n", missing)
		os.Exit(1)
	}
	fmt.Println("Schema OK: all expected tables and columns present.")
}
