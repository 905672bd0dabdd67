// Command seed loads a demo account with a product catalog, invoices and a
// partial payment history so the API has realistic data to serve locally.
package main

import (
	"context"
	"time"

	"invoice-marshal/internal/core"
	"invoice-marshal/internal/db"
	"invoice-marshal/internal/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "demo-password"
)

func main() {
	_ = godotenv.Load()
	if err := logger.Setup(logger.FromEnv()); err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash demo password")
	}

	var userID int
	err = pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, address)
		VALUES ($1, $2, 'Demo', 'User', '1 Demo Street, Springfield')
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash
		RETURNING id
	`, demoEmail, string(hash)).Scan(&userID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed demo user")
	}
	log.Info().Int("user_id", userID).Str("email", demoEmail).Msg("demo user ready")

	if _, err := core.NewCompanyService(pool).Upsert(ctx, userID, core.CompanyInput{
		Name:    "Acme Consulting LLC",
		Email:   "billing@acme.example.com",
		Address: "42 Factory Road, Springfield",
		Phone:   "+1 555 0100",
		Website: "https://acme.example.com",
		TaxID:   "US-99-1234567",
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to seed company profile")
	}

	products := core.NewProductService(pool)

	consulting, err := products.Create(ctx, userID, core.ProductInput{
		Name:      "Consulting (hourly)",
		Type:      core.ProductTypeService,
		BasePrice: decimal.RequireFromString("150.00"),
		Currency:  core.CurrencyUSD,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed consulting product")
	}

	widget, err := products.Create(ctx, userID, core.ProductInput{
		Name:          "Widget",
		Description:   "Standard widget, boxed",
		SKU:           "WID-001",
		Type:          core.ProductTypeProduct,
		BasePrice:     decimal.RequireFromString("49.90"),
		Currency:      core.CurrencyUSD,
		TrackStock:    true,
		StockQty:      120,
		MinStockLevel: 10,
		ReorderPoint:  25,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed widget product")
	}
	for _, v := range []core.VariationInput{
		{Name: "Color", Value: "Red", StockQty: 40},
		{Name: "Color", Value: "Blue", PriceAdjust: decimal.RequireFromString("2.50"), StockQty: 35},
	} {
		if _, err := products.CreateVariation(ctx, userID, widget.ID, v); err != nil {
			log.Fatal().Err(err).Msg("failed to seed widget variation")
		}
	}

	invoices := core.NewInvoiceService(pool, core.NewStockService(pool))
	payments := core.NewPaymentService(pool)

	// One settled invoice, one partially paid, one aging toward OVERDUE.
	now := time.Now()
	hourly := decimal.RequireFromString("150.00")

	paid, err := invoices.Create(ctx, userID, seedInput(1001, "Website redesign", now.AddDate(0, 0, -60), []core.InvoiceItemInput{
		{Description: "Consulting (hourly)", Quantity: 12, Rate: hourly, ProductID: &consulting.ID},
	}))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed settled invoice")
	}
	if _, err := payments.RecordPayment(ctx, userID, paid.ID, paid.Total, "bank_transfer", "wire ref 7741"); err != nil {
		log.Fatal().Err(err).Msg("failed to seed settling payment")
	}

	partial, err := invoices.Create(ctx, userID, seedInput(1002, "Widget order Q3", now.AddDate(0, 0, -10), []core.InvoiceItemInput{
		{Description: "Widget", Quantity: 20, Rate: widget.BasePrice, ProductID: &widget.ID},
	}))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed partially paid invoice")
	}
	if _, err := payments.RecordPayment(ctx, userID, partial.ID, decimal.RequireFromString("400.00"), "card", "deposit"); err != nil {
		log.Fatal().Err(err).Msg("failed to seed partial payment")
	}

	if _, err := invoices.Create(ctx, userID, seedInput(1003, "Retainer, overdue", now.AddDate(0, 0, -45), []core.InvoiceItemInput{
		{Description: "Consulting (hourly)", Quantity: 8, Rate: hourly, ProductID: &consulting.ID},
	})); err != nil {
		log.Fatal().Err(err).Msg("failed to seed overdue invoice")
	}
	log.Info().Msg("seed complete: 1 user, 2 products, 3 invoices, 2 payments")
}

func seedInput(number int, name string, issued time.Time, items []core.InvoiceItemInput) core.InvoiceInput {
	return core.InvoiceInput{
		InvoiceNumber: number,
		InvoiceName:   name,
		IssueDate:     issued,
		DueDays:       30,
		Currency:      core.CurrencyUSD,
		Note:          "Payment due within 30 days.",
		FromName:      "Acme Consulting LLC",
		FromEmail:     "billing@acme.example.com",
		FromAddress:   "42 Factory Road, Springfield",
		ClientName:    "Globex Corp",
		ClientEmail:   "ap@globex.example.com",
		ClientAddress: "100 Industrial Way, Cypress Creek",
		Items:         items,
	}
}
