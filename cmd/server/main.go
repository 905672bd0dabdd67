package main

import (
	"context"
	"net/http"
	"os"

	webAdapter "invoice-marshal/internal/adapters/web"
	"invoice-marshal/internal/app"
	"invoice-marshal/internal/core"
	"invoice-marshal/internal/db"
	"invoice-marshal/internal/logger"
	"invoice-marshal/internal/notify"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	if err := logger.Setup(logger.FromEnv()); err != nil {
		log.Fatal().Err(err).Msg("logger setup failed")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal().Msg("JWT_SECRET is not set")
	}

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}

	var notifier notify.Notifier
	if cfg, ok := notify.SMTPConfigFromEnv(); ok {
		notifier = notify.NewSMTPNotifier(cfg, logger.WithComponent("notify"))
	} else {
		log.Warn().Msg("SMTP_HOST not set; invoice email disabled")
		notifier = notify.NewLogNotifier(logger.WithComponent("notify"))
	}

	stockService := core.NewStockService(pool)
	svc := app.NewAppService(
		pool,
		core.NewUserService(pool),
		core.NewCompanyService(pool),
		core.NewInvoiceService(pool, stockService),
		core.NewPaymentService(pool),
		core.NewProductService(pool),
		core.NewReportingService(pool),
		notifier,
		appURL,
		logger.WithComponent("app"),
	)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Info().Str("port", port).Msg("server starting")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
