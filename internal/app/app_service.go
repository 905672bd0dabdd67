package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"invoice-marshal/internal/core"
	"invoice-marshal/internal/notify"
	"invoice-marshal/internal/pdf"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate for both unknown email
// and wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

type appService struct {
	pool       *pgxpool.Pool
	users      core.UserService
	companies  core.CompanyService
	invoices   core.InvoiceService
	payments   core.PaymentService
	products   core.ProductService
	reporting  core.ReportingService
	notifier   notify.Notifier
	appURL     string
	validate   *validator.Validate
	log        zerolog.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	users core.UserService,
	companies core.CompanyService,
	invoices core.InvoiceService,
	payments core.PaymentService,
	products core.ProductService,
	reporting core.ReportingService,
	notifier notify.Notifier,
	appURL string,
	log zerolog.Logger,
) ApplicationService {
	return &appService{
		pool:      pool,
		users:     users,
		companies: companies,
		invoices:  invoices,
		payments:  payments,
		products:  products,
		reporting: reporting,
		notifier:  notifier,
		appURL:    appURL,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       log,
	}
}

// check runs struct-tag validation and converts the first failure into the
// domain's ValidationError so adapters see one error taxonomy.
func (s *appService) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &core.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: fmt.Sprintf("failed %q validation", fe.Tag()),
		}
	}
	return err
}

// ── Accounts ─────────────────────────────────────────────────────────────────

func (s *appService) SignUp(ctx context.Context, req SignUpRequest) (*core.User, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var userID int
	err = s.pool.QueryRow(ctx,
		"INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id",
		strings.ToLower(strings.TrimSpace(req.Email)), string(hash),
	).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, &core.ValidationError{Field: "email", Message: "already registered"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.users.GetByID(ctx, userID)
}

func (s *appService) Authenticate(ctx context.Context, email, password string) (*core.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		var nf *core.NotFoundError
		if errors.As(err, &nf) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *appService) OnboardUser(ctx context.Context, userID int, req OnboardRequest) (*core.User, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.users.Onboard(ctx, userID, core.OnboardingInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
	})
}

func (s *appService) GetUser(ctx context.Context, userID int) (*core.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *appService) GetCompany(ctx context.Context, userID int) (*core.Company, error) {
	return s.companies.Get(ctx, userID)
}

func (s *appService) SaveCompany(ctx context.Context, userID int, req CompanyRequest) (*core.Company, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.companies.Upsert(ctx, userID, core.CompanyInput{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		Phone:   req.Phone,
		Website: req.Website,
		Logo:    req.Logo,
		TaxID:   req.TaxID,
	})
}

// ── Invoices ─────────────────────────────────────────────────────────────────

func (s *appService) toInvoiceInput(req InvoiceRequest) (core.InvoiceInput, error) {
	issueDate, err := time.Parse("2006-01-02", req.IssueDate)
	if err != nil {
		return core.InvoiceInput{}, &core.ValidationError{Field: "issue_date", Message: "must be a YYYY-MM-DD date"}
	}
	items, err := core.ParseInvoiceItems(req.RawItems)
	if err != nil {
		return core.InvoiceInput{}, err
	}
	return core.InvoiceInput{
		InvoiceNumber: req.InvoiceNumber,
		InvoiceName:   req.InvoiceName,
		IssueDate:     issueDate,
		DueDays:       req.DueDays,
		Currency:      core.Currency(req.Currency),
		Note:          req.Note,
		FromName:      req.FromName,
		FromEmail:     req.FromEmail,
		FromAddress:   req.FromAddress,
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ClientAddress: req.ClientAddress,
		Items:         items,
	}, nil
}

func (s *appService) CreateInvoice(ctx context.Context, userID int, req InvoiceRequest) (*core.Invoice, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	in, err := s.toInvoiceInput(req)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoices.Create(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	s.notifyAsync(userID, inv, notify.KindCreated)
	return inv, nil
}

func (s *appService) UpdateInvoice(ctx context.Context, userID, invoiceID int, req InvoiceRequest) (*core.Invoice, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	in, err := s.toInvoiceInput(req)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoices.Edit(ctx, userID, invoiceID, in)
	if err != nil {
		return nil, err
	}
	s.notifyAsync(userID, inv, notify.KindUpdated)
	return inv, nil
}

func (s *appService) DeleteInvoice(ctx context.Context, userID, invoiceID int) error {
	return s.invoices.Delete(ctx, userID, invoiceID)
}

func (s *appService) GetInvoice(ctx context.Context, userID, invoiceID int) (*core.Invoice, error) {
	return s.invoices.Get(ctx, userID, invoiceID)
}

func (s *appService) ListInvoices(ctx context.Context, userID int, status *core.InvoiceStatus) ([]core.Invoice, error) {
	return s.invoices.List(ctx, userID, status)
}

func (s *appService) MarkInvoicePaid(ctx context.Context, userID, invoiceID int) (*core.Invoice, error) {
	return s.invoices.MarkAsPaid(ctx, userID, invoiceID)
}

func (s *appService) SendReminder(ctx context.Context, userID, invoiceID int) (*core.Invoice, error) {
	inv, err := s.invoices.Get(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	company := s.companyOrNil(ctx, userID)

	data := notify.InvoiceTemplateData(inv, company, s.appURL)
	if err := s.notifier.SendInvoiceEmail(ctx, notify.KindReminder, inv.ClientEmail, data); err != nil {
		return nil, err
	}
	return s.invoices.MarkEmailed(ctx, userID, invoiceID)
}

// companyOrNil swallows the not-found case: most flows treat the company
// profile as optional branding.
func (s *appService) companyOrNil(ctx context.Context, userID int) *core.Company {
	company, err := s.companies.Get(ctx, userID)
	if err != nil {
		var nf *core.NotFoundError
		if !errors.As(err, &nf) {
			s.log.Warn().Err(err).Int("user_id", userID).Msg("failed to load company profile")
		}
		return nil
	}
	return company
}

// notifyAsync emails the client without blocking the request. Delivery
// failures are logged, never surfaced: the invoice write has already
// committed.
func (s *appService) notifyAsync(userID int, inv *core.Invoice, kind notify.Kind) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		company := s.companyOrNil(ctx, userID)
		data := notify.InvoiceTemplateData(inv, company, s.appURL)
		if err := s.notifier.SendInvoiceEmail(ctx, kind, inv.ClientEmail, data); err != nil {
			s.log.Error().Err(err).
				Int("invoice_id", inv.ID).
				Str("kind", string(kind)).
				Msg("failed to send invoice email")
		}
	}()
}

// ── Payments ─────────────────────────────────────────────────────────────────

func (s *appService) RecordPayment(ctx context.Context, userID, invoiceID int, req PaymentRequest) (*core.Invoice, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.payments.RecordPayment(ctx, userID, invoiceID, req.Amount, req.Method, req.Notes)
}

func (s *appService) ListPayments(ctx context.Context, userID, invoiceID int) ([]core.Payment, error) {
	return s.payments.ListPayments(ctx, userID, invoiceID)
}

func (s *appService) RefreshStatuses(ctx context.Context) (int, error) {
	rows, err := s.pool.Query(ctx, "SELECT id FROM invoices ORDER BY id")
	if err != nil {
		return 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to scan invoice id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	refreshed := 0
	for _, id := range ids {
		if err := s.payments.RefreshStatus(ctx, id); err != nil {
			// Keep going: one bad invoice must not stall the sweep.
			s.log.Error().Err(err).Int("invoice_id", id).Msg("failed to refresh invoice status")
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// ── PDF & dashboard ──────────────────────────────────────────────────────────

func (s *appService) RenderInvoicePDF(ctx context.Context, userID, invoiceID int) ([]byte, error) {
	inv, err := s.invoices.Get(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	return pdf.RenderInvoice(inv, s.companyOrNil(ctx, userID))
}

func (s *appService) Dashboard(ctx context.Context, userID int) (*core.DashboardStats, error) {
	return s.reporting.Dashboard(ctx, userID)
}

// ── Products ─────────────────────────────────────────────────────────────────

func (s *appService) toProductInput(req ProductRequest) core.ProductInput {
	return core.ProductInput{
		Name:          req.Name,
		Description:   req.Description,
		SKU:           req.SKU,
		Type:          core.ProductType(req.Type),
		BasePrice:     req.BasePrice,
		Currency:      core.Currency(req.Currency),
		TrackStock:    req.TrackStock,
		StockQty:      req.StockQty,
		MinStockLevel: req.MinStockLevel,
		ReorderPoint:  req.ReorderPoint,
	}
}

func (s *appService) CreateProduct(ctx context.Context, userID int, req ProductRequest) (*core.Product, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.products.Create(ctx, userID, s.toProductInput(req))
}

func (s *appService) UpdateProduct(ctx context.Context, userID, productID int, req ProductRequest) (*core.Product, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.products.Update(ctx, userID, productID, s.toProductInput(req))
}

func (s *appService) DeleteProduct(ctx context.Context, userID, productID int) error {
	return s.products.Delete(ctx, userID, productID)
}

func (s *appService) GetProduct(ctx context.Context, userID, productID int) (*core.Product, error) {
	return s.products.Get(ctx, userID, productID)
}

func (s *appService) ListProducts(ctx context.Context, userID int) ([]core.Product, error) {
	return s.products.List(ctx, userID)
}

func (s *appService) SetProductStock(ctx context.Context, userID, productID, qty int) error {
	return s.products.SetStock(ctx, userID, productID, qty)
}

func (s *appService) ListLowStock(ctx context.Context, userID int) ([]core.Product, error) {
	return s.products.ListLowStock(ctx, userID)
}

func (s *appService) CreateVariation(ctx context.Context, userID, productID int, req VariationRequest) (*core.ProductVariation, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.products.CreateVariation(ctx, userID, productID, core.VariationInput{
		Name: req.Name, Value: req.Value, PriceAdjust: req.PriceAdjust, StockQty: req.StockQty,
	})
}

func (s *appService) UpdateVariation(ctx context.Context, userID, variationID int, req VariationRequest) (*core.ProductVariation, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.products.UpdateVariation(ctx, userID, variationID, core.VariationInput{
		Name: req.Name, Value: req.Value, PriceAdjust: req.PriceAdjust, StockQty: req.StockQty,
	})
}

func (s *appService) DeleteVariation(ctx context.Context, userID, variationID int) error {
	return s.products.DeleteVariation(ctx, userID, variationID)
}
