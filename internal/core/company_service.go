package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CompanyInput is the payload for creating or updating the company profile.
type CompanyInput struct {
	Name    string
	Email   string
	Address string
	Phone   string
	Website string
	Logo    string
	TaxID   string
}

// CompanyService manages the one-per-user company profile that brands PDFs
// and outbound email.
type CompanyService interface {
	// Get returns the user's company profile, or NotFoundError when none has
	// been configured yet.
	Get(ctx context.Context, userID int) (*Company, error)
	// Upsert creates the profile on first save and updates it afterwards.
	Upsert(ctx context.Context, userID int, in CompanyInput) (*Company, error)
}

type companyService struct {
	pool *pgxpool.Pool
}

func NewCompanyService(pool *pgxpool.Pool) CompanyService {
	return &companyService{pool: pool}
}

func (s *companyService) Get(ctx context.Context, userID int) (*Company, error) {
	var c Company
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, email, COALESCE(address, ''), COALESCE(phone, ''),
		       COALESCE(website, ''), COALESCE(logo, ''), COALESCE(tax_id, '')
		FROM companies
		WHERE user_id = $1
	`, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Address, &c.Phone, &c.Website, &c.Logo, &c.TaxID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "company"}
		}
		return nil, fmt.Errorf("failed to fetch company for user %d: %w", userID, err)
	}
	return &c, nil
}

func (s *companyService) Upsert(ctx context.Context, userID int, in CompanyInput) (*Company, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "company name is required"}
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, &ValidationError{Field: "email", Message: "company email is required"}
	}

	var c Company
	err := s.pool.QueryRow(ctx, `
		INSERT INTO companies (user_id, name, email, address, phone, website, logo, tax_id)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
		ON CONFLICT (user_id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, address = EXCLUDED.address,
		    phone = EXCLUDED.phone, website = EXCLUDED.website, logo = EXCLUDED.logo,
		    tax_id = EXCLUDED.tax_id
		RETURNING id, user_id, name, email, COALESCE(address, ''), COALESCE(phone, ''),
		          COALESCE(website, ''), COALESCE(logo, ''), COALESCE(tax_id, '')
	`, userID, in.Name, in.Email, in.Address, in.Phone, in.Website, in.Logo, in.TaxID,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Address, &c.Phone, &c.Website, &c.Logo, &c.TaxID)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert company for user %d: %w", userID, err)
	}
	return &c, nil
}

// SenderIdentity resolves the name/email pair used as the sender of outbound
// invoice email: the company profile when configured, otherwise the invoice's
// own from-fields.
func SenderIdentity(company *Company, inv *Invoice) (name, email string) {
	if company != nil && company.Name != "" {
		name = company.Name
	} else {
		name = inv.FromName
	}
	if company != nil && company.Email != "" {
		email = company.Email
	} else {
		email = inv.FromEmail
	}
	return name, email
}
