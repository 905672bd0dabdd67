package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OnboardingInput completes a freshly-signed-up user's profile.
type OnboardingInput struct {
	FirstName string
	LastName  string
	Address   string
}

type UserService interface {
	GetByID(ctx context.Context, userID int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Onboard fills in the user's name and address after signup.
	Onboard(ctx context.Context, userID int, in OnboardingInput) (*User, error)
}

type userService struct {
	pool *pgxpool.Pool
}

func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

const userColumns = `
	id, email, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(address, ''),
	password_hash, created_at`

func scanUser(row pgx.Row, u *User) error {
	return row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Address, &u.PasswordHash, &u.CreatedAt)
}

func (s *userService) GetByID(ctx context.Context, userID int) (*User, error) {
	var u User
	err := scanUser(s.pool.QueryRow(ctx,
		"SELECT"+userColumns+" FROM users WHERE id = $1", userID), &u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewNotFound("user", userID)
		}
		return nil, fmt.Errorf("failed to fetch user %d: %w", userID, err)
	}
	return &u, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := scanUser(s.pool.QueryRow(ctx,
		"SELECT"+userColumns+" FROM users WHERE email = $1", email), &u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "user", Ref: email}
		}
		return nil, fmt.Errorf("failed to fetch user %q: %w", email, err)
	}
	return &u, nil
}

func (s *userService) Onboard(ctx context.Context, userID int, in OnboardingInput) (*User, error) {
	if len(strings.TrimSpace(in.FirstName)) < 2 {
		return nil, &ValidationError{Field: "first_name", Message: "first name is required"}
	}
	if len(strings.TrimSpace(in.LastName)) < 2 {
		return nil, &ValidationError{Field: "last_name", Message: "last name is required"}
	}
	if len(strings.TrimSpace(in.Address)) < 2 {
		return nil, &ValidationError{Field: "address", Message: "address is required"}
	}

	tag, err := s.pool.Exec(ctx,
		"UPDATE users SET first_name = $1, last_name = $2, address = $3 WHERE id = $4",
		in.FirstName, in.LastName, in.Address, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to onboard user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, NewNotFound("user", userID)
	}
	return s.GetByID(ctx, userID)
}
