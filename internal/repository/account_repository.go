package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/model"
)

type AccountRepository struct {
	DB *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

// Create inserts a new, immediately active account.
func (r *AccountRepository) Create(ctx context.Context, a *model.Account) error {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO accounts
            (id, username, email, password_hash, roles, created_at)
        VALUES
            (:id, :username, :email, :password_hash, :roles, :created_at)
    `, a)
	if err != nil {
		return fmt.Errorf("AccountRepository.Create: %w", err)
	}
	return nil
}

// GetByEmail returns the account for an email, or nil when none exists.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var a model.Account
	err := r.DB.GetContext(ctx, &a, `SELECT * FROM accounts WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("AccountRepository.GetByEmail: %w", err)
	}
	return &a, nil
}

// UsernameExists reports whether the username is taken.
func (r *AccountRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int
	if err := r.DB.GetContext(ctx, &count, `SELECT COUNT(1) FROM accounts WHERE username = $1`, username); err != nil {
		return false, fmt.Errorf("AccountRepository.UsernameExists: %w", err)
	}
	return count > 0, nil
}

// EmailExists reports whether the email is taken.
func (r *AccountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	if err := r.DB.GetContext(ctx, &count, `SELECT COUNT(1) FROM accounts WHERE email = $1`, email); err != nil {
		return false, fmt.Errorf("AccountRepository.EmailExists: %w", err)
	}
	return count > 0, nil
}
