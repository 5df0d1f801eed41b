package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Users persists login accounts.
type Users struct {
	db *sqlx.DB
}

// NewUsers returns a Users repository over db.
func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

// PasswordHash returns the stored bcrypt hash for email.
func (r *Users) PasswordHash(ctx context.Context, email string) (string, error) {
	var hash string
	err := r.db.GetContext(ctx, &hash, `SELECT password_hash FROM users WHERE email = ?`, email)
	if err != nil {
		return "", fmt.Errorf("query user %s: %w", email, notFound(err))
	}
	return hash, nil
}
