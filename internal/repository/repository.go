// Package repository stores users, gold rates, customers, articles and
// baskets in SQLite through sqlx.
package repository

import (
	"database/sql"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("repository: duplicate")
)

// DateLayout is how calendar dates are stored.
const DateLayout = "2006-01-02"

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
