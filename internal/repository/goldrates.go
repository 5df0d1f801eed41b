package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// GoldRate is the 24K price per tola for one day.
type GoldRate struct {
	Date           string  `db:"rate_date" json:"date"`
	Rate24kPerTola float64 `db:"rate_24k_per_tola" json:"rate_24k_per_tola"`
	UpdatedAt      string  `db:"updated_at" json:"updated_at"`
}

// GoldRates persists one 24K rate per calendar day.
type GoldRates struct {
	db *sqlx.DB
}

// NewGoldRates returns a GoldRates repository over db.
func NewGoldRates(db *sqlx.DB) *GoldRates {
	return &GoldRates{db: db}
}

// Get loads the rate for day or returns ErrNotFound.
func (r *GoldRates) Get(ctx context.Context, day time.Time) (GoldRate, error) {
	var rate GoldRate
	err := r.db.GetContext(ctx, &rate, `
		SELECT rate_date, rate_24k_per_tola, updated_at
		FROM gold_rates
		WHERE rate_date = ?
	`, day.Format(DateLayout))
	if err != nil {
		return GoldRate{}, fmt.Errorf("query gold rate %s: %w", day.Format(DateLayout), notFound(err))
	}
	return rate, nil
}

// Upsert stores the rate for day, replacing any earlier value.
func (r *GoldRates) Upsert(ctx context.Context, day time.Time, rate24kPerTola float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gold_rates (rate_date, rate_24k_per_tola)
		VALUES (?, ?)
		ON CONFLICT(rate_date) DO UPDATE SET
			rate_24k_per_tola = excluded.rate_24k_per_tola,
			updated_at = CURRENT_TIMESTAMP
	`, day.Format(DateLayout), rate24kPerTola)
	if err != nil {
		return fmt.Errorf("upsert gold rate %s: %w", day.Format(DateLayout), err)
	}
	return nil
}

// Latest returns the most recent rate on or before day.
func (r *GoldRates) Latest(ctx context.Context, day time.Time) (GoldRate, error) {
	var rate GoldRate
	err := r.db.GetContext(ctx, &rate, `
		SELECT rate_date, rate_24k_per_tola, updated_at
		FROM gold_rates
		WHERE rate_date <= ?
		ORDER BY rate_date DESC
		LIMIT 1
	`, day.Format(DateLayout))
	if err != nil {
		return GoldRate{}, fmt.Errorf("query latest gold rate: %w", notFound(err))
	}
	return rate, nil
}
