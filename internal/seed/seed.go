package seed

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/chandanbounteous/goldscanner/internal/article"
	"github.com/chandanbounteous/goldscanner/internal/auth"
	"github.com/chandanbounteous/goldscanner/internal/pricing"
	"github.com/chandanbounteous/goldscanner/internal/repository"
)

// WalkInCustomer is the customer baskets default to at the counter.
const WalkInCustomer = "Walk-in Customer"

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string

	// GoldRate, when positive, is stored for Today unless a rate exists.
	GoldRate float64
	Today    time.Time

	SampleArticles bool
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

var sampleArticles = []article.Record{
	{ArticleCode: "RNG0001", Karat: pricing.Karat24, NetWeight: 0.5, GrossWeight: 0.5},
	{ArticleCode: "CHN0002", Karat: pricing.Karat22, NetWeight: 15, GrossWeight: 15.6, AddOnCost: 500},
	{ArticleCode: "ERG0003", Karat: pricing.Karat18, NetWeight: 3.2, GrossWeight: 3.2},
}

// Run executes the startup seed in an idempotent way.
func Run(db *sqlx.DB, cfg Config) (Stats, error) {
	tx, err := db.Beginx()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	steps := []func(*sqlx.Tx, Config, *Stats) error{
		seedAdmin,
		ensureWalkInCustomer,
		ensureGoldRate,
		ensureSampleArticles,
	}
	for _, step := range steps {
		if err := step(tx, cfg, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

// seedAdmin creates the admin user, or rehashes its password when the
// configured one no longer matches.
func seedAdmin(tx *sqlx.Tx, cfg Config, stats *Stats) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var current string
	err := tx.Get(&current, `SELECT password_hash FROM users WHERE email = ?`, cfg.AdminEmail)
	if err == nil && bcrypt.CompareHashAndPassword([]byte(current), []byte(cfg.AdminPassword)) == nil {
		return nil
	}
	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check admin user existence: %w", err)
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if exists {
		if _, err := tx.Exec(`UPDATE users SET password_hash = ? WHERE email = ?`, hash, cfg.AdminEmail); err != nil {
			return fmt.Errorf("update admin password: %w", err)
		}
		stats.Updates++
		return nil
	}

	if _, err := tx.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`, cfg.AdminEmail, hash); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureWalkInCustomer(tx *sqlx.Tx, _ Config, stats *Stats) error {
	var exists bool
	if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM customers WHERE name = ? LIMIT 1)`, WalkInCustomer); err != nil {
		return fmt.Errorf("check walk-in customer existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`INSERT INTO customers (name) VALUES (?)`, WalkInCustomer); err != nil {
		return fmt.Errorf("insert walk-in customer: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureGoldRate(tx *sqlx.Tx, cfg Config, stats *Stats) error {
	if cfg.GoldRate <= 0 {
		return nil
	}
	day := cfg.Today
	if day.IsZero() {
		day = time.Now()
	}

	res, err := tx.Exec(`
		INSERT INTO gold_rates (rate_date, rate_24k_per_tola)
		VALUES (?, ?)
		ON CONFLICT(rate_date) DO NOTHING
	`, day.Format(repository.DateLayout), cfg.GoldRate)
	if err != nil {
		return fmt.Errorf("insert opening gold rate: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		stats.Inserts++
	}
	return nil
}

func ensureSampleArticles(tx *sqlx.Tx, cfg Config, stats *Stats) error {
	if !cfg.SampleArticles {
		return nil
	}

	for _, rec := range sampleArticles {
		res, err := tx.NamedExec(`
			INSERT INTO articles (article_code, karat, net_weight, gross_weight, add_on_cost)
			VALUES (:article_code, :karat, :net_weight, :gross_weight, :add_on_cost)
			ON CONFLICT(article_code) DO NOTHING
		`, rec)
		if err != nil {
			return fmt.Errorf("insert sample article %s: %w", rec.ArticleCode, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			stats.Inserts++
		}
	}
	return nil
}
