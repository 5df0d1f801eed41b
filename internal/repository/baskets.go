package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	BasketOpen   = "open"
	BasketClosed = "closed"
)

// Basket is one sale in progress or closed.
type Basket struct {
	ID              int64   `db:"id" json:"id"`
	CustomerID      int64   `db:"customer_id" json:"customer_id"`
	OldGoldItemCost float64 `db:"old_gold_item_cost" json:"old_gold_item_cost"`
	ExtraDiscount   float64 `db:"extra_discount" json:"extra_discount"`
	Status          string  `db:"status" json:"status"`
	CreatedAt       string  `db:"created_at" json:"created_at"`
	UpdatedAt       string  `db:"updated_at" json:"updated_at"`
}

// Baskets persists baskets and their articles.
type Baskets struct {
	db *sqlx.DB
}

// NewBaskets returns a Baskets repository over db.
func NewBaskets(db *sqlx.DB) *Baskets {
	return &Baskets{db: db}
}

// Create opens an empty basket for customerID.
func (r *Baskets) Create(ctx context.Context, customerID int64) (Basket, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO baskets (customer_id) VALUES (?)`, customerID)
	if err != nil {
		return Basket{}, fmt.Errorf("insert basket: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Basket{}, fmt.Errorf("read basket id: %w", err)
	}
	return r.Get(ctx, id)
}

// Get loads basket id or returns ErrNotFound.
func (r *Baskets) Get(ctx context.Context, id int64) (Basket, error) {
	var b Basket
	err := r.db.GetContext(ctx, &b, `
		SELECT id, customer_id, old_gold_item_cost, extra_discount, status, created_at, updated_at
		FROM baskets
		WHERE id = ?
	`, id)
	if err != nil {
		return Basket{}, fmt.Errorf("query basket %d: %w", id, notFound(err))
	}
	return b, nil
}

// AddArticle appends an article to the basket. Adding the same article
// twice returns ErrDuplicate.
func (r *Baskets) AddArticle(ctx context.Context, basketID, articleID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add article transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.GetContext(ctx, &next, `
		SELECT COALESCE(MAX(position), 0) + 1 FROM basket_articles WHERE basket_id = ?
	`, basketID); err != nil {
		return fmt.Errorf("query basket position: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO basket_articles (basket_id, article_id, position) VALUES (?, ?, ?)
	`, basketID, articleID, next)
	if isUniqueViolation(err) {
		return fmt.Errorf("add article %d to basket %d: %w", articleID, basketID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("add article %d to basket %d: %w", articleID, basketID, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE baskets SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, basketID); err != nil {
		return fmt.Errorf("touch basket %d: %w", basketID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add article: %w", err)
	}
	return nil
}

// Articles lists the basket's articles in the order they were added.
func (r *Baskets) Articles(ctx context.Context, basketID int64) ([]Article, error) {
	articles := make([]Article, 0)
	err := r.db.SelectContext(ctx, &articles, `
		SELECT a.id, a.article_code, a.karat, a.net_weight, a.gross_weight, a.add_on_cost, a.created_at, a.updated_at
		FROM basket_articles ba
		JOIN articles a ON a.id = ba.article_id
		WHERE ba.basket_id = ?
		ORDER BY ba.position
	`, basketID)
	if err != nil {
		return nil, fmt.Errorf("query basket %d articles: %w", basketID, err)
	}
	return articles, nil
}

// SetAdjustments stores the old gold credit and extra discount of basket id.
func (r *Baskets) SetAdjustments(ctx context.Context, id int64, oldGoldItemCost, extraDiscount float64) error {
	return r.exec(ctx, id, "update basket adjustments", `
		UPDATE baskets
		SET old_gold_item_cost = ?, extra_discount = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, oldGoldItemCost, extraDiscount, id)
}

// SetStatus moves basket id to status.
func (r *Baskets) SetStatus(ctx context.Context, id int64, status string) error {
	return r.exec(ctx, id, "update basket status", `
		UPDATE baskets SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, id)
}

func (r *Baskets) exec(ctx context.Context, id int64, action, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %d: %w", action, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: %w", action, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", action, id, ErrNotFound)
	}
	return nil
}
