package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/chandanbounteous/goldscanner/internal/article"
)

// Article is a persisted inventory item.
type Article struct {
	ID int64 `db:"id" json:"id"`
	article.Record
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}

// Articles persists inventory articles.
type Articles struct {
	db *sqlx.DB
}

// NewArticles returns an Articles repository over db.
func NewArticles(db *sqlx.DB) *Articles {
	return &Articles{db: db}
}

const articleColumns = `id, article_code, karat, net_weight, gross_weight, add_on_cost, created_at, updated_at`

// Create inserts rec. A taken article code returns ErrDuplicate.
func (r *Articles) Create(ctx context.Context, rec article.Record) (Article, error) {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO articles (article_code, karat, net_weight, gross_weight, add_on_cost)
		VALUES (:article_code, :karat, :net_weight, :gross_weight, :add_on_cost)
	`, rec)
	if isUniqueViolation(err) {
		return Article{}, fmt.Errorf("insert article %s: %w", rec.ArticleCode, ErrDuplicate)
	}
	if err != nil {
		return Article{}, fmt.Errorf("insert article %s: %w", rec.ArticleCode, err)
	}
	return r.ByCode(ctx, rec.ArticleCode)
}

// Update replaces the stored inputs of article id with rec, including its
// code. Taking another article's code returns ErrDuplicate.
func (r *Articles) Update(ctx context.Context, id int64, rec article.Record) (Article, error) {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE articles
		SET
			article_code = :article_code,
			karat = :karat,
			net_weight = :net_weight,
			gross_weight = :gross_weight,
			add_on_cost = :add_on_cost,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = :id
	`, Article{ID: id, Record: rec})
	if isUniqueViolation(err) {
		return Article{}, fmt.Errorf("update article %d to code %s: %w", id, rec.ArticleCode, ErrDuplicate)
	}
	if err != nil {
		return Article{}, fmt.Errorf("update article %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Article{}, fmt.Errorf("update article %d: %w", id, err)
	}
	if affected == 0 {
		return Article{}, fmt.Errorf("update article %d: %w", id, ErrNotFound)
	}
	return r.ByID(ctx, id)
}

// ByID loads article id or returns ErrNotFound.
func (r *Articles) ByID(ctx context.Context, id int64) (Article, error) {
	var a Article
	err := r.db.GetContext(ctx, &a, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	if err != nil {
		return Article{}, fmt.Errorf("query article %d: %w", id, notFound(err))
	}
	return a, nil
}

// ByCode loads the article with code or returns ErrNotFound.
func (r *Articles) ByCode(ctx context.Context, code string) (Article, error) {
	var a Article
	err := r.db.GetContext(ctx, &a, `SELECT `+articleColumns+` FROM articles WHERE article_code = ?`, code)
	if err != nil {
		return Article{}, fmt.Errorf("query article %s: %w", code, notFound(err))
	}
	return a, nil
}
