package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Customer is a buyer baskets are opened for.
type Customer struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Phone     string `db:"phone" json:"phone"`
	Address   string `db:"address" json:"address"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

// Customers persists customers.
type Customers struct {
	db *sqlx.DB
}

// NewCustomers returns a Customers repository over db.
func NewCustomers(db *sqlx.DB) *Customers {
	return &Customers{db: db}
}

// Create inserts c and returns it with its ID.
func (r *Customers) Create(ctx context.Context, c Customer) (Customer, error) {
	res, err := r.db.NamedExecContext(ctx, `
		INSERT INTO customers (name, phone, address)
		VALUES (:name, :phone, :address)
	`, c)
	if err != nil {
		return Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Customer{}, fmt.Errorf("read customer id: %w", err)
	}
	return r.Get(ctx, id)
}

// Get loads customer id or returns ErrNotFound.
func (r *Customers) Get(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := r.db.GetContext(ctx, &c, `
		SELECT id, name, phone, address, created_at
		FROM customers
		WHERE id = ?
	`, id)
	if err != nil {
		return Customer{}, fmt.Errorf("query customer %d: %w", id, notFound(err))
	}
	return c, nil
}

// Search matches query against name and phone. An empty query lists everyone.
func (r *Customers) Search(ctx context.Context, query string) ([]Customer, error) {
	query = strings.TrimSpace(query)
	like := "%" + query + "%"

	customers := make([]Customer, 0)
	err := r.db.SelectContext(ctx, &customers, `
		SELECT id, name, phone, address, created_at
		FROM customers
		WHERE (? = '' OR name LIKE ? OR phone LIKE ?)
		ORDER BY name, id
	`, query, like, like)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	return customers, nil
}

// FindByName returns the first customer with exactly name.
func (r *Customers) FindByName(ctx context.Context, name string) (Customer, error) {
	var c Customer
	err := r.db.GetContext(ctx, &c, `
		SELECT id, name, phone, address, created_at
		FROM customers
		WHERE name = ?
		ORDER BY id
		LIMIT 1
	`, name)
	if err != nil {
		return Customer{}, fmt.Errorf("query customer %q: %w", name, notFound(err))
	}
	return c, nil
}
