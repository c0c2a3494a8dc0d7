package store

import (
	"context"
	"database/sql"
	"time"
)

// Product is one catalog item. The products table is the source of truth
// the in-memory knowledge index is rebuilt from on startup.
type Product struct {
	ID                   string  `json:"id" yaml:"id"`
	Name                 string  `json:"name" yaml:"name"`
	Description          string  `json:"description,omitempty" yaml:"description,omitempty"`
	Category             string  `json:"category,omitempty" yaml:"category,omitempty"`
	Price                float64 `json:"price" yaml:"price"`
	InStock              bool    `json:"inStock" yaml:"inStock"`
	RequiresPrescription bool    `json:"requiresPrescription" yaml:"requiresPrescription"`
}

// ProductStore manages the catalog table.
type ProductStore struct {
	db *DB
}

// NewProductStore creates a product store using the given database.
func NewProductStore(db *DB) *ProductStore {
	return &ProductStore{db: db}
}

// Upsert inserts or replaces a product.
func (p *ProductStore) Upsert(ctx context.Context, prod Product) error {
	_, err := p.db.sql.ExecContext(ctx,
		`INSERT INTO products (id, name, description, category, price, in_stock, requires_prescription, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   description = excluded.description,
		   category = excluded.category,
		   price = excluded.price,
		   in_stock = excluded.in_stock,
		   requires_prescription = excluded.requires_prescription,
		   updated_at = excluded.updated_at`,
		prod.ID, prod.Name, prod.Description, prod.Category, prod.Price,
		boolToInt(prod.InStock), boolToInt(prod.RequiresPrescription),
		time.Now().Format(time.DateTime),
	)
	return err
}

// Get returns a product by id, or (nil, nil) if not found.
func (p *ProductStore) Get(ctx context.Context, id string) (*Product, error) {
	row := p.db.sql.QueryRowContext(ctx,
		`SELECT id, name, description, category, price, in_stock, requires_prescription
		 FROM products WHERE id = ?`, id)

	var prod Product
	var inStock, requiresRx int
	err := row.Scan(&prod.ID, &prod.Name, &prod.Description, &prod.Category,
		&prod.Price, &inStock, &requiresRx)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	prod.InStock = inStock != 0
	prod.RequiresPrescription = requiresRx != 0
	return &prod, nil
}

// List returns all products ordered by id.
func (p *ProductStore) List(ctx context.Context) ([]Product, error) {
	rows, err := p.db.sql.QueryContext(ctx,
		`SELECT id, name, description, category, price, in_stock, requires_prescription
		 FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var prod Product
		var inStock, requiresRx int
		if err := rows.Scan(&prod.ID, &prod.Name, &prod.Description, &prod.Category,
			&prod.Price, &inStock, &requiresRx); err != nil {
			continue
		}
		prod.InStock = inStock != 0
		prod.RequiresPrescription = requiresRx != 0
		products = append(products, prod)
	}
	return products, rows.Err()
}

// Delete removes a product by id.
func (p *ProductStore) Delete(ctx context.Context, id string) error {
	_, err := p.db.sql.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return err
}
