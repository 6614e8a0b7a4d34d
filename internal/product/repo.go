// Package product provides the catalog: the product repository backed by
// PostgreSQL and the in-memory Catalog the storefront reads from.
package product

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("product not found")
	ErrInvalid  = errors.New("invalid product")
)

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const selectColumns = `
	SELECT id::text, name, description, price::text, image, category, size,
	       in_stock, featured, rating::float8, reviews, created_at, updated_at
	FROM products`

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p     Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Image, &p.Category, &p.Size,
		&p.InStock, &p.Featured, &p.Rating, &p.Reviews, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}
	p.Price = d
	return &p, nil
}

func (r *PGRepo) List(ctx context.Context) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, selectColumns+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := scanProduct(r.db.QueryRow(ctx, selectColumns+` WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO products (name, description, price, image, category, size, in_stock, featured, rating, reviews)
		VALUES ($1,$2,$3::numeric,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id::text, created_at, updated_at
	`, p.Name, p.Description, p.Price.String(), p.Image, string(p.Category), p.Size,
		p.InStock, p.Featured, p.Rating, p.Reviews).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PGRepo) Update(ctx context.Context, p *Product) error {
	if _, err := uuid.Parse(p.ID); err != nil {
		return ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4::numeric, image = $5, category = $6,
		    size = $7, in_stock = $8, featured = $9, rating = $10, reviews = $11,
		    updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Price.String(), p.Image, string(p.Category), p.Size,
		p.InStock, p.Featured, p.Rating, p.Reviews)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
