// Package address validates checkout addresses and stores a user's saved
// addresses, keeping at most one default per user.
package address

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("address not found")
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Saved, error)
	Get(ctx context.Context, userID, id string) (*Saved, error)
	Insert(ctx context.Context, a *Saved) error
	Update(ctx context.Context, a *Saved) error
	Delete(ctx context.Context, userID, id string) (bool, error)
	ClearDefaultExcept(ctx context.Context, userID, keepID string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const selectColumns = `
	SELECT id::text, user_id::text, label, first_name, last_name, email, phone, address,
	       city, state, zip_code, country, is_default, created_at, updated_at
	FROM addresses`

func scanSaved(row pgx.Row) (*Saved, error) {
	var a Saved
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.FirstName, &a.LastName, &a.Email, &a.Phone, &a.Address,
		&a.City, &a.State, &a.ZipCode, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByUser returns the default address first, then the most recently updated.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Saved, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, selectColumns+`
		WHERE user_id = $1
		ORDER BY is_default DESC, updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Saved{}
	for rows.Next() {
		a, err := scanSaved(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *PGRepo) Get(ctx context.Context, userID, id string) (*Saved, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	a, err := scanSaved(r.db.QueryRow(ctx, selectColumns+` WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *PGRepo) Insert(ctx context.Context, a *Saved) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO addresses (user_id, label, first_name, last_name, email, phone, address,
		                       city, state, zip_code, country, is_default)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id::text, created_at, updated_at
	`, a.UserID, a.Label, a.FirstName, a.LastName, a.Email, a.Phone, a.Address,
		a.City, a.State, a.ZipCode, a.Country, a.IsDefault).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *PGRepo) Update(ctx context.Context, a *Saved) error {
	if _, err := uuid.Parse(a.ID); err != nil {
		return ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		UPDATE addresses
		SET label = $3, first_name = $4, last_name = $5, email = $6, phone = $7, address = $8,
		    city = $9, state = $10, zip_code = $11, country = $12, is_default = $13,
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, updated_at
	`, a.ID, a.UserID, a.Label, a.FirstName, a.LastName, a.Email, a.Phone, a.Address,
		a.City, a.State, a.ZipCode, a.Country, a.IsDefault).Scan(&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *PGRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGRepo) ClearDefaultExcept(ctx context.Context, userID, keepID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE addresses SET is_default = false
		WHERE user_id = $1 AND id <> $2 AND is_default
	`, userID, keepID)
	return err
}
