// Package profile reads and updates customer profiles. Accounts themselves
// are issued by the external auth provider; a profile row shares its id.
package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("profile not found")
)

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SplitName splits FullName on the first space into first and last name.
func (p Profile) SplitName() (first, last string) {
	first, last, _ = strings.Cut(strings.TrimSpace(p.FullName), " ")
	return first, strings.TrimSpace(last)
}

// Contact is what a checkout writes back to the profile.
type Contact struct {
	FullName string
	Phone    string
	Address  string
}

type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	UpdateContact(ctx context.Context, id string, c Contact) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := r.db.QueryRow(ctx, `
		SELECT id::text, email, COALESCE(full_name, ''), COALESCE(phone, ''), COALESCE(address, ''),
		       is_admin, created_at, updated_at
		FROM profiles WHERE id=$1
	`, id)
	var p Profile
	if err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Phone, &p.Address, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateContact overwrites the contact fields; empty values keep the stored ones.
func (r *PGRepo) UpdateContact(ctx context.Context, id string, c Contact) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE profiles
		SET full_name = COALESCE(NULLIF($2, ''), full_name),
		    phone     = COALESCE(NULLIF($3, ''), phone),
		    address   = COALESCE(NULLIF($4, ''), address),
		    updated_at = NOW()
		WHERE id = $1
	`, id, c.FullName, c.Phone, c.Address)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) IsAdmin(ctx context.Context, id string) (bool, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return p.IsAdmin, nil
}
