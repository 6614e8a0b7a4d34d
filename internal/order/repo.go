// Package order stores placed orders and owns the order status vocabulary.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/events"
)

var (
	ErrNotFound = errors.New("order not found")
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	CountByStatus(ctx context.Context) (map[Status]int, decimal.Decimal, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const selectColumns = `
	SELECT id::text, user_id::text, status, total::text, shipping_address, items, created_at, updated_at
	FROM orders`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o         Order
		total     string
		ship, its []byte
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.Status, &total, &ship, &its, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(ship, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping_address: %w", err)
	}
	if err := json.Unmarshal(its, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// Create inserts o and its order.placed event in one transaction. ID and
// timestamps are filled in on success.
func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ship, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, status, total, shipping_address, items, created_at, updated_at)
		VALUES ($1, $2::uuid, $3, $4::numeric, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`, o.ID, o.UserID, string(o.Status), o.Total.String(), ship, items).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return err
	}

	ev, err := events.New(ctx, events.TypeOrderPlaced, o.ID, o)
	if err != nil {
		return err
	}
	if err := events.Enqueue(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []Order{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit, offset = clampPage(limit, offset)
	rows, err := r.db.Query(ctx, selectColumns+`
		WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

func (r *PGRepo) List(ctx context.Context, f Filter) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit, offset := clampPage(f.Limit, f.Offset)
	rows, err := r.db.Query(ctx, selectColumns+`
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR id::text ILIKE '%' || $2 || '%'
		       OR (shipping_address->>'firstName') || ' ' || (shipping_address->>'lastName') ILIKE '%' || $2 || '%'
		       OR shipping_address->>'email' ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`, string(f.Status), f.Q, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

// UpdateStatus sets any status on any order; transitions are not checked.
func (r *PGRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var prev Status
	if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&prev); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, string(status)); err != nil {
		return err
	}

	ev, err := events.New(ctx, events.TypeOrderStatusChanged, id, map[string]Status{"from": prev, "to": status})
	if err != nil {
		return err
	}
	if err := events.Enqueue(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CountByStatus returns the order count per status and the revenue of all
// non-cancelled orders.
func (r *PGRepo) CountByStatus(ctx context.Context) (map[Status]int, decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total) FILTER (WHERE status <> 'cancelled'), 0)::text
		FROM orders
		GROUP BY status
	`)
	if err != nil {
		return nil, decimal.Zero, err
	}
	defer rows.Close()

	counts := map[Status]int{}
	revenue := decimal.Zero
	for rows.Next() {
		var (
			st  Status
			n   int
			sum string
		)
		if err := rows.Scan(&st, &n, &sum); err != nil {
			return nil, decimal.Zero, err
		}
		d, err := decimal.NewFromString(sum)
		if err != nil {
			return nil, decimal.Zero, err
		}
		counts[st] = n
		revenue = revenue.Add(d)
	}
	return counts, revenue, rows.Err()
}
