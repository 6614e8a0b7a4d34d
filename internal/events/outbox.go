package events

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Execer is satisfied by pgx.Tx and *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Enqueue writes ev to the outbox. Call it inside the transaction that makes
// the change the event describes.
func Enqueue(ctx context.Context, db Execer, ev Event) error {
	_, err := db.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), 'pending', $6)
	`, ev.AggregateType, ev.AggregateID, ev.Type, ev.Payload, ev.Traceparent, ev.CreatedAt)
	return err
}

type Store interface {
	LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error)
	MarkSent(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
}

type PGOutbox struct{ db *pgxpool.Pool }

func NewPGOutbox(db *pgxpool.Pool) *PGOutbox { return &PGOutbox{db: db} }

// LockBatch claims pending rows, and rows whose lease expired, for relayID.
func (s *PGOutbox) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, type, payload, COALESCE(traceparent, ''), created_at
		FROM outbox
		WHERE status = 'pending' OR (status = 'in_progress' AND lease_until < NOW())
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, batchSize)
	if err != nil {
		return nil, err
	}
	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.AggregateType, &ev.AggregateID, &ev.Type, &ev.Payload, &ev.Traceparent, &ev.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, ev)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, len(out))
	for i, ev := range out {
		ids[i] = ev.ID
	}
	if _, err := tx.Exec(ctx, `
		UPDATE outbox
		SET status = 'in_progress', relay_id = $1, lease_until = NOW() + make_interval(secs => $2)
		WHERE id = ANY($3)
	`, relayID, lease.Seconds(), ids); err != nil {
		return nil, err
	}
	return out, tx.Commit(ctx)
}

func (s *PGOutbox) MarkSent(ctx context.Context, ids []int64) error {
	_, err := s.db.Exec(ctx, `UPDATE outbox SET status = 'sent', sent_at = NOW() WHERE id = ANY($1)`, ids)
	return err
}

func (s *PGOutbox) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE outbox SET status = 'failed', last_error = $2, retry_count = retry_count + 1
		WHERE id = $1
	`, id, errMsg)
	return err
}

// Relay polls the outbox and hands claimed events to a Publisher.
type Relay struct {
	store     Store
	pub       Publisher
	relayID   string
	batchSize int
	interval  time.Duration
	lease     time.Duration
}

func NewRelay(store Store, pub Publisher, relayID string) *Relay {
	return &Relay{
		store:     store,
		pub:       pub,
		relayID:   relayID,
		batchSize: 100,
		interval:  500 * time.Millisecond,
		lease:     10 * time.Second,
	}
}

// Run blocks until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[events] relay %s stopping", r.relayID)
			return
		case <-t.C:
			if _, err := r.Flush(ctx); err != nil {
				log.Printf("[events] relay %s: %v", r.relayID, err)
			}
		}
	}
}

// Flush forwards one batch and returns how many events were sent.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	batch, err := r.store.LockBatch(ctx, r.relayID, r.batchSize, r.lease)
	if err != nil {
		return 0, err
	}
	sent := make([]int64, 0, len(batch))
	for _, ev := range batch {
		if err := r.pub.Publish(ctx, ev); err != nil {
			if mErr := r.store.MarkFailed(ctx, ev.ID, err.Error()); mErr != nil {
				log.Printf("[events] mark failed id=%d: %v", ev.ID, mErr)
			}
			continue
		}
		sent = append(sent, ev.ID)
	}
	if len(sent) == 0 {
		return 0, nil
	}
	return len(sent), r.store.MarkSent(ctx, sent)
}
