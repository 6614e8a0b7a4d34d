package settings

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("store settings not found")
)

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Get(ctx context.Context) (*StoreSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		s              StoreSettings
		tax, threshold string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id::text, store_name, COALESCE(store_logo, ''), store_email, COALESCE(store_phone, ''),
		       COALESCE(store_address, ''), COALESCE(about_title, ''), COALESCE(about_text, ''),
		       COALESCE(contact_title, ''), COALESCE(contact_text, ''), currency,
		       tax_rate::text, free_shipping_threshold::text, theme,
		       email_notifications, order_notifications, marketing_emails
		FROM store_settings
		ORDER BY created_at
		LIMIT 1
	`).Scan(&s.ID, &s.StoreName, &s.StoreLogo, &s.StoreEmail, &s.StorePhone,
		&s.StoreAddress, &s.AboutTitle, &s.AboutText,
		&s.ContactTitle, &s.ContactText, &s.Currency,
		&tax, &threshold, &s.Theme,
		&s.EmailNotifications, &s.OrderNotifications, &s.MarketingEmails)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if s.TaxRate, err = decimal.NewFromString(tax); err != nil {
		return nil, err
	}
	if s.FreeShippingThreshold, err = decimal.NewFromString(threshold); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGRepo) Insert(ctx context.Context, s *StoreSettings) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO store_settings (store_name, store_logo, store_email, store_phone, store_address,
		    about_title, about_text, contact_title, contact_text, currency,
		    tax_rate, free_shipping_threshold, theme,
		    email_notifications, order_notifications, marketing_emails)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''),
		    NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10,
		    $11::numeric, $12::numeric, $13, $14, $15, $16)
		RETURNING id::text
	`, s.StoreName, s.StoreLogo, s.StoreEmail, s.StorePhone, s.StoreAddress,
		s.AboutTitle, s.AboutText, s.ContactTitle, s.ContactText, s.Currency,
		s.TaxRate.String(), s.FreeShippingThreshold.String(), s.Theme,
		s.EmailNotifications, s.OrderNotifications, s.MarketingEmails).Scan(&s.ID)
}

func (r *PGRepo) Update(ctx context.Context, s *StoreSettings) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE store_settings
		SET store_name = $2, store_logo = NULLIF($3, ''), store_email = $4,
		    store_phone = NULLIF($5, ''), store_address = NULLIF($6, ''),
		    about_title = NULLIF($7, ''), about_text = NULLIF($8, ''),
		    contact_title = NULLIF($9, ''), contact_text = NULLIF($10, ''),
		    currency = $11, tax_rate = $12::numeric, free_shipping_threshold = $13::numeric,
		    theme = $14, email_notifications = $15, order_notifications = $16,
		    marketing_emails = $17, updated_at = NOW()
		WHERE id = $1
	`, s.ID, s.StoreName, s.StoreLogo, s.StoreEmail, s.StorePhone, s.StoreAddress,
		s.AboutTitle, s.AboutText, s.ContactTitle, s.ContactText, s.Currency,
		s.TaxRate.String(), s.FreeShippingThreshold.String(), s.Theme,
		s.EmailNotifications, s.OrderNotifications, s.MarketingEmails)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
