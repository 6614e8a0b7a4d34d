// Package settings serves the single store-wide settings row: tax rate,
// free-shipping threshold, currency and the storefront copy.
package settings

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/shopspring/decimal"
)

type StoreSettings struct {
	ID           string `json:"id"`
	StoreName    string `json:"store_name"`
	StoreLogo    string `json:"store_logo,omitempty"`
	StoreEmail   string `json:"store_email"`
	StorePhone   string `json:"store_phone,omitempty"`
	StoreAddress string `json:"store_address,omitempty"`
	AboutTitle   string `json:"about_title,omitempty"`
	AboutText    string `json:"about_text,omitempty"`
	ContactTitle string `json:"contact_title,omitempty"`
	ContactText  string `json:"contact_text,omitempty"`
	Currency     string `json:"currency"`
	// TaxRate is a percentage: 8.0 means 8%.
	TaxRate               decimal.Decimal `json:"tax_rate"`
	FreeShippingThreshold decimal.Decimal `json:"free_shipping_threshold"`
	Theme                 string          `json:"theme"`
	EmailNotifications    bool            `json:"email_notifications"`
	OrderNotifications    bool            `json:"order_notifications"`
	MarketingEmails       bool            `json:"marketing_emails"`
}

func Defaults() StoreSettings {
	return StoreSettings{
		StoreName:             "Olivia Grove",
		StoreEmail:            "hello@oliviagrove.com",
		StorePhone:            "+1 (555) 123-4567",
		StoreAddress:          "123 Olive Grove Lane, Tuscany, Italy 58100",
		AboutTitle:            "Our Story",
		AboutText:             "For generations, our family has cultivated the finest olive groves in the heart of Tuscany.",
		ContactTitle:          "Get in Touch",
		ContactText:           "Have questions about our products or want to place a bulk order? We would love to hear from you.",
		Currency:              "USD",
		TaxRate:               decimal.NewFromFloat(8.0),
		FreeShippingThreshold: decimal.NewFromInt(50),
		Theme:                 "default",
		EmailNotifications:    true,
		OrderNotifications:    true,
	}
}

type Repository interface {
	Get(ctx context.Context) (*StoreSettings, error)
	Insert(ctx context.Context, s *StoreSettings) error
	Update(ctx context.Context, s *StoreSettings) error
}

// Provider caches the settings row for the process.
type Provider struct {
	repo Repository

	mu  sync.RWMutex
	cur StoreSettings
}

func NewProvider(repo Repository) *Provider {
	return &Provider{repo: repo, cur: Defaults()}
}

// Load refreshes the cached row. A read failure keeps the defaults.
func (p *Provider) Load(ctx context.Context) StoreSettings {
	s, err := p.repo.Get(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		log.Printf("[settings] using defaults: %v", err)
		p.cur = Defaults()
	} else {
		p.cur = *s
	}
	return p.cur
}

// Refresh re-reads the row so changes made by another instance reach this
// one. A read failure keeps the settings already cached; a missing row means
// defaults.
func (p *Provider) Refresh(ctx context.Context) error {
	s, err := p.repo.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		def := Defaults()
		s, err = &def, nil
	}
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.cur = *s
	p.mu.Unlock()
	return nil
}

func (p *Provider) Current() StoreSettings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cur
}

// Update writes s, inserting the row when the store has none yet.
func (p *Provider) Update(ctx context.Context, s StoreSettings) (StoreSettings, error) {
	p.mu.RLock()
	s.ID = p.cur.ID
	p.mu.RUnlock()

	var err error
	if s.ID == "" {
		err = p.repo.Insert(ctx, &s)
	} else {
		err = p.repo.Update(ctx, &s)
	}
	if err != nil {
		return p.Current(), err
	}

	p.mu.Lock()
	p.cur = s
	p.mu.Unlock()
	return s, nil
}
