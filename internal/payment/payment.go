// Package payment talks to the card processor: it creates an authorization
// for an amount and later reports whether the shopper completed it.
package payment

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrUnknownIntent = errors.New("unknown payment intent")

type Intent struct {
	ID           string          `json:"id"`
	ClientSecret string          `json:"client_secret"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

// Outcome is what the hosted payment form reported. Message is the
// processor's own text and is shown to the shopper as is.
type Outcome struct {
	Succeeded      bool   `json:"succeeded"`
	ConfirmationID string `json:"confirmation_id,omitempty"`
	Message        string `json:"message,omitempty"`
}

type Processor interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (Intent, error)
	Verify(ctx context.Context, intentID string) (Outcome, error)
}

// Fake is an in-memory Processor. Intents succeed unless scripted otherwise
// with Decline.
type Fake struct {
	mu       sync.Mutex
	intents  map[string]Intent
	declines map[string]string
	// DeclineAll makes every Verify fail with this message when set.
	DeclineAll string
}

func NewFake() *Fake {
	return &Fake{intents: map[string]Intent{}, declines: map[string]string{}}
}

func (f *Fake) CreateIntent(_ context.Context, amount decimal.Decimal, currency string) (Intent, error) {
	id := "pi_fake_" + uuid.NewString()
	in := Intent{ID: id, ClientSecret: id + "_secret", Amount: amount, Currency: currency}
	f.mu.Lock()
	f.intents[id] = in
	f.mu.Unlock()
	return in, nil
}

func (f *Fake) Decline(intentID, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declines[intentID] = message
}

func (f *Fake) Verify(_ context.Context, intentID string) (Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.intents[intentID]; !ok {
		return Outcome{}, ErrUnknownIntent
	}
	if msg, ok := f.declines[intentID]; ok {
		return Outcome{Message: msg}, nil
	}
	if f.DeclineAll != "" {
		return Outcome{Message: f.DeclineAll}, nil
	}
	return Outcome{Succeeded: true, ConfirmationID: intentID}, nil
}
