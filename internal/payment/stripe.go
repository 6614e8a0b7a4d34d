package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// Stripe creates PaymentIntents; card entry happens in Stripe's hosted form.
type Stripe struct {
	client paymentintent.Client
}

func NewStripe(secretKey string) *Stripe {
	return &Stripe{client: paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}}
}

// MinorUnits converts a decimal amount to cents.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (s *Stripe) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(amount)),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	pi, err := s.client.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Amount: amount, Currency: currency}, nil
}

func (s *Stripe) Verify(ctx context.Context, intentID string) (Outcome, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.client.Get(intentID, params)
	if err != nil {
		return Outcome{}, fmt.Errorf("get payment intent: %w", err)
	}
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		return Outcome{Succeeded: true, ConfirmationID: pi.ID}, nil
	}
	msg := "Payment was not completed (" + string(pi.Status) + ")."
	if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		msg = pi.LastPaymentError.Msg
	}
	return Outcome{Message: msg}, nil
}
