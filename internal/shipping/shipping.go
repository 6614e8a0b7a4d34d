// Package shipping lists the delivery tiers and computes the checkout quote.
package shipping

import (
	"errors"

	"github.com/shopspring/decimal"
)

type OptionID string

const (
	Standard  OptionID = "standard"
	Express   OptionID = "express"
	Overnight OptionID = "overnight"
)

var ErrUnknownOption = errors.New("unknown shipping option")

var (
	standardCost  = decimal.RequireFromString("5.99")
	expressCost   = decimal.RequireFromString("14.99")
	overnightCost = decimal.RequireFromString("29.99")
)

func ParseOptionID(s string) (OptionID, error) {
	switch OptionID(s) {
	case Standard, Express, Overnight:
		return OptionID(s), nil
	case "":
		return Standard, nil
	}
	return "", ErrUnknownOption
}

type Option struct {
	ID          OptionID        `json:"id"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	ETA         string          `json:"eta"`
	Cost        decimal.Decimal `json:"cost"`
}

// Options returns the three tiers priced for subtotal. Standard is free once
// subtotal reaches threshold.
func Options(subtotal, threshold decimal.Decimal) []Option {
	free := subtotal.GreaterThanOrEqual(threshold)
	std := Option{
		ID:          Standard,
		Label:       "Standard",
		Description: "Reliable delivery with tracking.",
		ETA:         "3-5 business days",
		Cost:        standardCost,
	}
	if free {
		std.Label = "Standard (Free)"
		std.Cost = decimal.Zero
	}
	return []Option{
		std,
		{
			ID:          Express,
			Label:       "Express",
			Description: "Faster delivery with priority handling.",
			ETA:         "1-2 business days",
			Cost:        expressCost,
		},
		{
			ID:          Overnight,
			Label:       "Overnight",
			Description: "Next business day delivery in most areas.",
			ETA:         "Next business day",
			Cost:        overnightCost,
		},
	}
}

func Find(opts []Option, id OptionID) (Option, error) {
	for _, o := range opts {
		if o.ID == id {
			return o, nil
		}
	}
	return Option{}, ErrUnknownOption
}

type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// NewQuote prices an order. taxRatePercent is a percentage (8 means 8%); tax
// is rounded to cents.
func NewQuote(subtotal decimal.Decimal, opt Option, taxRatePercent decimal.Decimal) Quote {
	tax := subtotal.Mul(taxRatePercent).Div(decimal.NewFromInt(100)).Round(2)
	return Quote{
		Subtotal: subtotal,
		Shipping: opt.Cost,
		Tax:      tax,
		Total:    subtotal.Add(opt.Cost).Add(tax),
	}
}
