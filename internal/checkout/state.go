package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/address"
	"github.com/MikeMC777/storefront/internal/shipping"
)

type Step string

const (
	StepShipping     Step = "shipping"
	StepDelivery     Step = "delivery"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
)

type edges struct {
	next, back Step
}

// transitions is the whole wizard. A missing edge is an illegal move;
// confirmation has none.
var transitions = map[Step]edges{
	StepShipping:     {next: StepDelivery},
	StepDelivery:     {next: StepPayment, back: StepShipping},
	StepPayment:      {next: StepConfirmation, back: StepDelivery},
	StepConfirmation: {},
}

func (s Step) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Step) Next() (Step, bool) {
	e := transitions[s]
	return e.next, e.next != ""
}

func (s Step) Back() (Step, bool) {
	e := transitions[s]
	return e.back, e.back != ""
}

// State is one session's checkout. It is persisted between requests.
type State struct {
	Step              Step              `json:"step"`
	Address           address.Shipping  `json:"address"`
	SelectedAddressID string            `json:"selectedAddressId,omitempty"`
	SaveAddress       bool              `json:"saveAddress"`
	ShippingOption    shipping.OptionID `json:"shippingOption"`
	IntentID          string            `json:"intentId,omitempty"`
	IntentAmount      decimal.Decimal   `json:"intentAmount"`
	PaymentError      string            `json:"paymentError,omitempty"`

	// Set once the wizard reaches confirmation.
	OrderID   string          `json:"orderId,omitempty"`
	OrderRef  string          `json:"orderRef,omitempty"`
	Degraded  bool            `json:"degraded,omitempty"`
	PaidTotal decimal.Decimal `json:"paidTotal"`
}

func NewState() State {
	return State{Step: StepShipping, SaveAddress: true, ShippingOption: shipping.Standard}
}
