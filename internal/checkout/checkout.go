// Package checkout runs the four-step checkout wizard: shipping address,
// delivery tier, payment, confirmation. On a successful payment it saves the
// address, snapshots the cart into an order and empties the cart.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MikeMC777/storefront/internal/address"
	"github.com/MikeMC777/storefront/internal/auth"
	"github.com/MikeMC777/storefront/internal/cart"
	"github.com/MikeMC777/storefront/internal/idempotency"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/payment"
	"github.com/MikeMC777/storefront/internal/profile"
	"github.com/MikeMC777/storefront/internal/settings"
	"github.com/MikeMC777/storefront/internal/shipping"
)

// Cart is the session cart the wizard reads and, on success, empties.
type Cart interface {
	Items() []cart.Item
	TotalPrice() decimal.Decimal
	Clear(ctx context.Context) error
}

type Settings interface {
	Current() settings.StoreSettings
}

type Addresses interface {
	List(ctx context.Context, userID string) ([]address.Saved, error)
	Get(ctx context.Context, userID, id string) (*address.Saved, error)
	UpsertDefault(ctx context.Context, userID, selectedID string, ship address.Shipping) (string, error)
}

type Profiles interface {
	GetByID(ctx context.Context, id string) (*profile.Profile, error)
	UpdateContact(ctx context.Context, id string, c profile.Contact) error
}

type Orders interface {
	Create(ctx context.Context, o *order.Order) error
}

type Deps struct {
	Settings  Settings
	Addresses Addresses
	Profiles  Profiles
	Orders    Orders
	Processor payment.Processor
	Guard     idempotency.Guard
}

type Service struct {
	Deps
	tracer trace.Tracer
}

func NewService(d Deps) *Service {
	return &Service{Deps: d, tracer: otel.Tracer("storefront/checkout")}
}

// Flow is one request's view of a session's checkout.
type Flow struct {
	svc  *Service
	cart Cart
	user auth.Identity
	st   State
}

// Resume wraps a persisted state. An empty state starts at shipping.
func (s *Service) Resume(st State, c Cart, user auth.Identity) *Flow {
	if !st.Step.Valid() {
		st = NewState()
	}
	return &Flow{svc: s, cart: c, user: user, st: st}
}

func (f *Flow) State() State { return f.st }

// Enter opens the wizard. A finished checkout restarts when the cart has been
// refilled; otherwise an empty cart is refused with ErrEmptyCart.
func (f *Flow) Enter(ctx context.Context) ([]address.Saved, error) {
	empty := len(f.cart.Items()) == 0
	if f.st.Step == StepConfirmation {
		if empty {
			return nil, nil
		}
		f.st = NewState()
	}
	if empty {
		return nil, ErrEmptyCart
	}
	if f.st.Step == StepShipping && f.st.Address == (address.Shipping{}) {
		return f.Prefill(ctx), nil
	}
	return f.savedAddresses(ctx), nil
}

// Check refuses to show a wizard step when there is nothing to buy. A
// finished checkout is always shown.
func (f *Flow) Check() error {
	if f.st.Step != StepConfirmation && len(f.cart.Items()) == 0 {
		return ErrEmptyCart
	}
	return nil
}

func (f *Flow) guard(op string, at Step) error {
	if err := f.Check(); err != nil {
		return err
	}
	if f.st.Step != at {
		return &StepError{Op: op, Step: f.st.Step}
	}
	return nil
}

func (f *Flow) savedAddresses(ctx context.Context) []address.Saved {
	if !f.user.Authenticated() {
		return nil
	}
	saved, err := f.svc.Addresses.List(ctx, f.user.UserID)
	if err != nil {
		log.Printf("[checkout] list addresses uid=%s: %v", f.user.UserID, err)
		return nil
	}
	return saved
}

// Prefill fills the form from the default saved address, or failing that from
// the profile. It returns the saved addresses to offer for selection.
func (f *Flow) Prefill(ctx context.Context) []address.Saved {
	if !f.user.Authenticated() {
		return nil
	}
	saved := f.savedAddresses(ctx)
	for _, a := range saved {
		if a.IsDefault {
			f.st.Address = a.Shipping
			f.st.SelectedAddressID = a.ID
			return saved
		}
	}

	f.st.Address.Email = f.user.Email
	p, err := f.svc.Profiles.GetByID(ctx, f.user.UserID)
	if err != nil {
		log.Printf("[checkout] load profile uid=%s: %v", f.user.UserID, err)
		return saved
	}
	f.st.Address.FirstName, f.st.Address.LastName = p.SplitName()
	if p.Email != "" {
		f.st.Address.Email = p.Email
	}
	f.st.Address.Phone = p.Phone
	return saved
}

// SelectAddress copies every field of a saved address into the form.
func (f *Flow) SelectAddress(ctx context.Context, id string) error {
	if err := f.guard("select address", StepShipping); err != nil {
		return err
	}
	if !f.user.Authenticated() {
		return address.ErrNotFound
	}
	a, err := f.svc.Addresses.Get(ctx, f.user.UserID, id)
	if err != nil {
		return err
	}
	f.st.Address = a.Shipping
	f.st.SelectedAddressID = a.ID
	return nil
}

// SubmitShipping validates the form and moves to delivery. An invalid form
// leaves the state untouched.
func (f *Flow) SubmitShipping(ship address.Shipping, save bool) error {
	if err := f.guard("submit shipping", StepShipping); err != nil {
		return err
	}
	if err := ship.Validate(); err != nil {
		return err
	}
	// An edited selection is still saved over the selected row.
	f.st.Address = ship
	f.st.SaveAddress = save
	f.st.Step, _ = StepShipping.Next()
	return nil
}

// Options prices the delivery tiers against the current cart.
func (f *Flow) Options() []shipping.Option {
	return shipping.Options(f.cart.TotalPrice(), f.svc.Settings.Current().FreeShippingThreshold)
}

func (f *Flow) SubmitDelivery(raw string) error {
	if err := f.guard("submit delivery", StepDelivery); err != nil {
		return err
	}
	id, err := shipping.ParseOptionID(raw)
	if err != nil {
		return err
	}
	f.st.ShippingOption = id
	f.st.Step, _ = StepDelivery.Next()
	return nil
}

// Back moves one step back. Shipping and confirmation have no back edge.
func (f *Flow) Back() error {
	if err := f.Check(); err != nil {
		return err
	}
	prev, ok := f.st.Step.Back()
	if !ok {
		return &StepError{Op: "back", Step: f.st.Step}
	}
	f.st.Step = prev
	f.st.PaymentError = ""
	return nil
}

// Quote recomputes subtotal, shipping, tax and total from the cart as it is now.
func (f *Flow) Quote() (shipping.Quote, shipping.Option, error) {
	cfg := f.svc.Settings.Current()
	subtotal := f.cart.TotalPrice()
	opt, err := shipping.Find(shipping.Options(subtotal, cfg.FreeShippingThreshold), f.st.ShippingOption)
	if err != nil {
		return shipping.Quote{}, shipping.Option{}, err
	}
	return shipping.NewQuote(subtotal, opt, cfg.TaxRate), opt, nil
}

// CreatePaymentIntent asks the processor to authorize the final total.
func (f *Flow) CreatePaymentIntent(ctx context.Context) (payment.Intent, shipping.Quote, error) {
	ctx, span := f.svc.tracer.Start(ctx, "checkout.CreatePaymentIntent")
	defer span.End()

	if err := f.guard("create payment intent", StepPayment); err != nil {
		return payment.Intent{}, shipping.Quote{}, err
	}
	q, _, err := f.Quote()
	if err != nil {
		return payment.Intent{}, shipping.Quote{}, err
	}
	span.SetAttributes(attribute.String("checkout.total", q.Total.StringFixed(2)))

	in, err := f.svc.Processor.CreateIntent(ctx, q.Total, f.svc.Settings.Current().Currency)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create intent")
		return payment.Intent{}, q, err
	}
	f.st.IntentID = in.ID
	f.st.IntentAmount = q.Total
	f.st.PaymentError = ""
	return in, q, nil
}

// CompletePayment settles the hosted payment form. A declined payment keeps
// the wizard on payment and returns *PaymentError; nothing else changes. A
// cart whose total no longer matches the intent is refused with
// ErrAmountChanged before the processor is asked. A successful payment always
// ends at confirmation with an empty cart, even when no order row can be
// written.
func (f *Flow) CompletePayment(ctx context.Context, intentID string) error {
	ctx, span := f.svc.tracer.Start(ctx, "checkout.CompletePayment",
		trace.WithAttributes(attribute.String("payment.intent_id", intentID)))
	defer span.End()

	// The cart is not required here: it may have been emptied in another tab
	// after the shopper paid.
	if f.st.Step != StepPayment {
		return &StepError{Op: "complete payment", Step: f.st.Step}
	}
	if intentID == "" || intentID != f.st.IntentID {
		return ErrUnknownIntent
	}

	items := f.cart.Items()
	var (
		q   shipping.Quote
		opt shipping.Option
	)
	if len(items) > 0 {
		var err error
		if q, opt, err = f.Quote(); err != nil {
			return err
		}
		if !q.Total.Equal(f.st.IntentAmount) {
			span.SetStatus(codes.Error, "amount changed")
			f.st.IntentID = ""
			f.st.IntentAmount = decimal.Zero
			return ErrAmountChanged
		}
	}

	claimed, err := f.svc.Guard.Claim(ctx, intentID)
	if err != nil {
		return fmt.Errorf("claim payment: %w", err)
	}
	if !claimed {
		return ErrDuplicatePayment
	}

	out, err := f.svc.Processor.Verify(ctx, intentID)
	if err != nil || !out.Succeeded {
		if rErr := f.svc.Guard.Release(ctx, intentID); rErr != nil {
			log.Printf("[checkout] release %s: %v", intentID, rErr)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "verify")
			return err
		}
		f.st.PaymentError = out.Message
		span.SetStatus(codes.Error, "declined")
		return &PaymentError{Message: out.Message}
	}

	f.saveAddress(ctx)

	if len(items) == 0 {
		log.Printf("[checkout] payment %s settled with an empty cart, no order written", intentID)
		f.degrade()
	} else {
		f.placeOrder(ctx, intentID, q, opt, items)
	}
	span.SetAttributes(attribute.String("order.ref", f.st.OrderRef), attribute.Bool("order.degraded", f.st.Degraded))

	if err := f.cart.Clear(ctx); err != nil {
		log.Printf("[checkout] clear cart after %s: %v", f.st.OrderRef, err)
	}

	f.st.PaidTotal = f.st.IntentAmount
	f.st.PaymentError = ""
	f.st.Step, _ = StepPayment.Next()
	return nil
}

func (f *Flow) placeOrder(ctx context.Context, intentID string, q shipping.Quote, opt shipping.Option, items []cart.Item) {
	o := &order.Order{
		Status: order.StatusProcessing,
		Total:  q.Total,
		ShippingAddress: order.ShippingSnapshot{
			Shipping:       f.st.Address,
			ShippingOption: opt.ID,
			ShippingLabel:  opt.Label,
			ShippingCost:   opt.Cost,
		},
		Items: snapshot(items),
	}
	if f.user.Authenticated() {
		uid := f.user.UserID
		o.UserID = &uid
	}
	if err := f.svc.Orders.Create(ctx, o); err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
		log.Printf("[checkout] order insert failed after payment %s: %v", intentID, err)
		f.degrade()
		return
	}
	f.st.OrderID = o.ID
	f.st.OrderRef = order.Reference(o.ID)
	f.st.Degraded = false
}

// degrade marks a paid checkout that has no order row.
func (f *Flow) degrade() {
	f.st.OrderID = ""
	f.st.OrderRef = PlaceholderRef()
	f.st.Degraded = true
}

// saveAddress stores the shipping address as the default and mirrors the
// contact details on the profile. Failures are logged only.
func (f *Flow) saveAddress(ctx context.Context) {
	if !f.user.Authenticated() || !f.st.SaveAddress {
		return
	}
	uid := f.user.UserID
	if _, err := f.svc.Addresses.UpsertDefault(ctx, uid, f.st.SelectedAddressID, f.st.Address); err != nil {
		log.Printf("[checkout] save address uid=%s: %v", uid, err)
		return
	}
	err := f.svc.Profiles.UpdateContact(ctx, uid, profile.Contact{
		FullName: f.st.Address.FullName(),
		Phone:    f.st.Address.Phone,
		Address:  f.st.Address.Summary(),
	})
	if err != nil && !errors.Is(err, profile.ErrNotFound) {
		log.Printf("[checkout] update profile uid=%s: %v", uid, err)
	}
}

func snapshot(items []cart.Item) []order.Item {
	out := make([]order.Item, len(items))
	for i, it := range items {
		out[i] = order.Item{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Price:     it.Product.Price,
			Quantity:  it.Quantity,
			Image:     it.Product.Image,
		}
	}
	return out
}

const refAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// PlaceholderRef is shown when payment went through but no order row exists.
func PlaceholderRef() string {
	b := make([]byte, 9)
	for i := range b {
		b[i] = refAlphabet[rand.Intn(len(refAlphabet))]
	}
	return "OLV-" + string(b)
}
