package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/query"
	"go.uber.org/zap"
)

// State is a checkout flow state
type State int

const (
	Idle State = iota
	AddressRequired
	AddressSelected
	IntentCreated
	PaymentPresented
	Succeeded
	PaymentCancelled
	PaymentFailed
	OrderConfirmed
)

var stateNames = [...]string{
	Idle:             "idle",
	AddressRequired:  "address_required",
	AddressSelected:  "address_selected",
	IntentCreated:    "intent_created",
	PaymentPresented: "payment_presented",
	Succeeded:        "succeeded",
	PaymentCancelled: "payment_cancelled",
	PaymentFailed:    "payment_failed",
	OrderConfirmed:   "order_confirmed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether the flow has finished an attempt
func (s State) Terminal() bool {
	return s == PaymentCancelled || s == PaymentFailed || s == OrderConfirmed
}

// Checkout outcomes recorded in metrics
const (
	outcomeSucceeded = "succeeded"
	outcomeCancelled = "cancelled"
	outcomeFailed    = "failed"
)

const (
	DefaultMerchantName = "Storefront"

	successMessage = "Your payment was successful! Your order is being processed."
)

// CartSource reads and clears the shopper's cart
type CartSource interface {
	Items(ctx context.Context) ([]models.CartItem, error)
	Clear(ctx context.Context) error
}

// AddressSource lists saved shipping addresses
type AddressSource interface {
	List(ctx context.Context) ([]models.Address, error)
}

// IntentClient creates payment intents and confirms paid orders
type IntentClient interface {
	CreateIntent(ctx context.Context, req models.CreateIntentRequest) (models.CreateIntentResponse, error)
	ConfirmOrder(ctx context.Context, orderID string) error
}

// Invalidator is told which mutation succeeded
type Invalidator interface {
	MutationSucceeded(m query.Mutation)
}

// Deps are the collaborators of a Flow
type Deps struct {
	Cart         CartSource
	Addresses    AddressSource
	Intents      IntentClient
	Sheet        PaymentSheet
	Coupons      *CouponSession
	Invalidator  Invalidator
	Pricing      Pricing
	Logger       *zap.Logger
	Metrics      *metrics.AppMetrics
	MerchantName string
}

// Notice is a user-facing message
type Notice struct {
	Title   string
	Message string
}

// Snapshot is a consistent view of a Flow
type Snapshot struct {
	State     State
	OrderID   string
	Address   *models.Address
	Addresses []models.Address
	Breakdown Breakdown
	Notice    Notice
	Err       error
}

// AddressChooser picks one of the saved addresses by id
type AddressChooser func(ctx context.Context, addresses []models.Address) (string, error)

// Flow drives one shopper through address selection and payment. Transitions
// are strictly sequential.
type Flow struct {
	deps   Deps
	logger *zap.Logger

	mu        sync.Mutex
	busy      bool
	state     State
	addresses []models.Address
	address   *models.Address
	orderID   string
	breakdown Breakdown
	notice    Notice
	err       error
}

// NewFlow creates an idle flow
func NewFlow(deps Deps) *Flow {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNoop()
	}
	if deps.Pricing == (Pricing{}) {
		deps.Pricing = DefaultPricing()
	}
	if deps.Coupons == nil {
		deps.Coupons = NewCouponSession(nil)
	}
	if deps.MerchantName == "" {
		deps.MerchantName = DefaultMerchantName
	}
	return &Flow{deps: deps, logger: deps.Logger}
}

// Snapshot returns the current state
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Flow) snapshotLocked() Snapshot {
	s := Snapshot{
		State:     f.state,
		OrderID:   f.orderID,
		Addresses: append([]models.Address(nil), f.addresses...),
		Breakdown: f.breakdown,
		Notice:    f.notice,
		Err:       f.err,
	}
	if f.address != nil {
		a := *f.address
		s.Address = &a
	}
	return s
}

// enter claims the flow for one operation
func (f *Flow) enter(op string, allowed ...State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrCheckoutInProgress
	}
	ok := len(allowed) == 0
	for _, s := range allowed {
		if f.state == s {
			ok = true
			break
		}
	}
	if !ok {
		return &TransitionError{From: f.state, Op: op}
	}
	f.busy = true
	return nil
}

func (f *Flow) leave() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
}

func (f *Flow) set(state State, notice Notice, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.notice = notice
	f.err = err
	f.logger.Debug("checkout transition", zap.Stringer("state", state), zap.String("order_id", f.orderID))
}

// Begin starts checkout. An empty cart leaves the flow idle. Without saved
// addresses the flow asks for one and no intent is ever requested.
func (f *Flow) Begin(ctx context.Context) (Snapshot, error) {
	if err := f.enter("begin", Idle, AddressRequired, AddressSelected, PaymentCancelled, PaymentFailed, OrderConfirmed); err != nil {
		return f.Snapshot(), err
	}
	defer f.leave()

	items, err := f.deps.Cart.Items(ctx)
	if err != nil {
		return f.Snapshot(), fmt.Errorf("failed to load cart: %w", err)
	}
	f.mu.Lock()
	f.breakdown = f.deps.Pricing.Compute(items, f.deps.Coupons.Discount())
	f.orderID = ""
	f.address = nil
	f.addresses = nil
	f.mu.Unlock()

	if len(items) == 0 {
		f.set(Idle, Notice{}, nil)
		return f.Snapshot(), nil
	}

	addresses, err := f.deps.Addresses.List(ctx)
	if err != nil {
		return f.Snapshot(), fmt.Errorf("failed to load addresses: %w", err)
	}
	if len(addresses) == 0 {
		f.set(AddressRequired, Notice{
			Title:   "No Address",
			Message: "Please add a shipping address in your profile before checking out.",
		}, nil)
		return f.Snapshot(), nil
	}

	f.mu.Lock()
	f.addresses = addresses
	f.mu.Unlock()
	f.set(AddressRequired, Notice{}, nil)
	return f.Snapshot(), nil
}

// SelectAddress chooses the shipping address by id among the saved addresses
func (f *Flow) SelectAddress(id string) (Snapshot, error) {
	if err := f.enter("select address", AddressRequired, AddressSelected, PaymentCancelled, PaymentFailed); err != nil {
		return f.Snapshot(), err
	}
	defer f.leave()

	f.mu.Lock()
	var match *models.Address
	for i := range f.addresses {
		if f.addresses[i].ID == id {
			a := f.addresses[i]
			match = &a
			break
		}
	}
	if match == nil {
		f.mu.Unlock()
		return f.Snapshot(), fmt.Errorf("%w: %q", ErrUnknownAddress, id)
	}
	f.address = match
	f.mu.Unlock()

	f.set(AddressSelected, Notice{}, nil)
	return f.Snapshot(), nil
}

// Pay creates the payment intent and runs the payment sheet. The returned
// error covers misuse and failures before any intent exists; payment outcomes
// are reported in the snapshot. Once the intent is created the remaining steps
// run to completion even if ctx is cancelled.
func (f *Flow) Pay(ctx context.Context) (Snapshot, error) {
	if err := f.enter("pay", AddressSelected, PaymentCancelled, PaymentFailed); err != nil {
		return f.Snapshot(), err
	}
	defer f.leave()

	f.mu.Lock()
	address := f.address
	f.mu.Unlock()
	if address == nil {
		return f.Snapshot(), ErrNoAddressSelected
	}

	items, err := f.deps.Cart.Items(ctx)
	if err != nil {
		return f.Snapshot(), fmt.Errorf("failed to load cart: %w", err)
	}
	if len(items) == 0 {
		f.set(Idle, Notice{}, nil)
		return f.Snapshot(), nil
	}

	breakdown := f.deps.Pricing.Compute(items, f.deps.Coupons.Discount())
	f.mu.Lock()
	f.breakdown = breakdown
	f.mu.Unlock()

	intent, err := f.deps.Intents.CreateIntent(ctx, models.CreateIntentRequest{
		CartItems:       items,
		ShippingAddress: address.Shipping(),
		CouponCode:      f.deps.Coupons.AppliedCode(),
	})
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return f.Snapshot(), err
		}
		f.fail(ctx, Notice{
			Title:   "Payment Failed",
			Message: fmt.Sprintf("Unable to process payment: %s\n\nPlease check your connection and try again.", apiclient.UserMessage(err, err.Error())),
		}, err)
		return f.Snapshot(), nil
	}

	ctx = context.WithoutCancel(ctx)
	f.mu.Lock()
	f.orderID = intent.OrderID
	f.mu.Unlock()
	f.set(IntentCreated, Notice{}, nil)

	if err := f.deps.Sheet.Init(ctx, SheetConfig{ClientSecret: intent.ClientSecret, MerchantName: f.deps.MerchantName}); err != nil {
		f.fail(ctx, Notice{Title: "Error", Message: providerMessage(err)}, err)
		return f.Snapshot(), nil
	}

	f.set(PaymentPresented, Notice{}, nil)
	if err := f.deps.Sheet.Present(ctx); err != nil {
		if IsCanceled(err) {
			f.logger.Info("payment cancelled", zap.String("order_id", intent.OrderID))
			f.deps.Metrics.RecordCheckout(ctx, outcomeCancelled, 0)
			f.set(PaymentCancelled, Notice{Title: "Payment cancelled", Message: providerMessage(err)}, err)
			return f.Snapshot(), nil
		}
		f.fail(ctx, Notice{Title: "Payment Failed", Message: providerMessage(err)}, err)
		return f.Snapshot(), nil
	}

	f.set(Succeeded, Notice{}, nil)
	f.complete(ctx, intent.OrderID, breakdown)
	return f.Snapshot(), nil
}

// fail records a failed attempt. The cart and coupon are left untouched.
func (f *Flow) fail(ctx context.Context, notice Notice, err error) {
	f.logger.Warn("checkout failed", zap.String("order_id", f.Snapshot().OrderID), zap.Error(err))
	f.deps.Metrics.RecordCheckout(ctx, outcomeFailed, 0)
	f.set(PaymentFailed, notice, err)
}

// complete finishes a paid order. Confirmation is best effort: the provider
// already charged the shopper.
func (f *Flow) complete(ctx context.Context, orderID string, breakdown Breakdown) {
	if err := f.deps.Intents.ConfirmOrder(ctx, orderID); err != nil {
		f.logger.Error("failed to confirm order", zap.String("order_id", orderID), zap.Error(err))
	}
	if err := f.deps.Cart.Clear(ctx); err != nil {
		f.logger.Warn("failed to clear cart after payment", zap.String("order_id", orderID), zap.Error(err))
	}
	f.deps.Coupons.Remove()
	if f.deps.Invalidator != nil {
		f.deps.Invalidator.MutationSucceeded(query.MutationPlaceOrder)
	}

	f.deps.Metrics.RecordCheckout(ctx, outcomeSucceeded, breakdown.Total.InexactFloat64())
	f.logger.Info("order placed",
		zap.String("order_id", orderID),
		zap.String("total", breakdown.Total.StringFixed(2)),
	)
	f.set(OrderConfirmed, Notice{Title: "Success", Message: successMessage}, nil)
}

// Run performs a whole checkout: Begin, let chooser pick the address, then Pay.
// It stops early when the cart is empty or no address is saved.
func (f *Flow) Run(ctx context.Context, chooser AddressChooser) (Snapshot, error) {
	snap, err := f.Begin(ctx)
	if err != nil {
		return snap, err
	}
	if snap.State != AddressRequired || len(snap.Addresses) == 0 {
		return snap, nil
	}

	id, err := chooser(ctx, snap.Addresses)
	if err != nil {
		return snap, err
	}
	if snap, err = f.SelectAddress(id); err != nil {
		return snap, err
	}
	return f.Pay(ctx)
}
