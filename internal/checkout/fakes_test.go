package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/query"
)

type fakeValidator struct {
	mu        sync.Mutex
	calls     int
	discounts map[string]float64
	err       error
	lastValue float64
}

func (v *fakeValidator) ValidateCoupon(_ context.Context, code string, orderValue float64) (models.ValidateCouponResponse, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	v.lastValue = orderValue
	if v.err != nil {
		return models.ValidateCouponResponse{}, v.err
	}
	d, ok := v.discounts[strings.ToUpper(code)]
	if !ok {
		return models.ValidateCouponResponse{Valid: false}, nil
	}
	return models.ValidateCouponResponse{
		Valid:    true,
		Coupon:   &models.Coupon{Code: strings.ToUpper(code), ExpiresAt: time.Now().Add(time.Hour)},
		Discount: d,
	}, nil
}

func (v *fakeValidator) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

type fakeCart struct {
	mu       sync.Mutex
	items    []models.CartItem
	clears   int
	clearErr error
}

func (c *fakeCart) Items(context.Context) ([]models.CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CartItem(nil), c.items...), nil
}

func (c *fakeCart) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
	if c.clearErr != nil {
		return c.clearErr
	}
	c.items = nil
	return nil
}

func (c *fakeCart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

type fakeAddresses struct {
	list []models.Address
}

func (a *fakeAddresses) List(context.Context) ([]models.Address, error) {
	return a.list, nil
}

type fakeIntents struct {
	mu         sync.Mutex
	created    []models.CreateIntentRequest
	confirmed  []string
	createErr  error
	confirmErr error
	// block holds CreateIntent until closed
	block chan struct{}
	// entered receives a value each time CreateIntent starts
	entered chan struct{}
}

func (f *fakeIntents) CreateIntent(ctx context.Context, req models.CreateIntentRequest) (models.CreateIntentResponse, error) {
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return models.CreateIntentResponse{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	if f.createErr != nil {
		return models.CreateIntentResponse{}, f.createErr
	}
	return models.CreateIntentResponse{ClientSecret: "pi_1_secret_1", OrderID: "order-1"}, nil
}

func (f *fakeIntents) ConfirmOrder(_ context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, orderID)
	return f.confirmErr
}

func (f *fakeIntents) Created() []models.CreateIntentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CreateIntentRequest(nil), f.created...)
}

func (f *fakeIntents) Confirmed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.confirmed...)
}

type fakeSheet struct {
	initErr    error
	presentErr error
	inits      []SheetConfig
	presents   int
	// onPresent runs inside Present before it returns
	onPresent func(ctx context.Context)
}

func (s *fakeSheet) Init(_ context.Context, cfg SheetConfig) error {
	s.inits = append(s.inits, cfg)
	return s.initErr
}

func (s *fakeSheet) Present(ctx context.Context) error {
	s.presents++
	if s.onPresent != nil {
		s.onPresent(ctx)
	}
	return s.presentErr
}

type fakeInvalidator struct {
	mutations []query.Mutation
}

func (f *fakeInvalidator) MutationSucceeded(m query.Mutation) {
	f.mutations = append(f.mutations, m)
}

var errNetwork = errors.New("network unreachable")
