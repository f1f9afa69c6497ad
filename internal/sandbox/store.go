package sandbox

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatusError is a rejection the handlers render as {"error": Message}
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func badRequest(format string, args ...any) error {
	return &StatusError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return &StatusError{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

// Tier is a coupon redemption option
type Tier struct {
	Coins    int
	Discount float64
}

// Tiers maps coupon types to their cost and discount percent
var Tiers = map[string]Tier{
	models.CouponBronze: {Coins: 100, Discount: 5},
	models.CouponSilver: {Coins: 250, Discount: 10},
	models.CouponGold:   {Coins: 500, Discount: 20},
}

const (
	couponValidity = 30 * 24 * time.Hour
	reviewReward   = models.CouponBronze
)

// Pricing is the backend's order arithmetic
type Pricing struct {
	ShippingFee float64
	TaxRate     float64
}

type cartLine struct {
	productID string
	quantity  int
}

type account struct {
	cart      []cartLine
	addresses []models.Address
	wallet    models.Wallet
	coupons   []models.Coupon
	orders    []*models.Order
	hidden    map[string]bool
}

// Store is the sandbox's in-memory state. Accounts are keyed by bearer token.
type Store struct {
	mu       sync.Mutex
	pricing  Pricing
	products map[string]*models.Product
	order    []string
	accounts map[string]*account
	now      func() time.Time
}

// NewStore creates an empty store
func NewStore(pricing Pricing) *Store {
	return &Store{
		pricing:  pricing,
		products: make(map[string]*models.Product),
		accounts: make(map[string]*account),
		now:      time.Now,
	}
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func (s *Store) accountLocked(user string) *account {
	a, ok := s.accounts[user]
	if !ok {
		a = &account{
			wallet: models.Wallet{ID: newID(), UpdatedAt: s.now()},
			hidden: make(map[string]bool),
		}
		s.accounts[user] = a
	}
	return a
}

// AddProduct inserts or replaces a catalogue entry. An empty ID is assigned.
func (s *Store) AddProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	if _, exists := s.products[p.ID]; !exists {
		s.order = append(s.order, p.ID)
	}
	s.products[p.ID] = &p
	return p
}

// RemoveProduct deletes a product from the catalogue
func (s *Store) RemoveProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// SetStock changes a product's stock level
func (s *Store) SetStock(id string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		p.Stock = stock
	}
}

// Discontinue marks a product as no longer sold
func (s *Store) Discontinue(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		p.Discontinued = true
	}
}

// Products returns the catalogue in insertion order
func (s *Store) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.products[id])
	}
	return out
}

// Recommendations suggests products from categories the user bought, then top rated ones
func (s *Store) Recommendations(user string, limit int) []models.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountLocked(user)

	bought := make(map[string]bool)
	categories := make(map[string]bool)
	for _, o := range a.orders {
		for _, item := range o.OrderItems {
			bought[item.Product.ID] = true
			if p, ok := s.products[item.Product.ID]; ok && p.Category != "" {
				categories[p.Category] = true
			}
		}
	}

	var candidates []*models.Product
	for _, id := range s.order {
		p := s.products[id]
		if p.Discontinued || p.Stock == 0 || bought[id] {
			continue
		}
		candidates = append(candidates, p)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := categories[candidates[i].Category], categories[candidates[j].Category]
		if ci != cj {
			return ci
		}
		return candidates[i].AverageRating > candidates[j].AverageRating
	})

	var recs []models.Recommendation
	for _, p := range candidates {
		if len(recs) == limit {
			break
		}
		rec := models.Recommendation{Product: *p, Type: "top_rated", Reason: "Highly rated by other shoppers"}
		if categories[p.Category] {
			rec.Type = "category_match"
			rec.Reason = "Because you bought from " + p.Category
		}
		recs = append(recs, rec)
	}
	return recs
}

func (s *Store) cartLocked(a *account) models.Cart {
	cart := models.Cart{Items: []models.CartItem{}}
	for _, line := range a.cart {
		p, ok := s.products[line.productID]
		if !ok {
			continue
		}
		cart.Items = append(cart.Items, models.CartItem{Product: *p, Quantity: line.quantity})
	}
	return cart
}

// Cart returns the user's cart with current product data
func (s *Store) Cart(user string) models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLocked(s.accountLocked(user))
}

// AddToCart adds quantity units, merging with an existing line
func (s *Store) AddToCart(user, productID string, quantity int) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quantity < 1 {
		return models.Cart{}, badRequest("Quantity must be at least 1")
	}
	p, ok := s.products[productID]
	if !ok {
		return models.Cart{}, notFound("Product not found")
	}
	if p.Discontinued {
		return models.Cart{}, badRequest("Product has been discontinued")
	}

	a := s.accountLocked(user)
	for i := range a.cart {
		if a.cart[i].productID == productID {
			if a.cart[i].quantity+quantity > p.Stock {
				return models.Cart{}, badRequest("Insufficient stock")
			}
			a.cart[i].quantity += quantity
			return s.cartLocked(a), nil
		}
	}
	if quantity > p.Stock {
		return models.Cart{}, badRequest("Insufficient stock")
	}
	a.cart = append(a.cart, cartLine{productID: productID, quantity: quantity})
	return s.cartLocked(a), nil
}

// UpdateCartItem sets the quantity of an existing line
func (s *Store) UpdateCartItem(user, productID string, quantity int) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quantity < 1 {
		return models.Cart{}, badRequest("Quantity must be at least 1")
	}
	a := s.accountLocked(user)
	for i := range a.cart {
		if a.cart[i].productID != productID {
			continue
		}
		if p, ok := s.products[productID]; ok && quantity > p.Stock {
			return models.Cart{}, badRequest("Insufficient stock")
		}
		a.cart[i].quantity = quantity
		return s.cartLocked(a), nil
	}
	return models.Cart{}, notFound("Item not found in cart")
}

// RemoveCartItem deletes a line
func (s *Store) RemoveCartItem(user, productID string) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountLocked(user)
	for i := range a.cart {
		if a.cart[i].productID == productID {
			a.cart = append(a.cart[:i], a.cart[i+1:]...)
			return s.cartLocked(a), nil
		}
	}
	return models.Cart{}, notFound("Item not found in cart")
}

// ClearCart empties the cart
func (s *Store) ClearCart(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountLocked(user).cart = nil
}

// AddAddress saves a shipping address for the user
func (s *Store) AddAddress(user string, addr models.Address) models.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr.ID == "" {
		addr.ID = newID()
	}
	a := s.accountLocked(user)
	if len(a.addresses) == 0 {
		addr.IsDefault = true
	}
	a.addresses = append(a.addresses, addr)
	return addr
}

// Addresses returns the user's saved addresses
func (s *Store) Addresses(user string) []models.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Address{}, s.accountLocked(user).addresses...)
}

// Orders returns the user's visible orders, newest first. Provisional orders
// whose payment never completed are not listed.
func (s *Store) Orders(user string) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountLocked(user)
	out := []models.Order{}
	for i := len(a.orders) - 1; i >= 0; i-- {
		o := a.orders[i]
		if a.hidden[o.ID] || o.Status == models.OrderPending {
			continue
		}
		out = append(out, copyOrder(o))
	}
	return out
}

// Order returns any order of the user, including provisional and hidden ones
func (s *Store) Order(user, id string) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := findOrder(s.accountLocked(user), id)
	if o == nil {
		return models.Order{}, false
	}
	return copyOrder(o), true
}

func findOrder(a *account, id string) *models.Order {
	for _, o := range a.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func copyOrder(o *models.Order) models.Order {
	c := *o
	c.OrderItems = append([]models.OrderItem{}, o.OrderItems...)
	if o.ProductRatings != nil {
		c.ProductRatings = make(map[string]int, len(o.ProductRatings))
		for k, v := range o.ProductRatings {
			c.ProductRatings[k] = v
		}
	}
	return c
}

// SeedOrder records a past order with the given status. Quantities are keyed by product id.
func (s *Store) SeedOrder(user string, quantities map[string]int, status string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	order := &models.Order{ID: newID(), Status: status, CreatedAt: s.now()}
	total := decimal.Zero
	for _, id := range ids {
		p, ok := s.products[id]
		if !ok {
			return models.Order{}, notFound("Product not found")
		}
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			ID: newID(), Product: *p, Name: p.Name, Price: p.Price, Quantity: quantities[id],
		})
		total = total.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(quantities[id]))))
	}
	order.TotalPrice = total.Round(2).InexactFloat64()
	order.PaymentResult = models.PaymentResult{ID: "pi_" + newID(), Status: "succeeded"}
	if status == models.OrderDelivered {
		at := s.now()
		order.DeliveredAt = &at
	}
	a := s.accountLocked(user)
	a.orders = append(a.orders, order)
	return copyOrder(order), nil
}

// MarkDelivered moves an order to delivered so it can be reviewed
func (s *Store) MarkDelivered(user, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := findOrder(s.accountLocked(user), orderID)
	if o == nil {
		return notFound("Order not found")
	}
	at := s.now()
	o.Status = models.OrderDelivered
	o.DeliveredAt = &at
	return nil
}

// HideOrder removes an order from the user's history without deleting it
func (s *Store) HideOrder(user, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountLocked(user)
	if o := findOrder(a, orderID); o == nil || a.hidden[orderID] {
		return notFound("Order not found")
	}
	a.hidden[orderID] = true
	return nil
}

// Reorder re-adds what is still available from a past order
func (s *Store) Reorder(user, orderID string) (models.ReorderResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountLocked(user)
	o := findOrder(a, orderID)
	if o == nil || a.hidden[orderID] {
		return models.ReorderResponse{}, notFound("Order not found")
	}

	unavailable := []models.UnavailableItem{}
	added := 0
	for _, item := range o.OrderItems {
		p, ok := s.products[item.Product.ID]
		switch {
		case !ok:
			unavailable = append(unavailable, models.UnavailableItem{Name: item.Name, Reason: "Product no longer exists"})
			continue
		case p.Discontinued:
			unavailable = append(unavailable, models.UnavailableItem{Name: item.Name, Reason: "Product has been discontinued"})
			continue
		case p.Stock == 0:
			unavailable = append(unavailable, models.UnavailableItem{Name: item.Name, Reason: "Out of stock"})
			continue
		}

		inCart := 0
		idx := -1
		for i := range a.cart {
			if a.cart[i].productID == p.ID {
				inCart, idx = a.cart[i].quantity, i
			}
		}
		want := inCart + item.Quantity
		if want > p.Stock {
			unavailable = append(unavailable, models.UnavailableItem{
				Name:   item.Name,
				Reason: fmt.Sprintf("Only %d left in stock", p.Stock),
			})
			continue
		}
		if idx >= 0 {
			a.cart[idx].quantity = want
		} else {
			a.cart = append(a.cart, cartLine{productID: p.ID, quantity: item.Quantity})
		}
		added++
	}

	cart := s.cartLocked(a)
	resp := models.ReorderResponse{UnavailableItems: unavailable, Cart: &cart}
	switch {
	case added == 0:
		resp.Message = "None of the items are available"
	case len(unavailable) > 0:
		resp.Message = "Some items were added to cart"
	default:
		resp.Message = "All items added to cart"
	}
	return resp, nil
}

// CreateReview rates one product of a delivered order. Rating every product of
// the order earns a bronze coupon.
func (s *Store) CreateReview(user string, req models.CreateReviewRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Rating < 1 || req.Rating > 5 {
		return badRequest("Rating must be between 1 and 5")
	}
	a := s.accountLocked(user)
	o := findOrder(a, req.OrderID)
	if o == nil {
		return notFound("Order not found")
	}
	if o.Status != models.OrderDelivered {
		return badRequest("Can only review delivered orders")
	}
	inOrder := false
	for _, item := range o.OrderItems {
		if item.Product.ID == req.ProductID {
			inOrder = true
		}
	}
	if !inOrder {
		return badRequest("Product not found in this order")
	}
	if o.ProductRatings[req.ProductID] > 0 {
		return badRequest("You have already reviewed this product")
	}

	if o.ProductRatings == nil {
		o.ProductRatings = make(map[string]int)
	}
	o.ProductRatings[req.ProductID] = req.Rating
	if p, ok := s.products[req.ProductID]; ok {
		sum := p.AverageRating*float64(p.TotalReviews) + float64(req.Rating)
		p.TotalReviews++
		p.AverageRating = decimal.NewFromFloat(sum / float64(p.TotalReviews)).Round(1).InexactFloat64()
	}

	if len(o.ProductRatings) == len(o.OrderItems) {
		s.issueCouponLocked(a, reviewReward)
	}
	return nil
}

// SetCoins overwrites the user's coin balance
func (s *Store) SetCoins(user string, coins int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountLocked(user)
	a.wallet.Coins = coins
	if a.wallet.LifetimeCoins < coins {
		a.wallet.LifetimeCoins = coins
	}
	a.wallet.UpdatedAt = s.now()
}

// Wallet returns the coin balance with its transactions, newest first
func (s *Store) Wallet(user string) models.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.accountLocked(user).wallet
	w.Transactions = reversed(w.Transactions)
	return w
}

// Transactions returns the coin history, newest first
func (s *Store) Transactions(user string) []models.WalletTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reversed(s.accountLocked(user).wallet.Transactions)
}

func reversed(txs []models.WalletTransaction) []models.WalletTransaction {
	out := make([]models.WalletTransaction, len(txs))
	for i, tx := range txs {
		out[len(txs)-1-i] = tx
	}
	return out
}

// Coupons returns every coupon the user holds
func (s *Store) Coupons(user string) []models.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Coupon{}, s.accountLocked(user).coupons...)
}

// AddCoupon gives the user a coupon directly
func (s *Store) AddCoupon(user string, c models.Coupon) models.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	a := s.accountLocked(user)
	a.coupons = append(a.coupons, c)
	return c
}

func (s *Store) issueCouponLocked(a *account, tier string) models.Coupon {
	now := s.now()
	c := models.Coupon{
		ID:            newID(),
		Code:          strings.ToUpper(tier) + "-" + strings.ToUpper(newID()[:8]),
		Type:          tier,
		Discount:      Tiers[tier].Discount,
		CoinsRequired: Tiers[tier].Coins,
		ExpiresAt:     now.Add(couponValidity),
		CreatedAt:     now,
	}
	a.coupons = append(a.coupons, c)
	return c
}

// Redeem exchanges coins for a coupon
func (s *Store) Redeem(user, tier string) (models.RedeemResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := Tiers[tier]
	if !ok {
		return models.RedeemResponse{}, badRequest("Invalid coupon type")
	}
	a := s.accountLocked(user)
	if a.wallet.Coins < t.Coins {
		return models.RedeemResponse{}, badRequest("Insufficient coins. You need %d coins for a %s coupon", t.Coins, tier)
	}

	c := s.issueCouponLocked(a, tier)
	a.wallet.Coins -= t.Coins
	a.wallet.UpdatedAt = s.now()
	a.wallet.Transactions = append(a.wallet.Transactions, models.WalletTransaction{
		Type:        "redeemed",
		Amount:      -t.Coins,
		Description: fmt.Sprintf("Redeemed %s coupon", tier),
		CouponID:    c.ID,
		CreatedAt:   s.now(),
	})

	w := a.wallet
	w.Transactions = reversed(w.Transactions)
	return models.RedeemResponse{
		Message: fmt.Sprintf("Successfully redeemed %s coupon", tier),
		Coupon:  c,
		Wallet:  w,
		ExpiryInfo: models.ExpiryInfo{
			ExpiresAt:  c.ExpiresAt,
			ExpiryDate: c.ExpiresAt.Format("January 2, 2006"),
			DaysValid:  int(couponValidity.Hours() / 24),
			SingleUse:  true,
		},
	}, nil
}

func (s *Store) findCouponLocked(a *account, code string) *models.Coupon {
	for i := range a.coupons {
		if a.coupons[i].MatchesCode(code) {
			return &a.coupons[i]
		}
	}
	return nil
}

// ValidateCoupon prices a coupon against an order value
func (s *Store) ValidateCoupon(user, code string, orderValue float64) (models.ValidateCouponResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(code) == "" {
		return models.ValidateCouponResponse{}, badRequest("Coupon code is required")
	}
	c := s.findCouponLocked(s.accountLocked(user), code)
	if c == nil || !c.Usable(s.now()) {
		return models.ValidateCouponResponse{Valid: false}, nil
	}
	value := decimal.NewFromFloat(orderValue)
	discount := percentOf(value, c.Discount)
	coupon := *c
	return models.ValidateCouponResponse{
		Valid:      true,
		Coupon:     &coupon,
		Discount:   discount.InexactFloat64(),
		FinalPrice: value.Sub(discount).Round(2).InexactFloat64(),
	}, nil
}

func percentOf(value decimal.Decimal, pct float64) decimal.Decimal {
	return value.Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100)).Round(2)
}

// Intent is a created payment intent
type Intent struct {
	ClientSecret string
	OrderID      string
}

// CreateIntent prices the submitted cart and records a provisional order
func (s *Store) CreateIntent(user string, req models.CreateIntentRequest) (Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(req.CartItems) == 0 {
		return Intent{}, badRequest("Cart is empty")
	}
	addr := req.ShippingAddress
	if addr.FullName == "" || addr.StreetAddress == "" || addr.City == "" || addr.ZipCode == "" {
		return Intent{}, badRequest("Shipping address is incomplete")
	}

	a := s.accountLocked(user)
	order := &models.Order{
		ID:              newID(),
		ShippingAddress: addr,
		Status:          models.OrderPending,
		CreatedAt:       s.now(),
	}
	subtotal := decimal.Zero
	for _, item := range req.CartItems {
		p, ok := s.products[item.Product.ID]
		if !ok {
			return Intent{}, badRequest("Product %s not found", item.Product.ID)
		}
		if item.Quantity < 1 {
			return Intent{}, badRequest("Invalid quantity for %s", p.Name)
		}
		if p.Discontinued || item.Quantity > p.Stock {
			return Intent{}, badRequest("%s is no longer available in the requested quantity", p.Name)
		}
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			ID: newID(), Product: *p, Name: p.Name, Price: p.Price, Quantity: item.Quantity,
		})
		subtotal = subtotal.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	tax := subtotal.Mul(decimal.NewFromFloat(s.pricing.TaxRate))
	total := subtotal.Add(decimal.NewFromFloat(s.pricing.ShippingFee)).Add(tax).Round(2)

	if code := strings.TrimSpace(req.CouponCode); code != "" {
		c := s.findCouponLocked(a, code)
		if c == nil || !c.Usable(s.now()) {
			return Intent{}, badRequest("Invalid or expired coupon")
		}
		discount := percentOf(total, c.Discount)
		order.Discount = discount.InexactFloat64()
		order.CouponCode = c.Code
		total = total.Sub(discount)
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	order.TotalPrice = total.Round(2).InexactFloat64()

	intentID := newID()
	order.PaymentResult = models.PaymentResult{ID: "pi_" + intentID, Status: "requires_payment_method"}
	a.orders = append(a.orders, order)

	return Intent{
		ClientSecret: fmt.Sprintf("pi_%s_secret_%s", intentID, newID()),
		OrderID:      order.ID,
	}, nil
}

// ConfirmOrder marks a provisional order paid, consumes its coupon and awards
// one coin per whole currency unit. Confirming twice is a no-op.
func (s *Store) ConfirmOrder(user, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountLocked(user)
	o := findOrder(a, orderID)
	if o == nil {
		return false, notFound("Order not found")
	}
	if o.Status != models.OrderPending {
		return false, nil
	}

	now := s.now()
	o.Status = models.OrderPaid
	o.PaymentResult.Status = "succeeded"
	if o.CouponCode != "" {
		if c := s.findCouponLocked(a, o.CouponCode); c != nil {
			c.IsUsed = true
			c.UsedAt = &now
			c.OrderID = o.ID
		}
	}
	for _, item := range o.OrderItems {
		if p, ok := s.products[item.Product.ID]; ok {
			p.Stock -= item.Quantity
			if p.Stock < 0 {
				p.Stock = 0
			}
		}
	}

	coins := int(o.TotalPrice)
	o.CoinsEarned = coins
	if coins > 0 {
		a.wallet.Coins += coins
		a.wallet.LifetimeCoins += coins
		a.wallet.UpdatedAt = now
		a.wallet.Transactions = append(a.wallet.Transactions, models.WalletTransaction{
			Type:        "earned",
			Amount:      coins,
			Description: "Earned from order",
			OrderID:     o.ID,
			CreatedAt:   now,
		})
	}
	return true, nil
}
