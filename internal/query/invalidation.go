package query

// Key names a cached entity
type Key string

const (
	KeyProducts           Key = "products"
	KeyRecommendations    Key = "recommendations"
	KeyOrders             Key = "orders"
	KeyCart               Key = "cart"
	KeyWallet             Key = "wallet"
	KeyCoupons            Key = "coupons"
	KeyWalletTransactions Key = "wallet-transactions"
	KeyAddresses          Key = "addresses"
)

// Mutation names a backend write whose success invalidates cached entities
type Mutation string

const (
	MutationRedeemCoupon   Mutation = "redeem-coupon"
	MutationSubmitReviews  Mutation = "submit-reviews"
	MutationHideOrder      Mutation = "hide-order"
	MutationReorder        Mutation = "reorder"
	MutationPlaceOrder     Mutation = "place-order"
	MutationAddToCart      Mutation = "add-to-cart"
	MutationUpdateQuantity Mutation = "update-quantity"
	MutationRemoveFromCart Mutation = "remove-from-cart"
	MutationClearCart      Mutation = "clear-cart"
)

// Invalidations lists every cached entity each mutation can change.
// MutationSucceeded is the only consumer.
var Invalidations = map[Mutation][]Key{
	MutationRedeemCoupon:   {KeyWallet, KeyCoupons, KeyWalletTransactions},
	MutationSubmitReviews:  {KeyOrders, KeyProducts, KeyCoupons},
	MutationHideOrder:      {KeyOrders},
	MutationReorder:        {KeyCart, KeyOrders},
	MutationPlaceOrder:     {KeyCart, KeyCoupons, KeyWallet, KeyOrders, KeyWalletTransactions},
	MutationAddToCart:      {KeyCart},
	MutationUpdateQuantity: {KeyCart},
	MutationRemoveFromCart: {KeyCart},
	MutationClearCart:      {KeyCart},
}

// Covers reports whether m invalidates every given key
func Covers(m Mutation, keys ...Key) bool {
	listed := make(map[Key]bool, len(Invalidations[m]))
	for _, k := range Invalidations[m] {
		listed[k] = true
	}
	for _, k := range keys {
		if !listed[k] {
			return false
		}
	}
	return true
}
