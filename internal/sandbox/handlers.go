package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type contextKey string

const userKey contextKey = "user"

func userFrom(ctx context.Context) string {
	user, _ := ctx.Value(userKey).(string)
	return user
}

// AuthMiddleware requires a bearer token; the token identifies the account
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), userKey, strings.TrimSpace(token))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{Error: message})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var se *StatusError
	if errors.As(err, &se) {
		respondError(w, se.Status, se.Message)
		return
	}
	s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	respondError(w, http.StatusInternalServerError, "Internal Server Error")
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("Invalid request body")
	}
	return nil
}

// HealthHandler handles GET /api/health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if s.Faults.takeUnhealthy() {
		respondError(w, http.StatusServiceUnavailable, "Starting up")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListProductsHandler handles GET /api/products
func (s *Server) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.Store.Products())
}

// RecommendationsHandler handles GET /api/products/recommendations/personalized
func (s *Server) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	recs := s.Store.Recommendations(userFrom(r.Context()), 4)
	respondJSON(w, http.StatusOK, models.RecommendationsResponse{Recommendations: recs})
}

// GetCartHandler handles GET /api/cart
func (s *Server) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.CartResponse{Cart: s.Store.Cart(userFrom(r.Context()))})
}

// AddToCartHandler handles POST /api/cart
func (s *Server) AddToCartHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AddToCartRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	cart, err := s.Store.AddToCart(userFrom(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.CartResponse{Message: "Item added to cart", Cart: cart})
}

// UpdateCartItemHandler handles PUT /api/cart/{productId}
func (s *Server) UpdateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateQuantityRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	cart, err := s.Store.UpdateCartItem(userFrom(r.Context()), mux.Vars(r)["productId"], req.Quantity)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.CartResponse{Message: "Cart updated", Cart: cart})
}

// RemoveCartItemHandler handles DELETE /api/cart/{productId}
func (s *Server) RemoveCartItemHandler(w http.ResponseWriter, r *http.Request) {
	cart, err := s.Store.RemoveCartItem(userFrom(r.Context()), mux.Vars(r)["productId"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.CartResponse{Message: "Item removed from cart", Cart: cart})
}

// ClearCartHandler handles DELETE /api/cart
func (s *Server) ClearCartHandler(w http.ResponseWriter, r *http.Request) {
	s.Store.ClearCart(userFrom(r.Context()))
	respondJSON(w, http.StatusOK, models.CartResponse{Message: "Cart cleared", Cart: models.Cart{Items: []models.CartItem{}}})
}

// ListOrdersHandler handles GET /api/orders
func (s *Server) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.OrdersResponse{Orders: s.Store.Orders(userFrom(r.Context()))})
}

// HideOrderHandler handles DELETE /api/orders/{id}
func (s *Server) HideOrderHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.HideOrder(userFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.MessageResponse{Message: "Order removed from history"})
}

// ReorderHandler handles POST /api/orders/reorder/{id}
func (s *Server) ReorderHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := s.Store.Reorder(userFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// CreateReviewHandler handles POST /api/review
func (s *Server) CreateReviewHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReviewRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Store.CreateReview(userFrom(r.Context()), req); err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, models.MessageResponse{Message: "Review submitted"})
}

// WalletHandler handles GET /api/wallet
func (s *Server) WalletHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.WalletResponse{Wallet: s.Store.Wallet(userFrom(r.Context()))})
}

// CouponsHandler handles GET /api/wallet/coupons
func (s *Server) CouponsHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.CouponsResponse{Coupons: s.Store.Coupons(userFrom(r.Context()))})
}

// TransactionsHandler handles GET /api/wallet/transactions
func (s *Server) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.TransactionsResponse{Transactions: s.Store.Transactions(userFrom(r.Context()))})
}

// RedeemHandler handles POST /api/wallet/redeem
func (s *Server) RedeemHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RedeemRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	resp, err := s.Store.Redeem(userFrom(r.Context()), req.Type)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// ValidateCouponHandler handles POST /api/wallet/validate-coupon
func (s *Server) ValidateCouponHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateCouponRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	resp, err := s.Store.ValidateCoupon(userFrom(r.Context()), req.Code, req.OrderValue)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// CreateIntentHandler handles POST /api/payment/create-intent
func (s *Server) CreateIntentHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateIntentRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	intent, err := s.Store.CreateIntent(userFrom(r.Context()), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.CreateIntentResponse{ClientSecret: intent.ClientSecret, OrderID: intent.OrderID})
}

// ConfirmOrderHandler handles POST /api/payment/confirm-order
func (s *Server) ConfirmOrderHandler(w http.ResponseWriter, r *http.Request) {
	if s.Faults.failConfirm.Load() {
		respondError(w, http.StatusInternalServerError, "Order confirmation unavailable")
		return
	}
	var req models.ConfirmOrderRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	confirmed, err := s.Store.ConfirmOrder(userFrom(r.Context()), req.OrderID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	msg := "Order confirmed"
	if !confirmed {
		msg = "Order already confirmed"
	}
	respondJSON(w, http.StatusOK, models.MessageResponse{Message: msg})
}

// AddressesHandler handles GET /api/users/addresses
func (s *Server) AddressesHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.AddressesResponse{Addresses: s.Store.Addresses(userFrom(r.Context()))})
}
