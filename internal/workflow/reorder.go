// Package workflow runs the multi-step order history actions: reordering a
// past order and rating its products.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/SigNoz/storefront-go-client/internal/models"
	"go.uber.org/zap"
)

// Prompt is a message shown to the shopper
type Prompt struct {
	Title   string
	Message string
}

// OrderReorderer re-adds a past order to the cart
type OrderReorderer interface {
	Reorder(ctx context.Context, orderID string) (models.ReorderResponse, error)
}

// ReorderResult is what the backend could and could not re-add
type ReorderResult struct {
	OrderID     string
	Message     string
	Unavailable []models.UnavailableItem
}

// Partial reports whether some items could not be re-added
func (r ReorderResult) Partial() bool {
	return len(r.Unavailable) > 0
}

// Lines lists each unavailable item as "• name: reason"
func (r ReorderResult) Lines() []string {
	lines := make([]string, 0, len(r.Unavailable))
	for _, item := range r.Unavailable {
		lines = append(lines, "• "+item.Name+": "+item.Reason)
	}
	return lines
}

// Disclosure is the prompt shown before continuing with the available items
func (r ReorderResult) Disclosure() Prompt {
	return Prompt{
		Title: "Some Items Unavailable",
		Message: fmt.Sprintf("The following items couldn't be added:\n\n%s\n\nWould you like to proceed to checkout with available items?",
			strings.Join(r.Lines(), "\n")),
	}
}

// ReorderOutcome is the end of a reorder. Proceed is false only when the
// shopper declined after seeing the unavailable items.
type ReorderOutcome struct {
	Proceed bool
	Result  ReorderResult
	Notice  Prompt
}

// Decider is shown the disclosure and returns whether to proceed
type Decider func(ctx context.Context, disclosure Prompt) (bool, error)

// Reorderer re-adds past orders to the cart
type Reorderer struct {
	orders OrderReorderer
	logger *zap.Logger
}

// NewReorderer creates a Reorderer
func NewReorderer(orders OrderReorderer, logger *zap.Logger) *Reorderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reorderer{orders: orders, logger: logger}
}

// Reorder asks the backend to re-add orderID's items to the cart
func (r *Reorderer) Reorder(ctx context.Context, orderID string) (ReorderResult, error) {
	resp, err := r.orders.Reorder(ctx, orderID)
	if err != nil {
		return ReorderResult{}, err
	}
	result := ReorderResult{OrderID: orderID, Message: resp.Message, Unavailable: resp.UnavailableItems}
	r.logger.Info("order re-added to cart",
		zap.String("order_id", orderID),
		zap.Int("unavailable", len(result.Unavailable)),
	)
	return result, nil
}

// Run reorders and, when items are missing, lets decide see every one of
// them before the shopper moves on to the cart.
func (r *Reorderer) Run(ctx context.Context, orderID string, decide Decider) (ReorderOutcome, error) {
	result, err := r.Reorder(ctx, orderID)
	if err != nil {
		return ReorderOutcome{}, err
	}
	if !result.Partial() {
		return ReorderOutcome{
			Proceed: true,
			Result:  result,
			Notice:  Prompt{Title: "Success", Message: "Items added to cart!"},
		}, nil
	}

	disclosure := result.Disclosure()
	proceed, err := decide(ctx, disclosure)
	if err != nil {
		return ReorderOutcome{Result: result, Notice: disclosure}, err
	}
	return ReorderOutcome{Proceed: proceed, Result: result, Notice: disclosure}, nil
}
