package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/query"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const MaxRating = 5

var (
	ErrNoRatings         = errors.New("please rate at least one product")
	ErrInvalidRating     = errors.New("rating must be between 0 and 5")
	ErrProductNotInOrder = errors.New("product is not part of the order")
)

// ReviewCreator posts one product rating
type ReviewCreator interface {
	Create(ctx context.Context, productID, orderID string, rating int) error
}

// Invalidator is told which mutation succeeded
type Invalidator interface {
	MutationSucceeded(m query.Mutation)
}

// RatingOutcome is the result for one rated product
type RatingOutcome struct {
	ProductID string
	Name      string
	Rating    int
	Err       error
}

// RatingReport lists the outcome of every submitted rating
type RatingReport struct {
	OrderID  string
	Total    int // products in the order
	Outcomes []RatingOutcome
}

// Succeeded counts the ratings the backend accepted
func (r RatingReport) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the rejected ratings
func (r RatingReport) Failed() []RatingOutcome {
	var failed []RatingOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// AllSucceeded reports whether every submitted rating was accepted
func (r RatingReport) AllSucceeded() bool {
	return len(r.Outcomes) > 0 && len(r.Failed()) == 0
}

// Message is the thank-you text for the accepted ratings
func (r RatingReport) Message() string {
	n := r.Succeeded()
	var msg string
	if n == r.Total {
		msg = "Thank you for rating all products! Your invoice has been sent to your email."
	} else {
		msg = fmt.Sprintf("Thank you! You rated %d of %d products. Your invoice has been sent to your email.", n, r.Total)
	}
	if failed := r.Failed(); len(failed) > 0 {
		msg += fmt.Sprintf("\n\n%d rating(s) could not be saved: %s", len(failed), apiclient.UserMessage(failed[0].Err, "Failed to submit rating"))
	}
	return msg
}

// RatingError is returned when no rating of a batch was accepted
type RatingError struct {
	Report RatingReport
	Err    error
}

func (e *RatingError) Error() string {
	return "failed to submit ratings: " + e.Err.Error()
}

func (e *RatingError) Unwrap() error {
	return e.Err
}

// InitialRatings seeds the rating form from the ratings already on the order
func InitialRatings(order models.Order) map[string]int {
	ratings := make(map[string]int, len(order.OrderItems))
	for _, item := range order.OrderItems {
		ratings[item.Product.ID] = order.ProductRatings[item.Product.ID]
	}
	return ratings
}

// RatingSubmitter posts the ratings of one order together
type RatingSubmitter struct {
	reviews     ReviewCreator
	invalidator Invalidator
	logger      *zap.Logger
}

// NewRatingSubmitter creates a RatingSubmitter
func NewRatingSubmitter(reviews ReviewCreator, invalidator Invalidator, logger *zap.Logger) *RatingSubmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatingSubmitter{
		reviews:     reviews,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Submit posts one review per product rated above zero. All reviews are
// attempted even when some fail; the report lists each outcome. The returned
// error is non-nil only when the input is invalid or every review failed.
func (s *RatingSubmitter) Submit(ctx context.Context, order models.Order, ratings map[string]int) (RatingReport, error) {
	report := RatingReport{OrderID: order.ID, Total: len(order.OrderItems)}

	names := make(map[string]string, len(order.OrderItems))
	for _, item := range order.OrderItems {
		names[item.Product.ID] = item.Name
	}
	for productID, rating := range ratings {
		if rating < 0 || rating > MaxRating {
			return report, fmt.Errorf("%w: %s rated %d", ErrInvalidRating, productID, rating)
		}
		if _, ok := names[productID]; !ok {
			return report, fmt.Errorf("%w: %s", ErrProductNotInOrder, productID)
		}
	}

	// order item order keeps the report stable
	for _, item := range order.OrderItems {
		if r := ratings[item.Product.ID]; r > 0 {
			report.Outcomes = append(report.Outcomes, RatingOutcome{ProductID: item.Product.ID, Name: item.Name, Rating: r})
		}
	}
	if len(report.Outcomes) == 0 {
		return report, ErrNoRatings
	}

	// every review goes out at once; failures land on the outcome so one
	// rejection never cancels or hides the others
	var g errgroup.Group
	for i := range report.Outcomes {
		o := &report.Outcomes[i]
		g.Go(func() error {
			o.Err = s.reviews.Create(ctx, o.ProductID, order.ID, o.Rating)
			return nil
		})
	}
	_ = g.Wait()

	failed := report.Failed()
	for _, o := range failed {
		s.logger.Warn("failed to submit rating",
			zap.String("order_id", order.ID),
			zap.String("product_id", o.ProductID),
			zap.Error(o.Err),
		)
	}

	if len(failed) == len(report.Outcomes) {
		errs := make([]error, 0, len(failed))
		for _, o := range failed {
			errs = append(errs, o.Err)
		}
		return report, &RatingError{Report: report, Err: errors.Join(errs...)}
	}

	if s.invalidator != nil {
		s.invalidator.MutationSucceeded(query.MutationSubmitReviews)
	}
	s.logger.Info("ratings submitted",
		zap.String("order_id", order.ID),
		zap.Int("accepted", report.Succeeded()),
		zap.Int("failed", len(failed)),
	)
	return report, nil
}
