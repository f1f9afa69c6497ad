package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/checkout"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/workflow"
	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"
)

var errUsage = errors.New("invalid arguments, run storefront --help")

func (a *app) dispatch(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "health":
		return a.health(ctx)
	case "products":
		return a.products(ctx)
	case "recommendations":
		return a.recommendations(ctx)
	case "cart":
		return a.cart(ctx)
	case "add":
		return a.add(ctx, rest)
	case "qty":
		return a.setQuantity(ctx, rest)
	case "remove":
		return a.remove(ctx, rest)
	case "wallet":
		return a.wallet(ctx)
	case "redeem":
		return a.redeem(ctx, rest)
	case "orders":
		return a.orders(ctx)
	case "reorder":
		return a.reorder(ctx, rest)
	case "rate":
		return a.rate(ctx, rest)
	case "hide":
		return a.hide(ctx, rest)
	case "checkout":
		return a.checkout(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func (a *app) health(ctx context.Context) error {
	if err := a.shop.Health.Check(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "backend is healthy")
	return nil
}

func (a *app) products(ctx context.Context) error {
	products, err := a.shop.Products.List(ctx)
	if err != nil {
		return err
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK\tRATING")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%.1f (%d)\n", p.ID, p.Name, p.Price, p.Stock, p.AverageRating, p.TotalReviews)
	}
	return w.Flush()
}

func (a *app) recommendations(ctx context.Context) error {
	recs, err := a.shop.Products.Recommendations(ctx)
	if err != nil {
		return err
	}
	w := a.table()
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", r.Product.ID, r.Product.Name, r.Product.Price, r.Reason)
	}
	return w.Flush()
}

func (a *app) printCart(items []models.CartItem, price checkout.Breakdown) error {
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty")
		return nil
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tNAME\tQTY\tPRICE")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\n", item.Product.ID, item.Product.Name, item.Quantity, item.Product.Price)
	}
	fmt.Fprintln(w, "\t\t\t")
	for _, l := range price.Lines() {
		fmt.Fprintf(w, "\t%s\t\t%s\n", l[0], l[1])
	}
	return w.Flush()
}

func (a *app) cart(ctx context.Context) error {
	items, err := a.shop.Cart.Items(ctx)
	if err != nil {
		return err
	}
	return a.printCart(items, a.pricing.Compute(items, decimal.Zero))
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", s, errUsage)
	}
	return n, nil
}

func (a *app) add(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	qty := 1
	if len(args) == 2 {
		n, err := parseQuantity(args[1])
		if err != nil {
			return err
		}
		qty = n
	}
	if _, err := a.shop.Cart.Add(ctx, args[0], qty); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Added to cart")
	return nil
}

func (a *app) setQuantity(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	n, err := parseQuantity(args[1])
	if err != nil {
		return err
	}
	if _, err := a.shop.Cart.UpdateQuantity(ctx, args[0], n); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Quantity updated")
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if _, err := a.shop.Cart.Remove(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Removed from cart")
	return nil
}

func (a *app) wallet(ctx context.Context) error {
	wallet, err := a.shop.Wallet.Wallet(ctx)
	if err != nil {
		return err
	}
	coupons, err := a.shop.Wallet.AvailableCoupons(ctx)
	if err != nil {
		return err
	}
	txs, err := a.shop.Wallet.Transactions(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Coins: %d (lifetime %d)\n\n", wallet.Coins, wallet.LifetimeCoins)
	w := a.table()
	fmt.Fprintln(w, "COUPON\tTYPE\tDISCOUNT\tEXPIRES")
	for _, c := range coupons {
		fmt.Fprintf(w, "%s\t%s\t%.0f%%\t%s\n", c.Code, c.Type, c.Discount, c.ExpiresAt.Format(time.DateOnly))
	}
	fmt.Fprintln(w, "\t\t\t")
	fmt.Fprintln(w, "DATE\tTYPE\tAMOUNT\tDESCRIPTION")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%+d\t%s\n", tx.CreatedAt.Format(time.DateOnly), tx.Type, tx.Amount, tx.Description)
	}
	return w.Flush()
}

func (a *app) redeem(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	resp, err := a.shop.Wallet.Redeem(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\nCode: %s\nValid until %s, single use\n", resp.Message, resp.Coupon.Code, resp.ExpiryInfo.ExpiryDate)
	return nil
}

func (a *app) orders(ctx context.Context) error {
	orders, err := a.shop.Orders.List(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(a.out, "No orders yet")
		return nil
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tDATE\tSTATUS\tITEMS\tTOTAL\tRATED")
	for _, o := range orders {
		rated := "no"
		if o.HasBeenRated() {
			rated = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%s\n", o.ID, o.CreatedAt.Format(time.DateOnly), o.Status, len(o.OrderItems), o.TotalPrice, rated)
	}
	return w.Flush()
}

func (a *app) reorder(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	r := workflow.NewReorderer(a.shop.Orders, a.logger)
	outcome, err := r.Run(ctx, args[0], func(ctx context.Context, p workflow.Prompt) (bool, error) {
		fmt.Fprintf(a.out, "%s\n\n%s\n", p.Title, p.Message)
		return a.confirm("Proceed? [y/N] ")
	})
	if err != nil {
		return err
	}
	if !outcome.Result.Partial() {
		fmt.Fprintln(a.out, outcome.Notice.Message)
	}
	if outcome.Proceed {
		return a.cart(ctx)
	}
	return nil
}

// parseRatings reads productId=rating pairs
func parseRatings(args []string) (map[string]int, error) {
	ratings := make(map[string]int, len(args))
	for _, arg := range args {
		id, value, ok := strings.Cut(arg, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("expected productId=rating, got %q: %w", arg, errUsage)
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid rating %q: %w", arg, errUsage)
		}
		ratings[id] = n
	}
	return ratings, nil
}

func (a *app) rate(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	order, err := a.shop.Orders.Get(ctx, args[0])
	if err != nil {
		return err
	}
	given, err := parseRatings(args[1:])
	if err != nil {
		return err
	}
	ratings := workflow.InitialRatings(*order)
	for id, r := range given {
		ratings[id] = r
	}
	// already saved ratings are not resubmitted
	for id, r := range order.ProductRatings {
		if ratings[id] == r {
			delete(ratings, id)
		}
	}

	report, err := workflow.NewRatingSubmitter(a.shop.Reviews, a.shop.Queries, a.logger).Submit(ctx, *order, ratings)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, report.Message())
	return nil
}

func (a *app) hide(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := a.shop.Orders.Hide(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Order hidden")
	return nil
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	code := fs.String("coupon", "", "coupon code to apply")
	addressID := fs.String("address", "", "saved address id, asks when empty")
	yes := fs.BoolP("yes", "y", false, "approve the payment without asking")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	items, err := a.shop.Cart.Items(ctx)
	if err != nil {
		return err
	}
	coupons := checkout.NewCouponSession(a.shop.Wallet)
	if *code != "" {
		applied, err := coupons.Apply(ctx, *code, a.pricing.Compute(items, coupons.Discount()).OrderValue())
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, checkout.SavingsMessage(applied))
	}
	if err := a.printCart(items, a.pricing.Compute(items, coupons.Discount())); err != nil {
		return err
	}

	flow := checkout.NewFlow(checkout.Deps{
		Cart:         a.shop.Cart,
		Addresses:    a.shop.Addresses,
		Intents:      a.shop.Payments,
		Sheet:        &terminalSheet{in: a.in, out: a.out, autoApprove: *yes},
		Coupons:      coupons,
		Invalidator:  a.shop.Queries,
		Pricing:      a.pricing,
		Logger:       a.logger,
		MerchantName: a.cfg.MerchantName,
	})
	snap, err := flow.Run(ctx, func(_ context.Context, addresses []models.Address) (string, error) {
		if *addressID != "" {
			return *addressID, nil
		}
		return a.chooseAddress(addresses)
	})
	if err != nil {
		return err
	}
	if snap.Notice.Title != "" {
		fmt.Fprintf(a.out, "\n%s\n%s\n", snap.Notice.Title, snap.Notice.Message)
	}
	if snap.State == checkout.OrderConfirmed {
		fmt.Fprintf(a.out, "Order %s, charged %s\n", snap.OrderID, snap.Breakdown.Total.StringFixed(2))
	}
	return nil
}

func (a *app) chooseAddress(addresses []models.Address) (string, error) {
	if len(addresses) == 1 {
		return addresses[0].ID, nil
	}
	for i, addr := range addresses {
		fmt.Fprintf(a.out, "%d) %s, %s, %s %s\n", i+1, addr.FullName, addr.StreetAddress, addr.City, addr.ZipCode)
	}
	line, err := a.prompt("Ship to: ")
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(addresses) {
		return "", fmt.Errorf("no address %q: %w", line, errUsage)
	}
	return addresses[n-1].ID, nil
}

func (a *app) prompt(question string) (string, error) {
	fmt.Fprint(a.out, question)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) confirm(question string) (bool, error) {
	answer, err := a.prompt(question)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
