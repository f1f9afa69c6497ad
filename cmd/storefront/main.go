// Command storefront is a terminal client for the storefront backend.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/checkout"
	"github.com/SigNoz/storefront-go-client/internal/query"
	"github.com/SigNoz/storefront-go-client/internal/services"
	"github.com/SigNoz/storefront-go-client/pkg/config"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

const usage = `usage: storefront [flags] <command> [args]

commands:
  health                                  check the backend
  products                                list the catalogue
  recommendations                         personalized picks
  cart                                    show the cart and its price
  add <productId> [qty]                   add to the cart
  qty <productId> <n>                     set a cart quantity
  remove <productId>                      remove from the cart
  wallet                                  coins, coupons and transactions
  redeem <bronze|silver|gold>             exchange coins for a coupon
  orders                                  order history
  reorder <orderId>                       add a past order to the cart
  rate <orderId> <productId=rating>...    rate delivered products
  hide <orderId>                          hide an order from the history
  checkout [--coupon CODE] [--address ID] [--yes]

flags:
`

type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	shop    *services.Storefront
	pricing checkout.Pricing
	in      *bufio.Reader
	out     io.Writer
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.LoadConfig()

	flags := flag.NewFlagSet("storefront", flag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "backend base URL")
	flags.StringVar(&cfg.APIToken, "token", cfg.APIToken, "bearer token of the signed-in shopper")
	flags.DurationVar(&cfg.APITimeout, "timeout", cfg.APITimeout, "per-request timeout")
	flags.BoolVar(&cfg.HealthGate, "health-gate", cfg.HealthGate, "wait for /health before the first request")
	verbose := flags.BoolP("verbose", "v", false, "log backend traffic")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger := zap.NewNop()
	if *verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			panic(err)
		}
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := apiclient.New(apiclient.Options{
		BaseURL:    cfg.APIBaseURL(),
		Timeout:    cfg.APITimeout,
		Tokens:     apiclient.StaticToken(cfg.APIToken),
		Logger:     logger,
		LogTraffic: *verbose && !cfg.IsProduction(),
		HealthGate: cfg.HealthGate,
	})
	defer api.Close()
	queries := query.NewClient(query.Options{
		Logger: logger,
		Retry:  &query.RetryPolicy{Delays: cfg.RetryDelays},
	})
	shop := services.NewStorefront(api, queries, nil)
	defer shop.Close()

	a := &app{
		cfg:     cfg,
		logger:  logger,
		shop:    shop,
		pricing: checkout.NewPricing(cfg.ShippingFee, cfg.TaxRate),
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
	if err := a.dispatch(ctx, flags.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", apiclient.UserMessage(err, err.Error()))
		return 1
	}
	return 0
}
