package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/SigNoz/storefront-go-client/internal/checkout"
)

// terminalSheet stands in for the provider's hosted payment UI
type terminalSheet struct {
	in          *bufio.Reader
	out         io.Writer
	autoApprove bool

	cfg checkout.SheetConfig
}

func (s *terminalSheet) Init(_ context.Context, cfg checkout.SheetConfig) error {
	if !strings.Contains(cfg.ClientSecret, "_secret_") {
		return &checkout.PaymentError{Code: checkout.PaymentCodeFailed, Message: "Invalid client secret"}
	}
	s.cfg = cfg
	return nil
}

func (s *terminalSheet) Present(context.Context) error {
	if s.cfg.ClientSecret == "" {
		return &checkout.PaymentError{Code: checkout.PaymentCodeFailed, Message: "Payment sheet is not initialized"}
	}
	fmt.Fprintf(s.out, "\n%s payment (%s)\n", s.cfg.MerchantName, maskSecret(s.cfg.ClientSecret))
	if s.autoApprove {
		return nil
	}

	fmt.Fprint(s.out, "Pay now? [y/N] ")
	line, _ := s.in.ReadString('\n')
	if answer := strings.ToLower(strings.TrimSpace(line)); answer == "y" || answer == "yes" {
		return nil
	}
	return &checkout.PaymentError{Code: checkout.PaymentCodeCanceled, Message: "The payment flow has been canceled"}
}

// maskSecret keeps only the intent prefix of a client secret
func maskSecret(secret string) string {
	intent, _, ok := strings.Cut(secret, "_secret_")
	if !ok {
		return "****"
	}
	return intent + "_secret_****"
}

var _ checkout.PaymentSheet = (*terminalSheet)(nil)
