package checkout

import (
	"context"
	"errors"
)

// Payment sheet error codes
const (
	PaymentCodeCanceled = "Canceled"
	PaymentCodeFailed   = "Failed"
)

// SheetConfig initializes the provider's hosted payment UI
type SheetConfig struct {
	ClientSecret string
	MerchantName string
}

// PaymentSheet is the payment provider's hosted UI. Present returns nil only
// when the provider reports a successful payment.
type PaymentSheet interface {
	Init(ctx context.Context, cfg SheetConfig) error
	Present(ctx context.Context) error
}

// PaymentError is an error reported by the payment provider
type PaymentError struct {
	Code    string
	Message string
}

func (e *PaymentError) Error() string {
	return e.Code + ": " + e.Message
}

// IsCanceled reports whether err is the user dismissing the payment sheet
func IsCanceled(err error) bool {
	var pe *PaymentError
	return errors.As(err, &pe) && pe.Code == PaymentCodeCanceled
}

// providerMessage returns the provider's own message for err
func providerMessage(err error) string {
	var pe *PaymentError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return err.Error()
}
