package adapter

import (
	"context"
)

// PushResult is the provider's answer to an STK push request.
type PushResult struct {
	ProviderID  string // provider correlation id (Daraja CheckoutRequestID)
	MerchantID  string // provider merchant request id
	Description string // human-readable provider message
}

// MobileMoneyGateway is the hex port for mobile-money providers. The
// provider confirms asynchronously through an HTTP callback; Push only
// initiates the collection prompt on the payer's handset.
type MobileMoneyGateway interface {
	Name() string

	// Push asks the provider to prompt phone for amountCents, tagged with
	// our reference so the async callback can be correlated.
	Push(ctx context.Context, phone string, amountCents int64, reference, description string) (PushResult, error)
}
