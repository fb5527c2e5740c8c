package adapter

import (
	"context"
)

type GrantStatus string

const (
	GrantGranted     GrantStatus = "granted"     // controller authorized the device
	GrantRejected    GrantStatus = "rejected"    // controller explicitly refused; not retryable
	GrantUnavailable GrantStatus = "unavailable" // timeout/transport failure; caller may retry
)

// GrantResult captures a provider-agnostic outcome of an authorization call.
// SessionSeconds is the duration the controller actually applied (it may
// clamp our request to network policy).
type GrantResult struct {
	Status         GrantStatus
	Reason         string
	SessionSeconds int
}

// NetworkAccessController is the hex port for the access-point controller.
// Implementations are stateless adapters: they validate the client
// identifier locally, bound the external call with their own timeout, and
// classify a timeout as GrantUnavailable rather than GrantRejected. The
// returned error is non-nil only for local failures (e.g. a malformed
// hardware address, surfaced as domain.ErrInvalidClientID) where no external
// call was made.
type NetworkAccessController interface {
	Name() string

	// Grant authorizes clientMAC for durationSeconds. Implementations clamp
	// the duration to a minimum session length.
	Grant(ctx context.Context, clientMAC string, durationSeconds int) (GrantResult, error)

	// Revoke ends the device's session, best-effort. Used by logout.
	Revoke(ctx context.Context, clientMAC string) error
}
