package cart

import (
	"errors"
)

var (
	// ErrInvalidInput marks a malformed product, quantity or session token
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoActiveCart is returned when an operation needs a bound cart record
	// and the session has none
	ErrNoActiveCart = errors.New("no active cart found")
)

// LoadError wraps a store failure while loading the session's cart. The
// caller may fall back to RecoverFromLocalCache.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return "failed to load cart: " + e.Err.Error() }

func (e *LoadError) Unwrap() error { return e.Err }

// MutationError wraps a store failure while changing the cart
type MutationError struct {
	Op  string
	Err error
}

func (e *MutationError) Error() string { return "failed to " + e.Op + ": " + e.Err.Error() }

func (e *MutationError) Unwrap() error { return e.Err }

// CheckoutError wraps a store failure while submitting the order
type CheckoutError struct {
	Err error
}

func (e *CheckoutError) Error() string { return "failed to checkout: " + e.Err.Error() }

func (e *CheckoutError) Unwrap() error { return e.Err }
