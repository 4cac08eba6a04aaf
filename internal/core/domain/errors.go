package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the core wraps exactly one of these so the
// transport layer can map it with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrUnauthorized   = errors.New("authentication error")
	ErrPermission     = errors.New("permission denied")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrBilling        = errors.New("billing error")
	ErrPlanResolution = errors.New("plan resolution error")
)

var (
	ErrUserNotFound         = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrUserExists           = fmt.Errorf("%w: user with this email already exists", ErrConflict)
	ErrInvalidCredentials   = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrSubscriptionNotFound = fmt.Errorf("%w: no active subscription found", ErrNotFound)
	ErrSubscriptionRequired = fmt.Errorf("%w: active subscription required to save loads, please upgrade your plan", ErrPermission)
	ErrAdminRequired        = fmt.Errorf("%w: admin privileges required", ErrPermission)
	ErrPaymentNotConfirmed  = fmt.Errorf("%w: payment not confirmed yet", ErrBilling)
	ErrInvalidSignature     = fmt.Errorf("%w: webhook signature verification failed", ErrValidation)
	ErrUnknownPlan          = fmt.Errorf("%w: unknown plan identifier", ErrPlanResolution)
)

// NewValidationError builds a validation error carrying a client-facing message.
func NewValidationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// NewBillingError wraps a processor failure for the given step.
func NewBillingError(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrBilling, step, err)
}
