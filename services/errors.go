package services

import (
	"errors"
	"fmt"
)

// Settlement error taxonomy. Controllers map these onto HTTP statuses and
// the bulk coordinator uses them to classify per-item outcomes.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrRequestNotFound = errors.New("request not found")
	ErrBoosterNotFound = errors.New("booster not found")
	ErrAlreadySettled  = errors.New("request is already processed")
	ErrSettingsMissing = errors.New("platform settings document not found")

	// ErrAborted is returned when the transactional store keeps hitting
	// write conflicts and the retry budget is exhausted.
	ErrAborted = errors.New("transaction aborted after retries")

	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrClassifierAmbiguous   = errors.New("classifier response ambiguous")
)

// InsufficientBalanceError is returned when a debit-path settlement cannot
// be covered by the user's balance. It carries the shortfall for the caller.
type InsufficientBalanceError struct {
	Required  float64
	Available float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %.2f, available %.2f", e.Required, e.Available)
}

// Shortfall returns how much the user is missing
func (e *InsufficientBalanceError) Shortfall() float64 {
	return e.Required - e.Available
}

// IsInsufficientBalance reports whether err is an InsufficientBalanceError
func IsInsufficientBalance(err error) bool {
	var target *InsufficientBalanceError
	return errors.As(err, &target)
}
