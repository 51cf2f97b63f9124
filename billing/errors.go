package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidMonth is returned for a malformed "yyyy-MM" month key.
	ErrInvalidMonth = errors.New("invalid month key")

	// ErrInvalidDate is returned for a malformed "yyyy-MM-dd" date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrPaymentNotFound is returned when a referenced payment does not exist.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrClientNotFound is returned when a referenced client does not exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrManagerNotFound is returned when a referenced manager does not exist.
	ErrManagerNotFound = errors.New("campaign manager not found")

	// ErrInvalidTransition is returned when a payment state change is not
	// allowed from the record's current status (e.g. cancelling a completed
	// payment after the receipt is already attached).
	ErrInvalidTransition = errors.New("invalid payment status transition")

	// ErrSnapshotUnavailable wraps collection-fetch failures. Callers should
	// retry rather than render a partial calculation.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")
)

// TransitionError carries the offending statuses for an invalid transition.
type TransitionError struct {
	PaymentID string
	From      PaymentStatus
	To        PaymentStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("payment %s: cannot transition %s -> %s", e.PaymentID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// IsRetryable reports whether the caller may retry the operation as-is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSnapshotUnavailable)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrManagerNotFound)
}

// IsClientError reports whether the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidTransition)
}
