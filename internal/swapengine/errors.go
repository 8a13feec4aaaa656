package swapengine

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongNetwork is returned by a backend asked to serve a network it
	// does not support.
	ErrWrongNetwork = errors.New("backend not available on this network")
	// ErrBackendMismatch means a quote was handed to a backend that did not
	// produce it.
	ErrBackendMismatch = errors.New("quote belongs to a different backend")
	ErrSwapsPaused     = errors.New("swap execution is paused")
)

// ValidationError rejects a request before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientBalanceError reports available vs requested amounts in the
// input token's human units.
type InsufficientBalanceError struct {
	Available float64
	Requested string
	Symbol    string
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("Insufficient balance. You have %.2f %s but trying to trade %s %s (plus fees)",
		e.Available, e.Symbol, e.Requested, e.Symbol)
}

// QuoteUnavailableError wraps any failure to obtain a quote.
type QuoteUnavailableError struct {
	Backend string
	Err     error
}

func (e *QuoteUnavailableError) Error() string {
	return fmt.Sprintf("no quote available from %s: %v", e.Backend, e.Err)
}

func (e *QuoteUnavailableError) Unwrap() error { return e.Err }

// SubmissionError means the RPC node rejected the transaction.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string { return "Transaction submission failed: " + e.Err.Error() }

func (e *SubmissionError) Unwrap() error { return e.Err }

// ExecutionError means the transaction landed but carries an error flag.
// Fees were spent.
type ExecutionError struct {
	Signature string
	Detail    string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("Transaction failed: %s (signature %s)", e.Detail, e.Signature)
}

// failureMessage maps an execute failure to the text shown to the user.
func failureMessage(err error) string {
	var (
		insufficient *InsufficientBalanceError
		execErr      *ExecutionError
		submitErr    *SubmissionError
		validation   *ValidationError
	)
	switch {
	case errors.As(err, &insufficient), errors.As(err, &execErr),
		errors.As(err, &submitErr), errors.As(err, &validation):
		return err.Error()
	default:
		return "Swap failed: " + err.Error()
	}
}
