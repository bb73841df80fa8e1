package domain

import (
	"context"
	"errors"
)

var (
	// ErrTransport is returned when an RPC or HTTP dependency is unreachable or times out.
	// It is always retryable.
	ErrTransport = errors.New("transport error")

	// ErrFetchIncomplete is returned when a block range could not be fetched completely
	ErrFetchIncomplete = errors.New("fetch incomplete")

	// ErrContractCall is returned when the node executed a view call and the contract reverted
	// or does not exist
	ErrContractCall = errors.New("contract call failed")

	// ErrMalformedEvent is returned when an event payload does not match its declared layout
	ErrMalformedEvent = errors.New("malformed event")

	// ErrTokenAlreadyExists is returned when attempting to mint a token that already exists
	ErrTokenAlreadyExists = errors.New("token already exists")

	// ErrTokenNotFound is returned when a token is not found
	ErrTokenNotFound = errors.New("token not found")

	// ErrUnstorableValue is returned when a backend refuses to encode a value, such as a NUL
	// character in a Postgres string or a number outside the BSON numeric range
	ErrUnstorableValue = errors.New("value cannot be stored")

	// ErrTransactionConflict is returned when the store aborted a transaction because of a
	// concurrent write. The whole event can be replayed.
	ErrTransactionConflict = errors.New("transaction conflict")

	// ErrMissingConfig is returned when a required configuration value is absent
	ErrMissingConfig = errors.New("missing required configuration")
)

// IsRetryable reports whether an event that failed with err should be replayed from scratch.
// Data-quality errors are not retryable: the event is logged and skipped. Everything else
// (transport failures, store conflicts, lost connections) is.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return !IsDataIntegrityError(err)
}

// IsDataIntegrityError reports whether err describes an event that cannot be applied to the
// current state (malformed payload, transfer before mint, double mint) or whose data the
// store cannot encode
func IsDataIntegrityError(err error) bool {
	return errors.Is(err, ErrMalformedEvent) ||
		errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrTokenAlreadyExists) ||
		errors.Is(err, ErrUnstorableValue)
}
