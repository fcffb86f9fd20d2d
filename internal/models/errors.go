package models

import "errors"

// Sentinel errors shared across the service. Handlers map these to HTTP
// statuses at the boundary; everything else is treated as a persistence or
// internal failure.
var (
	// ErrInvalidLineItem marks bad cart input (empty basket, negative price,
	// non-positive quantity, sub-kuruş precision).
	ErrInvalidLineItem = errors.New("invalid line item")

	// ErrNotFound covers unknown orders and ownership mismatches alike, so a
	// caller cannot probe for the existence of other users' orders.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration means merchant credentials are missing or incomplete.
	// Secrets are never defaulted.
	ErrConfiguration = errors.New("merchant configuration incomplete")

	// ErrSignatureMismatch marks a webhook whose keyed hash does not verify.
	// No state is mutated for such a request.
	ErrSignatureMismatch = errors.New("signature mismatch")
)
