package fuel

import "errors"

var (
	// ErrInvalidInput is returned when no derivation is possible, e.g. a unit price <= 0.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingInput is returned when neither amount nor volume was supplied.
	ErrMissingInput = errors.New("missing input: amount or volume is required")
)
