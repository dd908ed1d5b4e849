package format

import "errors"

// Sentinel errors for format conversion.
var (
	// ErrUnknownFormat is returned when a format name is not recognised.
	ErrUnknownFormat = errors.New("format: unknown display format")

	// ErrInvalidInput is returned when edit text cannot be encoded.
	ErrInvalidInput = errors.New("format: invalid input")
)
