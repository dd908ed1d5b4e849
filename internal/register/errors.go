package register

import "errors"

// Sentinel errors for register parsing.
var (
	// ErrNoMatch is returned when input does not look like "<letters><number>".
	ErrNoMatch = errors.New("register: target does not match <key><address>")
)
