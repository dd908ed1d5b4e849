package settings

import "errors"

// ErrNotFound is returned by Repository.Get when the key has no value.
var ErrNotFound = errors.New("settings: key not found")
