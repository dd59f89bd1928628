package store

import "errors"

// ErrNotFound is returned when no position exists for a symbol.
var ErrNotFound = errors.New("position not found")

// ErrUnavailable is returned when the backing store cannot be reached or a
// store operation timed out.
var ErrUnavailable = errors.New("store unavailable")
