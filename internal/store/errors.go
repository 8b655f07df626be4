package store

import "errors"

// Sentinel errors surfaced by ownership- and existence-checked operations.
var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("operation not allowed for this user")
)
