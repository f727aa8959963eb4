package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency.
	// Absence of a token record is a normal connected/disconnected signal,
	// so callers are expected to check for this error with errors.Is.
	ErrRecordNotFound = errors.New("record not found")

	// ErrStore indicates a backend failure on a durable write or read.
	ErrStore = errors.New("store operation failed")
)
