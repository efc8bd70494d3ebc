package utils

import "errors"

// Common application errors used across services.
var (
	ErrEntryNotFound = errors.New("ENTRY_NOT_FOUND")
	ErrInvalidToken  = errors.New("INVALID_TOKEN")
)
