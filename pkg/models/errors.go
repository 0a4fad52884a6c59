package models

import "errors"

// Repository sentinels. Storage backends wrap these with %w.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrConflict     = errors.New("concurrent modification")
	ErrItemNotFound = errors.New("cart item not found")
)

// ErrTooManyAttempts is returned by OTP stores once a phone has burned its
// verification attempts.
var ErrTooManyAttempts = errors.New("too many verification attempts")
