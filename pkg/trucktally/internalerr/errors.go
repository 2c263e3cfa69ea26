package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrMissingColumn        = errors.New("required column missing")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrReferenceUnavailable = errors.New("nutrition reference unavailable")
	ErrStoreUnavailable     = errors.New("store unavailable")
)
