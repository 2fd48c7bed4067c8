package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicateRule    = errors.New("duplicate rule id")
	ErrEmptyStore       = errors.New("empty rule store")
	ErrUnsupportedDoc   = errors.New("unsupported document format")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrStoreUnavailable = errors.New("store unavailable")
)
