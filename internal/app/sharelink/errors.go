package sharelink

import "errors"

// Client errors. Their messages are safe to return to the caller.
var (
	ErrEmptyURL         = errors.New("longUrl is required")
	ErrInvalidURL       = errors.New("longUrl must be an absolute http or https URL")
	ErrDomainNotAllowed = errors.New("longUrl domain is not allowed")
)

// ErrNotFound is the only error Resolve returns.
var ErrNotFound = errors.New("not found")

// Server errors. Never shown to the caller verbatim.
var (
	ErrStoreUnavailable  = errors.New("share store unavailable")
	ErrWriteNotConfirmed = errors.New("share write not confirmed")
)

// IsClientError reports whether err was caused by the request itself.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyURL) ||
		errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrDomainNotAllowed)
}
