package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrAddressNotFound     = errors.New("address not found")
	ErrAmbiguousAddress    = errors.New("ambiguous address")
	ErrNoRouteFound        = errors.New("no route found")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrSourceUnavailable   = errors.New("restaurant source unavailable")
)

// ErrorKind is the machine-readable error class reported to API callers.
type ErrorKind string

const (
	KindInvalidRequest      ErrorKind = "InvalidRequest"
	KindAddressNotFound     ErrorKind = "AddressNotFound"
	KindAmbiguousAddress    ErrorKind = "AmbiguousAddress"
	KindNoRouteFound        ErrorKind = "NoRouteFound"
	KindProviderUnavailable ErrorKind = "ProviderUnavailable"
	KindInternal            ErrorKind = "Internal"
	// KindCanceled marks work abandoned because the caller went away.
	KindCanceled ErrorKind = "Canceled"
)

// KindOf classifies err. Cancellation wins over any wrapped provider error;
// context deadline errors count as provider failures.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrAddressNotFound):
		return KindAddressNotFound
	case errors.Is(err, ErrAmbiguousAddress):
		return KindAmbiguousAddress
	case errors.Is(err, ErrNoRouteFound):
		return KindNoRouteFound
	case errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, ErrSourceUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return KindProviderUnavailable
	}
	return KindInternal
}

// IsTimeout reports whether err was caused by an expired deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
