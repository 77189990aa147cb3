package domain

import "errors"

// Sentinel errors for the store's operation preconditions. All are recoverable
// at the call site: the failed operation leaves state exactly as it was.
var (
	// ErrNotAuthenticated is returned by mutating operations when no user is
	// logged in for the session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUnknownLocation is returned when a report references a location id
	// that does not exist.
	ErrUnknownLocation = errors.New("unknown location")

	// ErrInvalidNoiseLevel is returned for noise levels outside [1,10].
	ErrInvalidNoiseLevel = errors.New("noise level must be between 1 and 10")

	// ErrInvalidCoordinates is returned for latitudes outside [-90,90] or
	// longitudes outside [-180,180].
	ErrInvalidCoordinates = errors.New("coordinates out of range")

	// ErrInvalidInput is returned for empty required text or an unknown
	// location type.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackendUnavailable is the downgraded form of any unexpected
	// persistence failure. Raw repository errors never cross the store
	// boundary; they are wrapped in this sentinel so callers can relay a
	// uniform "try again" message.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// IsValidationError reports whether err is one of the precondition sentinels,
// as opposed to a backend failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrUnknownLocation) ||
		errors.Is(err, ErrInvalidNoiseLevel) ||
		errors.Is(err, ErrInvalidCoordinates) ||
		errors.Is(err, ErrInvalidInput)
}
