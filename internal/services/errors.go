package services

import "errors"

// Sentinel errors the handlers translate into HTTP statuses. Anything else
// coming out of a service is an internal fault: logged, reported generically.
var (
	ErrForbidden       = errors.New("forbidden")
	ErrRequestNotFound = errors.New("request not found")
	ErrInvalidInput    = errors.New("invalid input")
)
