package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrInvalidID = errors.New("invalid appointment ID format")

	// ErrStatusChanged means a conditional write lost to a concurrent status change.
	ErrStatusChanged = errors.New("appointment status changed concurrently")
)
