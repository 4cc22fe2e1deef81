package errors

import "errors"

var (
	ErrNotFound = errors.New("automation not found")

	ErrInvalidID = errors.New("invalid automation ID format")

	ErrUnknownTrigger = errors.New("unknown automation trigger")

	ErrTriggerNotApplicable = errors.New("automation trigger does not apply to the appointment status")
)
