package errors

import "errors"

var (
	ErrProviderNotFound = errors.New("provider not found")

	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
)
