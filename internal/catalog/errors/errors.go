package errors

import "errors"

var (
	ErrNotFound = errors.New("catalog item not found")

	ErrInvalidID = errors.New("invalid catalog item ID format")

	ErrDuplicateID = errors.New("catalog item already exists")
)
