package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIntegrity indicates a write was rejected because it would
	// orphan a child row (e.g. a response referencing a missing memory).
	ErrIntegrity = errors.New("integrity violation")

	// ErrInvalidArchive indicates an export archive is missing a
	// required member.
	ErrInvalidArchive = errors.New("invalid export archive")
)

// ValidationError reports a field that failed validation before any
// write was attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
