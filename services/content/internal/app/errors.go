package app

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestNotFound indicates the content request does not exist.
	ErrRequestNotFound = errors.New("request not found")
	// ErrProfileNotFound indicates the referenced brand profile does not exist.
	ErrProfileNotFound = errors.New("brand profile not found")
	// ErrWorkflowNotFound indicates no approval workflow is configured for the org.
	ErrWorkflowNotFound = errors.New("approval workflow not found")
)

// ValidationError marks a rejected input; callers map it to 400.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}
