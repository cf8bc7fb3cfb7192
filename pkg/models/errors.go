package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrValidation        = errors.New("validation failed")
	ErrSync              = errors.New("realtime sync failed")
	ErrUnauthenticated   = errors.New("not signed in")
	ErrForbidden         = errors.New("not allowed for this user")
	ErrConcurrentUpdate  = errors.New("booking changed concurrently")
	ErrNothingToPayout   = errors.New("nothing to pay out")
	ErrPaymentFailed     = errors.New("payment failed")
)

type IllegalTransitionError struct {
	From   Status
	To     Status
	Role   Role
	Reason string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s as %s: %s", e.From, e.To, e.Role, e.Reason)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// SyncError wraps a change feed failure.
type SyncError struct {
	Err error
}

func (e *SyncError) Error() string {
	return "realtime sync: " + e.Err.Error()
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func (e *SyncError) Is(target error) bool {
	return target == ErrSync
}
