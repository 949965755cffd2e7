// Package apperr holds sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoDocument   = errors.New("view has no document")
	ErrStaleMark    = errors.New("mark no longer matches document")
	ErrBusy         = errors.New("another click is being dispatched")
	ErrUnauthorized = errors.New("unauthorized")
)
