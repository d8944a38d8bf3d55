// Package store persists users inside tenant namespaces.
package store

import "errors"

// Duplicate errors also match sentinel.ErrAlreadyUsed.
var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)
