// Package repository implements data access over MySQL. Sentinel
// errors defined here let handlers distinguish failure scenarios
// without inspecting driver errors: ErrNotFound maps to HTTP 404,
// ErrEmailExists to 409, ErrForbidden to 403.
package repository

import "errors"

// ErrNotFound is returned when a referenced user, listing or booking
// does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering with an email address
// that is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")
