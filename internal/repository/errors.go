// Package repository defines the storage interfaces for users and recipes
// and their SQL and JSON-file implementations.  The sentinel errors below
// are shared by every implementation so handlers can map them to HTTP
// statuses without knowing which backend is in use.
package repository

import "errors"

// ErrNotFound is returned when a record does not exist or is not owned by
// the caller.  Callers cannot tell the two cases apart.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned when a user with the same username exists.
var ErrUsernameTaken = errors.New("username already exists")

// ErrUnknownOwner is returned when a recipe is created for a user id that
// has no user record.
var ErrUnknownOwner = errors.New("owner does not exist")

// ErrConflict is returned when an update kept losing the compare-and-swap
// race against concurrent writers.  Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")
