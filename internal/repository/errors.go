// Package repository holds the MySQL-backed stores.  Sentinel errors let
// handlers tell a missing row apart from a failed query.
package repository

import "errors" // sentinel error matching

// ErrNotFound is returned when no row matches the lookup.  Handlers
// translate it into 404, or into a failed login during authentication.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key
// (email or username already taken).
var ErrDuplicate = errors.New("already exists")
