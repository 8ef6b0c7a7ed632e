// Package repository defines the record stores for accounts and queries and
// the sentinel errors they share.  Higher layers use errors.Is to tell a
// missing record from a uniqueness violation or a lost concurrent update.
package repository

import "errors"

// ErrNotFound is returned when no record matches the lookup key.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a write would give two accounts of the same
// role the same email.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned by optimistic updates when the stored version no
// longer matches the caller's copy.  Callers should reload and re-apply.
var ErrConflict = errors.New("conflict")
