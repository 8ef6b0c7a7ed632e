// Package service holds the application workflows: OTP authentication for
// each account role and the query lifecycle.  Handlers call into it and map
// the sentinel errors below onto HTTP responses.
package service

import "errors"

var (
	ErrDuplicateAccount = errors.New("an account with this email already exists")
	ErrNotFound         = errors.New("account not found")
	ErrNotActive        = errors.New("account is not verified")
	ErrInvalidOTP       = errors.New("invalid or expired otp")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrQueryNotFound    = errors.New("query not found")
	// ErrOwnerNotFound is returned by Resolve after the resolution has been
	// stored, when the query's owner no longer exists.
	ErrOwnerNotFound = errors.New("query owner not found")
)
