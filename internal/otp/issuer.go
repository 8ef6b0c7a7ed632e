// Package otp issues and checks the six digit one-time codes used by every
// login and signup flow.
package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

const (
	// DefaultTTL is how long an issued code stays valid.
	DefaultTTL = 5 * time.Minute

	minCode = 100000
	span    = 900000 // codes are drawn from [minCode, minCode+span)
)

// Issuer generates codes and validates candidates against a stored pair.
// Now defaults to time.Now and may be replaced in tests.
type Issuer struct {
	TTL time.Duration
	Now func() time.Time
}

// NewIssuer returns an Issuer with the given TTL, falling back to DefaultTTL
// for non-positive values.
func NewIssuer(ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{TTL: ttl, Now: time.Now}
}

func (i *Issuer) now() time.Time {
	if i.Now == nil {
		return time.Now().UTC()
	}
	return i.Now().UTC()
}

// Issue returns a uniformly random code in 100000..999999 and its expiry.
func (i *Issuer) Issue() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("otp: read random: %w", err)
	}
	code := fmt.Sprintf("%d", minCode+n.Int64())
	return code, i.now().Add(i.TTL), nil
}

// Validate reports whether candidate matches the stored code and the code has
// not expired.  A missing code and an expired one are both plain failures.
func (i *Issuer) Validate(candidate string, stored *string, expiry *time.Time) bool {
	if stored == nil || expiry == nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(*stored)) != 1 {
		return false
	}
	return i.now().Before(*expiry)
}
