// Package idgen allocates opaque record identifiers.  Identifiers are ULIDs
// drawn from a single monotonic entropy source, so two ids allocated in the
// same millisecond still differ and sort in allocation order.
package idgen

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out unique identifiers.
type Generator interface {
	NewID() string
}

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// ULID is a Generator that prefixes every id with a fixed kind marker,
// e.g. "U" for users or "Q" for queries.
type ULID struct {
	Prefix string
}

// New returns a generator for the given prefix.
func New(prefix string) ULID { return ULID{Prefix: prefix} }

// NewID returns Prefix followed by a fresh ULID.
func (g ULID) NewID() string {
	entropyLock.Lock()
	defer entropyLock.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	return g.Prefix + id.String()
}

// Time extracts the allocation time from an id produced by g.
func (g ULID) Time(id string) (time.Time, error) {
	if len(id) < len(g.Prefix) {
		return time.Time{}, ulid.ErrDataSize
	}
	parsed, err := ulid.Parse(id[len(g.Prefix):])
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
