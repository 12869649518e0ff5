// Package store provides the fragment store: the registry of open
// envelopes keyed by GUID.
//
// Two backends exist. Memory is the default and holds envelopes in a
// keyed map with an eviction sweep. Redis shares envelopes across
// processes and leans on server-side TTL for aging.
//
// The original feed sample kept envelopes in an unbounded list scanned
// linearly and never expired them; both backends here are bounded and
// keyed.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/newswire-io/restitch/types"
)

// Sentinel errors for store operations.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrNotFound indicates no envelope exists for the GUID.
	ErrNotFound = errors.New("envelope not found")

	// ErrDuplicateID indicates an envelope already exists for the GUID.
	// Insert callers are expected to have checked first; hitting this is
	// a programming invariant violation, not a recoverable runtime path.
	ErrDuplicateID = errors.New("duplicate envelope id")
)

// Default bounds for open envelopes.
const (
	// DefaultMaxAge is how long an envelope may sit without a merge
	// before the sweep removes it.
	DefaultMaxAge = 5 * time.Minute
	// DefaultMaxEntries caps concurrently open envelopes.
	DefaultMaxEntries = 4096
)

// Limits bounds the store. A dropped fragment stream must not pin an
// envelope forever.
type Limits struct {
	// MaxAge is the maximum idle age before eviction (default 5m).
	MaxAge time.Duration
	// MaxEntries is the maximum number of open envelopes (default 4096).
	// Inserting past the cap evicts the stalest envelope first.
	MaxEntries int
}

// withDefaults fills unset limits.
func (l Limits) withDefaults() Limits {
	if l.MaxAge <= 0 {
		l.MaxAge = DefaultMaxAge
	}
	if l.MaxEntries <= 0 {
		l.MaxEntries = DefaultMaxEntries
	}
	return l
}

// Store is the registry of open envelopes keyed by GUID.
//
// Find returns a copy that the caller may mutate freely; stored state
// changes only through Insert, Update, and Remove. This keeps rejected
// fragments from leaving partial mutations behind.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Find returns a copy of the envelope for the GUID.
	// Returns ErrNotFound if absent.
	Find(ctx context.Context, guid string) (*types.Envelope, error)

	// Insert stores a new envelope.
	// Returns ErrDuplicateID if one already exists for the GUID.
	Insert(ctx context.Context, env *types.Envelope) error

	// Update replaces the stored envelope for env.GUID.
	// Returns ErrNotFound if absent.
	Update(ctx context.Context, env *types.Envelope) error

	// Remove deletes the envelope for the GUID.
	// Returns ErrNotFound if absent; removal is not idempotent so that
	// double-removal surfaces as a bug rather than passing silently.
	Remove(ctx context.Context, guid string) error

	// Len returns the number of open envelopes.
	Len(ctx context.Context) (int, error)

	// Sweep evicts envelopes idle past MaxAge and returns the count
	// removed. Backends that age entries server-side may return 0.
	Sweep(ctx context.Context, now time.Time) (int, error)

	// Close releases store resources.
	Close() error
}
