package store

import (
	"context"
	"sync"
	"time"

	"github.com/newswire-io/restitch/types"
)

// Memory is the default in-process fragment store: a keyed map guarded
// by a mutex. All read-modify-write sequences on a GUID happen under the
// store lock, preserving the at-most-one-envelope-per-GUID invariant
// when replay partitions fan out across goroutines.
type Memory struct {
	mu        sync.Mutex
	limits    Limits
	envelopes map[string]*types.Envelope
}

// NewMemory creates a memory store with the given limits.
// Zero-valued limits fall back to the package defaults.
func NewMemory(limits Limits) *Memory {
	return &Memory{
		limits:    limits.withDefaults(),
		envelopes: make(map[string]*types.Envelope),
	}
}

// Find returns a copy of the envelope for the GUID.
func (m *Memory) Find(_ context.Context, guid string) (*types.Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	env, ok := m.envelopes[guid]
	if !ok {
		return nil, ErrNotFound
	}
	return env.Clone(), nil
}

// Insert stores a new envelope, evicting the stalest envelope first if
// the store is at capacity.
func (m *Memory) Insert(_ context.Context, env *types.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.envelopes[env.GUID]; ok {
		return ErrDuplicateID
	}

	if len(m.envelopes) >= m.limits.MaxEntries {
		m.evictStalestLocked()
	}

	m.envelopes[env.GUID] = env.Clone()
	return nil
}

// Update replaces the stored envelope for env.GUID.
func (m *Memory) Update(_ context.Context, env *types.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.envelopes[env.GUID]; !ok {
		return ErrNotFound
	}
	m.envelopes[env.GUID] = env.Clone()
	return nil
}

// Remove deletes the envelope for the GUID.
func (m *Memory) Remove(_ context.Context, guid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.envelopes[guid]; !ok {
		return ErrNotFound
	}
	delete(m.envelopes, guid)
	return nil
}

// Len returns the number of open envelopes.
func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.envelopes), nil
}

// Sweep evicts envelopes idle past MaxAge and returns the count removed.
func (m *Memory) Sweep(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := now.Add(-m.limits.MaxAge)
	evicted := 0
	for guid, env := range m.envelopes {
		if env.UpdatedAt.Before(cutoff) {
			delete(m.envelopes, guid)
			evicted++
		}
	}
	return evicted, nil
}

// Close releases store resources. The memory store holds none.
func (m *Memory) Close() error {
	return nil
}

// evictStalestLocked removes the envelope with the oldest UpdatedAt.
// Caller must hold m.mu.
func (m *Memory) evictStalestLocked() {
	var stalest string
	var stalestAt time.Time
	first := true
	for guid, env := range m.envelopes {
		if first || env.UpdatedAt.Before(stalestAt) {
			stalest = guid
			stalestAt = env.UpdatedAt
			first = false
		}
	}
	if !first {
		delete(m.envelopes, stalest)
	}
}

// Verify Memory implements the Store interface.
var _ Store = (*Memory)(nil)
