package types

import "time"

// Envelope is the accumulating record for one story that has not yet
// completed. At most one envelope exists per GUID at any time; it is
// removed the instant the accumulated length reaches the declared total.
//
// Msgpack tags cover the Redis store backend, which serializes whole
// envelopes as values.
type Envelope struct {
	// GUID is the story identifier all fragments share.
	GUID string `msgpack:"guid"`
	// Source is the feed partition the first fragment arrived on.
	// Continuation fragments from any other source are rejected.
	Source string `msgpack:"source"`
	// Accumulated holds all decoded fragment bytes in arrival order.
	// Its length never exceeds TotSize.
	Accumulated []byte `msgpack:"accumulated"`
	// LastFragNum is the sequence number of the most recently merged
	// fragment. It increases by exactly 1 per successful merge.
	LastFragNum int64 `msgpack:"last_frag_num"`
	// TotSize is the compressed total declared by the first fragment.
	// Fixed once known, never revised.
	TotSize int64 `msgpack:"tot_size"`
	// OpenedAt is when the first fragment arrived.
	OpenedAt time.Time `msgpack:"opened_at"`
	// UpdatedAt is when the last fragment merged. Eviction age is
	// measured from this point.
	UpdatedAt time.Time `msgpack:"updated_at"`
}

// Remaining returns the number of bytes still expected.
func (e *Envelope) Remaining() int64 {
	return e.TotSize - int64(len(e.Accumulated))
}

// Clone returns a deep copy. Stores hand out clones so that callers can
// stage mutations without touching the stored envelope.
func (e *Envelope) Clone() *Envelope {
	c := *e
	c.Accumulated = make([]byte, len(e.Accumulated))
	copy(c.Accumulated, e.Accumulated)
	return &c
}
