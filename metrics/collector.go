// Package metrics provides per-session metrics collection.
//
// The Collector accumulates counters during a single replay session. It
// is a leaf package with no internal dependencies; rejection reasons are
// string-typed to keep it free of the types package.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of session metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Capture stream
	RecordsRead    int64
	RecordsSkipped int64 // Refresh/Status/Error records without fragments
	FrameErrors    int64

	// Reassembly
	FragmentsReceived int64
	StoriesCompleted  int64
	StoriesRejected   int64
	RejectedByReason  map[string]int64
	EnvelopesOpened   int64
	EnvelopesEvicted  int64

	// Downstream
	PublishSuccess int64
	PublishFailure int64
	ArchiveSuccess int64
	ArchiveFailure int64

	// Dimensions (informational, set at construction)
	StoreBackend string
	SessionID    string
	RIC          string
}

// Collector accumulates metrics during a single replay session.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	recordsRead    int64
	recordsSkipped int64
	frameErrors    int64

	fragmentsReceived int64
	storiesCompleted  int64
	storiesRejected   int64
	rejectedByReason  map[string]int64
	envelopesOpened   int64
	envelopesEvicted  int64

	publishSuccess int64
	publishFailure int64
	archiveSuccess int64
	archiveFailure int64

	storeBackend string
	sessionID    string
	ric          string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(storeBackend, sessionID, ric string) *Collector {
	return &Collector{
		rejectedByReason: make(map[string]int64),
		storeBackend:     storeBackend,
		sessionID:        sessionID,
		ric:              ric,
	}
}

// --- Capture stream ---

// IncRecordRead records one frame read and decoded from the capture.
func (c *Collector) IncRecordRead() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.recordsRead++
	c.mu.Unlock()
}

// IncRecordSkipped records a non-Update record skipped without processing.
func (c *Collector) IncRecordSkipped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.recordsSkipped++
	c.mu.Unlock()
}

// IncFrameError records a frame read or decode error.
func (c *Collector) IncFrameError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.frameErrors++
	c.mu.Unlock()
}

// --- Reassembly ---

// IncFragmentReceived records one update record handed to the engine.
func (c *Collector) IncFragmentReceived() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fragmentsReceived++
	c.mu.Unlock()
}

// IncStoryCompleted records a completed, decoded story.
func (c *Collector) IncStoryCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storiesCompleted++
	c.mu.Unlock()
}

// IncRejected records a rejection with its reason.
func (c *Collector) IncRejected(reason string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storiesRejected++
	c.rejectedByReason[reason]++
	c.mu.Unlock()
}

// IncEnvelopeOpened records a new envelope inserted into the store.
func (c *Collector) IncEnvelopeOpened() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.envelopesOpened++
	c.mu.Unlock()
}

// AddEnvelopesEvicted records envelopes removed by an eviction sweep.
func (c *Collector) AddEnvelopesEvicted(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.envelopesEvicted += n
	c.mu.Unlock()
}

// --- Downstream ---

// IncPublishSuccess records a successful adapter publish.
func (c *Collector) IncPublishSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.publishSuccess++
	c.mu.Unlock()
}

// IncPublishFailure records a failed adapter publish.
func (c *Collector) IncPublishFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.publishFailure++
	c.mu.Unlock()
}

// IncArchiveSuccess records a successful archive write.
func (c *Collector) IncArchiveSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.archiveSuccess++
	c.mu.Unlock()
}

// IncArchiveFailure records a failed archive write.
func (c *Collector) IncArchiveFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.archiveFailure++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	rejected := make(map[string]int64, len(c.rejectedByReason))
	for k, v := range c.rejectedByReason {
		rejected[k] = v
	}

	return Snapshot{
		RecordsRead:    c.recordsRead,
		RecordsSkipped: c.recordsSkipped,
		FrameErrors:    c.frameErrors,

		FragmentsReceived: c.fragmentsReceived,
		StoriesCompleted:  c.storiesCompleted,
		StoriesRejected:   c.storiesRejected,
		RejectedByReason:  rejected,
		EnvelopesOpened:   c.envelopesOpened,
		EnvelopesEvicted:  c.envelopesEvicted,

		PublishSuccess: c.publishSuccess,
		PublishFailure: c.publishFailure,
		ArchiveSuccess: c.archiveSuccess,
		ArchiveFailure: c.archiveFailure,

		StoreBackend: c.storeBackend,
		SessionID:    c.sessionID,
		RIC:          c.ric,
	}
}
