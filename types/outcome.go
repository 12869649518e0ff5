package types

// OutcomeStatus is the result class for processing one update record.
type OutcomeStatus string

// Outcome status constants.
const (
	// StatusPending means the fragment merged but the story is incomplete.
	StatusPending OutcomeStatus = "pending"
	// StatusCompleted means the story completed and decoded successfully.
	StatusCompleted OutcomeStatus = "completed"
	// StatusRejected means the record was refused; the reason says why.
	StatusRejected OutcomeStatus = "rejected"
)

// RejectReason classifies why a record was rejected.
type RejectReason string

// Reject reason constants. These are kinds, not error types: every
// rejection is fully recovered at the engine boundary and never
// terminates the caller's processing loop.
const (
	// RejectNoMatchingEnvelope: a continuation fragment references a GUID
	// with no open envelope.
	RejectNoMatchingEnvelope RejectReason = "no_matching_envelope"
	// RejectOutOfOrderOrSourceMismatch: a continuation fragment's source
	// or sequence number does not match the open envelope.
	RejectOutOfOrderOrSourceMismatch RejectReason = "out_of_order_or_source_mismatch"
	// RejectSizeMismatch: accumulated bytes would exceed the declared
	// total, or a single fragment overflows its own declared total.
	RejectSizeMismatch RejectReason = "size_mismatch"
	// RejectDecodeError: Base64, decompression, or JSON parse failure.
	RejectDecodeError RejectReason = "decode_error"
	// RejectMalformedRecord: required fields absent from the record.
	RejectMalformedRecord RejectReason = "malformed_record"
)

// Outcome is the result of processing one update record.
type Outcome struct {
	// Status is the result class.
	Status OutcomeStatus
	// GUID is the story identifier, when the record carried one.
	GUID string
	// Source is the feed partition, when the record carried one.
	Source string
	// FragNum is the fragment sequence number, when present.
	FragNum int64
	// Reason is set when Status is StatusRejected.
	Reason RejectReason
	// Detail is a human-readable rejection detail.
	Detail string
	// Story is the decoded story, set when Status is StatusCompleted.
	Story *Story
	// Document is the decompressed story JSON, set alongside Story.
	Document []byte
}

// Completed returns true if the outcome carries a decoded story.
func (o Outcome) Completed() bool {
	return o.Status == StatusCompleted
}

// Rejected returns true if the record was refused.
func (o Outcome) Rejected() bool {
	return o.Status == StatusRejected
}
