// Package types defines the shared data model for the restitch feed
// reassembly engine: update records, fragments, envelopes, outcomes,
// and the decoded story schema.
package types

// Record type discriminants mirroring the upstream OMM message types.
// Only Update records carry story fragments; Refresh, Status, and Error
// records are counted and skipped during replay.
const (
	RecordTypeUpdate  = "Update"
	RecordTypeRefresh = "Refresh"
	RecordTypeStatus  = "Status"
	RecordTypeError   = "Error"
)

// Field names carried by MRN update records. These are the upstream feed
// field identifiers and must not be renamed.
const (
	FieldGUID     = "GUID"     // unique story identifier
	FieldSource   = "MRN_SRC"  // originating feed partition
	FieldFragNum  = "FRAG_NUM" // 1-based fragment sequence number
	FieldTotSize  = "TOT_SIZE" // declared compressed total, first fragment only
	FieldFragment = "FRAGMENT" // Base64 text or raw bytes
)

// UpdateRecord is one decoded feed message as read from a capture.
// Fields is a flat mapping of upstream field names to values; numeric
// values may arrive as any integer width depending on the msgpack
// encoding, and FRAGMENT may be a Base64 string or raw bytes.
type UpdateRecord struct {
	// Type is the record type discriminant (Update, Refresh, Status, Error).
	Type string `msgpack:"type"`
	// Fields maps upstream field names to values.
	Fields map[string]any `msgpack:"fields"`
}

// IsUpdate returns true if the record is an Update carrying fragment data.
func (r *UpdateRecord) IsUpdate() bool {
	return r != nil && r.Type == RecordTypeUpdate
}
