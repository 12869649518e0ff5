package types

// Fragment is the validated, decoded form of one update record's
// fragment fields. Payload holds the compressed bytes after Base64
// decoding; decoding happens once at ingestion and is never reapplied.
type Fragment struct {
	// GUID correlates all fragments of one logical story.
	GUID string
	// Source is the originating feed partition (MRN_SRC).
	// All fragments of one story must carry the same source.
	Source string
	// FragNum is the 1-based fragment sequence number.
	FragNum int64
	// TotSize is the declared compressed total in bytes.
	// Meaningful only when FragNum == 1.
	TotSize int64
	// Payload is the fragment's compressed bytes, Base64-decoded.
	Payload []byte
}

// First returns true for the opening fragment of a story.
func (f *Fragment) First() bool {
	return f.FragNum == 1
}
