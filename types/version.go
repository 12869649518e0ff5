package types

// Version is the canonical project version.
// The CLI, capture frame format, and published event schema share this
// version per the lockstep versioning policy.
const Version = "0.3.0"
