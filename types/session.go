package types

// Default subscription identity for the MRN real-time news feed.
const (
	// DefaultRIC is the instrument code for machine-readable news stories.
	DefaultRIC = "MRN_STORY"
	// DefaultDomain is the OMM domain news fragments arrive on.
	DefaultDomain = "NewsTextAnalytics"
	// DefaultService is the upstream service name.
	DefaultService = "ELEKTRON_DD"
)

// SessionMeta identifies one replay session. It threads through logging,
// metrics dimensions, and published events.
type SessionMeta struct {
	// SessionID is a caller-chosen identifier for this replay.
	SessionID string
	// RIC is the subscribed instrument code.
	RIC string
	// Service is the upstream service name.
	Service string
	// Domain is the OMM domain.
	Domain string
}

// Normalize fills unset fields with the MRN defaults.
func (m *SessionMeta) Normalize() {
	if m.RIC == "" {
		m.RIC = DefaultRIC
	}
	if m.Service == "" {
		m.Service = DefaultService
	}
	if m.Domain == "" {
		m.Domain = DefaultDomain
	}
}
