package runtime

import "github.com/newswire-io/restitch/metrics"

// Report summarizes one replay session. Rendered by the CLI at the end
// of every replay, in json or table form.
type Report struct {
	SessionID  string `json:"session_id,omitempty"`
	RIC        string `json:"ric"`
	Service    string `json:"service"`
	StartedAt  string `json:"started_at"`
	EndedAt    string `json:"ended_at"`
	DurationMs int64  `json:"duration_ms"`
	// OpenEnvelopes is the number of envelopes still open at session
	// end, after the final sweep. -1 when the store was unreachable.
	OpenEnvelopes int `json:"open_envelopes"`
	// Metrics is the final metrics snapshot.
	Metrics metrics.Snapshot `json:"metrics"`
}
