package types

// Story is the decoded MRN news item. The schema follows the MRN_STORY
// JSON payload; timestamps stay as ISO 8601 strings since the engine
// treats them as opaque.
type Story struct {
	ID             string   `json:"id"`
	AltID          string   `json:"altId,omitempty"`
	Headline       string   `json:"headline"`
	Body           string   `json:"body"`
	Language       string   `json:"language"`
	FirstCreated   string   `json:"firstCreated"`
	VersionCreated string   `json:"versionCreated"`
	Provider       string   `json:"provider"`
	PubStatus      string   `json:"pubStatus,omitempty"`
	MessageType    int      `json:"messageType,omitempty"`
	MimeType       string   `json:"mimeType,omitempty"`
	TakeSequence   int      `json:"takeSequence,omitempty"`
	Urgency        int      `json:"urgency,omitempty"`
	Audiences      []string `json:"audiences,omitempty"`
	InstancesOf    []string `json:"instancesOf,omitempty"`
	Subjects       []string `json:"subjects,omitempty"`
}
