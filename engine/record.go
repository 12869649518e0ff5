package engine

import (
	"encoding/base64"
	"fmt"

	"github.com/newswire-io/restitch/types"
)

// RecordError describes why an update record could not be turned into a
// fragment. It carries the reject reason so the engine can surface it as
// an outcome rather than an error.
type RecordError struct {
	// Reason is the rejection classification.
	Reason types.RejectReason
	// Detail is a human-readable description.
	Detail string
}

func (e *RecordError) Error() string {
	return e.Detail
}

// parseFragment extracts and validates the fragment fields from an
// update record. The FRAGMENT payload is Base64-decoded here, once; the
// engine never reapplies Base64 to already-decoded bytes.
//
// Missing required fields reject as malformed_record; a payload that
// fails Base64 decoding rejects as decode_error.
func parseFragment(rec *types.UpdateRecord) (*types.Fragment, *RecordError) {
	if rec == nil || rec.Fields == nil {
		return nil, &RecordError{
			Reason: types.RejectMalformedRecord,
			Detail: "record has no fields",
		}
	}

	guid, ok := stringField(rec.Fields, types.FieldGUID)
	if !ok || guid == "" {
		return nil, &RecordError{
			Reason: types.RejectMalformedRecord,
			Detail: "record is missing " + types.FieldGUID,
		}
	}

	source, ok := stringField(rec.Fields, types.FieldSource)
	if !ok || source == "" {
		return nil, &RecordError{
			Reason: types.RejectMalformedRecord,
			Detail: "record is missing " + types.FieldSource,
		}
	}

	fragNum, ok := intField(rec.Fields, types.FieldFragNum)
	if !ok {
		return nil, &RecordError{
			Reason: types.RejectMalformedRecord,
			Detail: "record is missing " + types.FieldFragNum,
		}
	}
	if fragNum < 1 {
		return nil, &RecordError{
			Reason: types.RejectMalformedRecord,
			Detail: fmt.Sprintf("%s must be >= 1, got %d", types.FieldFragNum, fragNum),
		}
	}

	payload, rerr := payloadField(rec.Fields)
	if rerr != nil {
		return nil, rerr
	}

	frag := &types.Fragment{
		GUID:    guid,
		Source:  source,
		FragNum: fragNum,
		Payload: payload,
	}

	// TOT_SIZE is meaningful only on the first fragment; continuation
	// fragments ignore it even when present.
	if fragNum == 1 {
		totSize, ok := intField(rec.Fields, types.FieldTotSize)
		if !ok {
			return nil, &RecordError{
				Reason: types.RejectMalformedRecord,
				Detail: "first fragment is missing " + types.FieldTotSize,
			}
		}
		if totSize < 0 {
			return nil, &RecordError{
				Reason: types.RejectMalformedRecord,
				Detail: fmt.Sprintf("%s must be >= 0, got %d", types.FieldTotSize, totSize),
			}
		}
		frag.TotSize = totSize
	}

	return frag, nil
}

// payloadField extracts the FRAGMENT payload. The transport may deliver
// it as a Base64 string or as raw bytes depending on the capture writer.
func payloadField(fields map[string]any) ([]byte, *RecordError) {
	raw, ok := fields[types.FieldFragment]
	if !ok || raw == nil {
		return nil, &RecordError{
			Reason: types.RejectMalformedRecord,
			Detail: "record carries no " + types.FieldFragment,
		}
	}

	switch v := raw.(type) {
	case []byte:
		return v, nil
	case string:
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, &RecordError{
				Reason: types.RejectDecodeError,
				Detail: fmt.Sprintf("%s is not valid Base64: %v", types.FieldFragment, err),
			}
		}
		return decoded, nil
	default:
		return nil, &RecordError{
			Reason: types.RejectMalformedRecord,
			Detail: fmt.Sprintf("%s has unexpected type %T", types.FieldFragment, raw),
		}
	}
}

// stringField reads a string-valued field.
func stringField(fields map[string]any, name string) (string, bool) {
	v, ok := fields[name].(string)
	return v, ok
}

// intField reads an integer-valued field. Numeric fields may arrive as
// any integer width: msgpack uses the smallest encoding that fits the
// value, and JSON-sourced captures decode numbers as float64.
func intField(fields map[string]any, name string) (int64, bool) {
	switch v := fields[name].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
