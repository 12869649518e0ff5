package engine

import (
	"testing"

	"github.com/newswire-io/restitch/types"
)

func validFields() map[string]any {
	return map[string]any{
		types.FieldGUID:     "guid-1",
		types.FieldSource:   "MRN_AUTO",
		types.FieldFragNum:  int64(1),
		types.FieldTotSize:  int64(5),
		types.FieldFragment: "aGVsbG8=", // "hello"
	}
}

func TestParseFragment_Valid(t *testing.T) {
	frag, rerr := parseFragment(&types.UpdateRecord{Type: types.RecordTypeUpdate, Fields: validFields()})
	if rerr != nil {
		t.Fatalf("unexpected reject: %s", rerr.Detail)
	}
	if frag.GUID != "guid-1" || frag.Source != "MRN_AUTO" {
		t.Errorf("unexpected identity: %+v", frag)
	}
	if frag.FragNum != 1 || frag.TotSize != 5 {
		t.Errorf("unexpected numbering: frag=%d tot=%d", frag.FragNum, frag.TotSize)
	}
	if string(frag.Payload) != "hello" {
		t.Errorf("expected decoded payload %q, got %q", "hello", frag.Payload)
	}
}

func TestParseFragment_NilRecord(t *testing.T) {
	_, rerr := parseFragment(nil)
	if rerr == nil || rerr.Reason != types.RejectMalformedRecord {
		t.Fatalf("expected malformed_record, got %+v", rerr)
	}
}

func TestParseFragment_MissingRequiredFields(t *testing.T) {
	for _, field := range []string{
		types.FieldGUID,
		types.FieldSource,
		types.FieldFragNum,
		types.FieldFragment,
	} {
		fields := validFields()
		delete(fields, field)

		_, rerr := parseFragment(&types.UpdateRecord{Type: types.RecordTypeUpdate, Fields: fields})
		if rerr == nil || rerr.Reason != types.RejectMalformedRecord {
			t.Errorf("missing %s: expected malformed_record, got %+v", field, rerr)
		}
	}
}

func TestParseFragment_EmptyGUID(t *testing.T) {
	fields := validFields()
	fields[types.FieldGUID] = ""

	_, rerr := parseFragment(&types.UpdateRecord{Type: types.RecordTypeUpdate, Fields: fields})
	if rerr == nil || rerr.Reason != types.RejectMalformedRecord {
		t.Fatalf("expected malformed_record for empty GUID, got %+v", rerr)
	}
}

func TestParseFragment_FragNumBelowOne(t *testing.T) {
	for _, n := range []int64{0, -3} {
		fields := validFields()
		fields[types.FieldFragNum] = n

		_, rerr := parseFragment(&types.UpdateRecord{Type: types.RecordTypeUpdate, Fields: fields})
		if rerr == nil || rerr.Reason != types.RejectMalformedRecord {
			t.Errorf("frag_num=%d: expected malformed_record, got %+v", n, rerr)
		}
	}
}

func TestParseFragment_FirstFragmentRequiresTotSize(t *testing.T) {
	fields := validFields()
	delete(fields, types.FieldTotSize)

	_, rerr := parseFragment(&types.UpdateRecord{Type: types.RecordTypeUpdate, Fields: fields})
	if rerr == nil || rerr.Reason != types.RejectMalformedRecord {
		t.Fatalf("expected malformed_record for missing TOT_SIZE, got %+v", rerr)
	}
}

func TestParseFragment_NegativeTotSize(t *testing.T) {
	fields := validFields()
	fields[types.FieldTotSize] = int64(-1)

	_, rerr := parseFragment(&types.UpdateRecord{Type: types.RecordTypeUpdate, Fields: fields})
	if rerr == nil || rerr.Reason != types.RejectMalformedRecord {
		t.Fatalf("expected malformed_record for negative TOT_SIZE, got %+v", rerr)
	}
}

func TestParseFragment_ContinuationIgnoresTotSize(t *testing.T) {
	fields := validFields()
	fields[types.FieldFragNum] = int64(2)
	delete(fields, types.FieldTotSize)

	frag, rerr := parseFragment(&types.UpdateRecord{Type: types.RecordTypeUpdate, Fields: fields})
	if rerr != nil {
		t.Fatalf("continuation without TOT_SIZE should parse: %s", rerr.Detail)
	}
	if frag.TotSize != 0 {
		t.Errorf("continuation TotSize should be zero, got %d", frag.TotSize)
	}
}

func TestParseFragment_NumericWidths(t *testing.T) {
	// msgpack picks the narrowest integer encoding; JSON captures decode
	// numbers as float64. All must read back as the same value.
	for _, v := range []any{int8(1), int16(1), int32(1), uint8(1), uint16(1), uint64(1), float64(1), int(1)} {
		fields := validFields()
		fields[types.FieldFragNum] = v

		frag, rerr := parseFragment(&types.UpdateRecord{Type: types.RecordTypeUpdate, Fields: fields})
		if rerr != nil {
			t.Errorf("%T: unexpected reject: %s", v, rerr.Detail)
			continue
		}
		if frag.FragNum != 1 {
			t.Errorf("%T: expected frag_num=1, got %d", v, frag.FragNum)
		}
	}
}

func TestParseFragment_PayloadWrongType(t *testing.T) {
	fields := validFields()
	fields[types.FieldFragment] = 42

	_, rerr := parseFragment(&types.UpdateRecord{Type: types.RecordTypeUpdate, Fields: fields})
	if rerr == nil || rerr.Reason != types.RejectMalformedRecord {
		t.Fatalf("expected malformed_record for numeric FRAGMENT, got %+v", rerr)
	}
}

func TestParseFragment_PayloadBadBase64(t *testing.T) {
	fields := validFields()
	fields[types.FieldFragment] = "%%%"

	_, rerr := parseFragment(&types.UpdateRecord{Type: types.RecordTypeUpdate, Fields: fields})
	if rerr == nil || rerr.Reason != types.RejectDecodeError {
		t.Fatalf("expected decode_error for bad Base64, got %+v", rerr)
	}
}
