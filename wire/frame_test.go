package wire_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/newswire-io/restitch/types"
	"github.com/newswire-io/restitch/wire"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := wire.NewFrameEncoder(&buf)

	rec := &types.UpdateRecord{
		Type: types.RecordTypeUpdate,
		Fields: map[string]any{
			types.FieldGUID:     "g1",
			types.FieldSource:   "MRN_AUTO",
			types.FieldFragNum:  int64(1),
			types.FieldTotSize:  int64(42),
			types.FieldFragment: "AAAA",
		},
	}
	if err := enc.WriteRecord(rec); err != nil {
		t.Fatalf("write: %v", err)
	}

	dec := wire.NewFrameDecoder(&buf)
	payload, err := dec.ReadFrame()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	got, err := wire.DecodeRecord(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != types.RecordTypeUpdate {
		t.Errorf("expected Update, got %q", got.Type)
	}
	if got.Fields[types.FieldGUID] != "g1" {
		t.Errorf("GUID did not round-trip: %v", got.Fields[types.FieldGUID])
	}
	if got.Fields[types.FieldFragment] != "AAAA" {
		t.Errorf("FRAGMENT did not round-trip: %v", got.Fields[types.FieldFragment])
	}
}

func TestFrameRoundTrip_NumericFields(t *testing.T) {
	var buf bytes.Buffer
	enc := wire.NewFrameEncoder(&buf)

	// Large TOT_SIZE exercises a wider msgpack integer encoding.
	rec := &types.UpdateRecord{
		Type: types.RecordTypeUpdate,
		Fields: map[string]any{
			types.FieldFragNum: int64(300),
			types.FieldTotSize: int64(1 << 20),
		},
	}
	if err := enc.WriteRecord(rec); err != nil {
		t.Fatalf("write: %v", err)
	}

	dec := wire.NewFrameDecoder(&buf)
	payload, err := dec.ReadFrame()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got, err := wire.DecodeRecord(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	// The decoded width is whatever msgpack chose; only the value matters.
	switch v := got.Fields[types.FieldTotSize].(type) {
	case int64:
		if v != 1<<20 {
			t.Errorf("TOT_SIZE=%d", v)
		}
	case uint64:
		if v != 1<<20 {
			t.Errorf("TOT_SIZE=%d", v)
		}
	case int32, uint32, int:
		// acceptable widths
	default:
		t.Errorf("unexpected TOT_SIZE type %T", v)
	}
}

func TestReadFrame_CleanEOF(t *testing.T) {
	dec := wire.NewFrameDecoder(bytes.NewReader(nil))
	if _, err := dec.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF on empty capture, got %v", err)
	}
}

func TestReadFrame_MultipleFrames(t *testing.T) {
	var buf bytes.Buffer
	enc := wire.NewFrameEncoder(&buf)
	for i := 0; i < 3; i++ {
		if err := enc.WriteRecord(&types.UpdateRecord{Type: types.RecordTypeStatus}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	dec := wire.NewFrameDecoder(&buf)
	for i := 0; i < 3; i++ {
		if _, err := dec.ReadFrame(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if _, err := dec.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after last frame, got %v", err)
	}
}

func TestReadFrame_TruncatedPrefix(t *testing.T) {
	dec := wire.NewFrameDecoder(bytes.NewReader([]byte{0x00, 0x01}))
	_, err := dec.ReadFrame()

	var ferr *wire.FrameError
	if !errors.As(err, &ferr) || ferr.Kind != wire.FrameErrorPartial {
		t.Fatalf("expected partial frame error, got %v", err)
	}
	if !wire.IsFatalFrameError(err) {
		t.Error("partial frame must be fatal")
	}
}

func TestReadFrame_TruncatedPayload(t *testing.T) {
	var raw bytes.Buffer
	var prefix [wire.LengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], 100)
	raw.Write(prefix[:])
	raw.Write([]byte("short"))

	dec := wire.NewFrameDecoder(&raw)
	_, err := dec.ReadFrame()

	var ferr *wire.FrameError
	if !errors.As(err, &ferr) || ferr.Kind != wire.FrameErrorPartial {
		t.Fatalf("expected partial frame error, got %v", err)
	}
}

func TestReadFrame_TooLarge(t *testing.T) {
	var raw bytes.Buffer
	var prefix [wire.LengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], wire.MaxPayloadSize+1)
	raw.Write(prefix[:])

	dec := wire.NewFrameDecoder(&raw)
	_, err := dec.ReadFrame()

	var ferr *wire.FrameError
	if !errors.As(err, &ferr) || ferr.Kind != wire.FrameErrorTooLarge {
		t.Fatalf("expected too-large frame error, got %v", err)
	}
	if !wire.IsFatalFrameError(err) {
		t.Error("oversized frame must be fatal")
	}
}

func TestDecodeRecord_Invalid(t *testing.T) {
	_, err := wire.DecodeRecord([]byte{0xc1, 0xff, 0x00}) // 0xc1 is never valid msgpack

	var ferr *wire.FrameError
	if !errors.As(err, &ferr) || ferr.Kind != wire.FrameErrorDecode {
		t.Fatalf("expected decode frame error, got %v", err)
	}
	if wire.IsFatalFrameError(err) {
		t.Error("decode errors are not fatal by kind")
	}
}
