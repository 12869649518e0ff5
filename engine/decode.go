package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/newswire-io/restitch/types"
)

// gzip stream magic bytes.
const (
	gzipID1 = 0x1f
	gzipID2 = 0x8b
)

// decompress inflates a completed fragment sequence. The upstream feed
// compresses with either a gzip or a bare zlib header depending on
// provider; the header is sniffed so both decode.
func decompress(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("compressed payload too short: %d bytes", len(data))
	}

	var (
		r   io.ReadCloser
		err error
	)
	if data[0] == gzipID1 && data[1] == gzipID2 {
		r, err = gzip.NewReader(bytes.NewReader(data))
	} else {
		r, err = zlib.NewReader(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("open compressed stream: %w", err)
	}
	defer func() { _ = r.Close() }()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}

// parseStory decodes the decompressed document as UTF-8 JSON.
func parseStory(doc []byte) (*types.Story, error) {
	if !utf8.Valid(doc) {
		return nil, fmt.Errorf("document is not valid UTF-8")
	}

	var story types.Story
	if err := json.Unmarshal(doc, &story); err != nil {
		return nil, fmt.Errorf("parse story JSON: %w", err)
	}
	return &story, nil
}
