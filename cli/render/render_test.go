package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

type row struct {
	GUID     string `json:"guid"`
	Headline string `json:"headline"`
	Size     int64  `json:"size_bytes"`
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
		err  bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"table", FormatTable, false},
		{"yaml", FormatYAML, false},
		{"", "", false},
		{"xml", "", true},
	}
	for _, c := range cases {
		got, err := ParseFormat(c.in)
		if c.err && err == nil {
			t.Errorf("%q: expected error", c.in)
		}
		if !c.err && (err != nil || got != c.want) {
			t.Errorf("%q: got (%q, %v)", c.in, got, err)
		}
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatJSON, true, &buf)

	if err := r.Render(row{GUID: "g1", Headline: "Markets rally", Size: 42}); err != nil {
		t.Fatalf("render: %v", err)
	}

	var got row
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got.GUID != "g1" || got.Size != 42 {
		t.Errorf("unexpected output: %+v", got)
	}
}

func TestRender_TableSlice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	rows := []row{
		{GUID: "g1", Headline: "First", Size: 10},
		{GUID: "g2", Headline: "Second", Size: 20},
	}
	if err := r.Render(rows); err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	// Headers come from json tags.
	if !strings.Contains(out, "guid") || !strings.Contains(out, "size_bytes") {
		t.Errorf("missing headers:\n%s", out)
	}
	if !strings.Contains(out, "g1") || !strings.Contains(out, "Second") {
		t.Errorf("missing rows:\n%s", out)
	}
}

func TestRender_TableEmptySlice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	if err := r.Render([]row{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "(no results)") {
		t.Errorf("expected placeholder, got %q", buf.String())
	}
}

func TestRender_TableStruct(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	if err := r.Render(row{GUID: "g1", Headline: "Solo", Size: 5}); err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "guid:") || !strings.Contains(out, "Solo") {
		t.Errorf("unexpected struct table:\n%s", out)
	}
}

func TestRender_TableNoColorHasNoEscapes(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	if err := r.Render([]row{{GUID: "g1"}}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Error("no-color output must not contain ANSI escapes")
	}
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatYAML, true, &buf)

	if err := r.Render(map[string]string{"ric": "MRN_STORY"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "ric: MRN_STORY") {
		t.Errorf("unexpected yaml: %q", buf.String())
	}
}

func TestRender_TableInlinesNestedMap(t *testing.T) {
	type report struct {
		Rejected map[string]int64 `json:"rejected_by_reason"`
	}

	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	if err := r.Render(report{Rejected: map[string]int64{"size_mismatch": 2}}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "size_mismatch=2") {
		t.Errorf("expected inline map rendering, got %q", buf.String())
	}
}
