package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDayOf(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	if got := DayOf("2026-01-02T23:59:59Z", now); got != "2026-01-02" {
		t.Errorf("expected 2026-01-02, got %s", got)
	}
	// Timezone offsets normalize to UTC.
	if got := DayOf("2026-01-03T01:00:00+03:00", now); got != "2026-01-02" {
		t.Errorf("expected UTC-normalized 2026-01-02, got %s", got)
	}
	// Absent or unparseable timestamps fall back to now.
	for _, vc := range []string{"", "not-a-timestamp"} {
		if got := DayOf(vc, now); got != "2026-08-24" {
			t.Errorf("%q: expected fallback 2026-08-24, got %s", vc, got)
		}
	}
}

func TestFS_RequiresBase(t *testing.T) {
	if _, err := NewFS(""); err == nil {
		t.Fatal("expected error for empty base directory")
	}
}

func TestFS_WriteStory(t *testing.T) {
	arch, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	defer func() { _ = arch.Close() }()

	meta := StoryMeta{GUID: "g1", Source: "MRN_AUTO", Day: "2026-08-24"}
	doc := []byte(`{"id":"g1","headline":"Markets rally"}`)
	if err := arch.WriteStory(t.Context(), meta, doc); err != nil {
		t.Fatalf("write: %v", err)
	}

	full := filepath.Join(arch.base, "source=MRN_AUTO", "day=2026-08-24", "g1.json")
	got, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != string(doc) {
		t.Errorf("document did not round-trip")
	}

	// No temp files left behind.
	dirents, _ := os.ReadDir(filepath.Dir(full))
	for _, de := range dirents {
		if de.Name() != "g1.json" {
			t.Errorf("unexpected file %s", de.Name())
		}
	}
}

func TestFS_WriteStorySanitizesPathComponents(t *testing.T) {
	arch, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	meta := StoryMeta{GUID: "../../etc/passwd", Source: "MRN/AUTO", Day: "2026-08-24"}
	if err := arch.WriteStory(t.Context(), meta, []byte("{}")); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Everything must land under the base directory.
	var found int
	_ = filepath.WalkDir(arch.base, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			found++
		}
		return nil
	})
	if found != 1 {
		t.Errorf("expected exactly 1 file under base, got %d", found)
	}
}

func TestFS_ListDay(t *testing.T) {
	arch, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	stories := []struct {
		guid, headline, versionCreated string
	}{
		{"g-late", "Late story", "2026-08-24T18:00:00Z"},
		{"g-early", "Early story", "2026-08-24T06:00:00Z"},
		{"g-mid", "Mid story", "2026-08-24T12:00:00Z"},
	}
	for _, s := range stories {
		doc := []byte(`{"id":"` + s.guid + `","headline":"` + s.headline +
			`","language":"en","versionCreated":"` + s.versionCreated + `"}`)
		meta := StoryMeta{GUID: s.guid, Source: "MRN_AUTO", Day: "2026-08-24"}
		if err := arch.WriteStory(t.Context(), meta, doc); err != nil {
			t.Fatalf("write %s: %v", s.guid, err)
		}
	}

	entries, err := arch.ListDay(t.Context(), "MRN_AUTO", "2026-08-24")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	// Sorted by versionCreated.
	want := []string{"g-early", "g-mid", "g-late"}
	for i, guid := range want {
		if entries[i].GUID != guid {
			t.Errorf("position %d: expected %s, got %s", i, guid, entries[i].GUID)
		}
	}
	if entries[0].Headline != "Early story" || entries[0].Language != "en" {
		t.Errorf("listing fields not decoded: %+v", entries[0])
	}
	if entries[0].SizeBytes == 0 {
		t.Error("expected non-zero size")
	}
}

func TestFS_ListDayMissingPartition(t *testing.T) {
	arch, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	entries, err := arch.ListDay(t.Context(), "NOPE", "2026-01-01")
	if err != nil {
		t.Fatalf("missing partition must not error: %v", err)
	}
	if entries != nil {
		t.Errorf("expected nil entries, got %v", entries)
	}
}

func TestStorageError_Unwrap(t *testing.T) {
	underlying := os.ErrPermission
	err := &StorageError{Op: "write", Path: "x", Err: underlying}

	if err.Unwrap() != underlying {
		t.Error("Unwrap must return the underlying error")
	}
	if err.Error() == "" {
		t.Error("expected non-empty message")
	}
}
