package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FS archives stories under a base directory on the local filesystem.
type FS struct {
	base string
}

// NewFS creates a filesystem archive rooted at base.
func NewFS(base string) (*FS, error) {
	if base == "" {
		return nil, fmt.Errorf("fs archive requires a base directory")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, &StorageError{Op: "init", Path: base, Err: err}
	}
	return &FS{base: base}, nil
}

// WriteStory persists one story document. Writes go through a temp file
// and rename so readers never observe a partial document.
func (f *FS) WriteStory(_ context.Context, meta StoryMeta, doc []byte) error {
	rel := partitionPath(meta)
	full := filepath.Join(f.base, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return &StorageError{Op: "write", Path: rel, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".story-*")
	if err != nil {
		return &StorageError{Op: "write", Path: rel, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &StorageError{Op: "write", Path: rel, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &StorageError{Op: "write", Path: rel, Err: err}
	}
	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return &StorageError{Op: "write", Path: rel, Err: err}
	}
	return nil
}

// ListDay returns the archived stories for one source and day, sorted by
// versionCreated then GUID. Headline fields are read from the documents.
func (f *FS) ListDay(_ context.Context, source, day string) ([]Entry, error) {
	dir := filepath.Join(f.base,
		"source="+sanitize(source),
		"day="+sanitize(day))

	dirents, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "list", Path: dir, Err: err}
	}

	var entries []Entry
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		full := filepath.Join(dir, name)
		doc, err := os.ReadFile(full)
		if err != nil {
			return nil, &StorageError{Op: "list", Path: full, Err: err}
		}

		// Only the listing fields are decoded; the document stays opaque.
		var head struct {
			Headline       string `json:"headline"`
			Language       string `json:"language"`
			VersionCreated string `json:"versionCreated"`
		}
		_ = json.Unmarshal(doc, &head)

		entries = append(entries, Entry{
			GUID:           strings.TrimSuffix(name, ".json"),
			Source:         source,
			Day:            day,
			Headline:       head.Headline,
			Language:       head.Language,
			VersionCreated: head.VersionCreated,
			SizeBytes:      int64(len(doc)),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].VersionCreated != entries[j].VersionCreated {
			return entries[i].VersionCreated < entries[j].VersionCreated
		}
		return entries[i].GUID < entries[j].GUID
	})
	return entries, nil
}

// Close releases archive resources. The fs archive holds none.
func (f *FS) Close() error {
	return nil
}

// Verify FS implements the Writer interface.
var _ Writer = (*FS)(nil)
