// Package archive persists decoded story documents.
//
// Stories land as one JSON file each under day-partitioned paths:
//
//	source=<source>/day=<YYYY-MM-DD>/<guid>.json
//
// The fs backend is the default; the s3 backend is experimental and
// write-only. Partitioning by source and day keeps the layout cheap to
// list for a given feed partition and date.
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StoryMeta identifies where an archived story lands.
type StoryMeta struct {
	// GUID is the story identifier, used as the filename.
	GUID string
	// Source is the feed partition.
	Source string
	// Day is the partition date, YYYY-MM-DD.
	Day string
}

// Writer persists decoded story documents.
type Writer interface {
	// WriteStory persists one decoded story document.
	WriteStory(ctx context.Context, meta StoryMeta, doc []byte) error

	// Close releases writer resources.
	Close() error
}

// Entry describes one archived story returned by a listing.
type Entry struct {
	GUID           string `json:"guid"`
	Source         string `json:"source"`
	Day            string `json:"day"`
	Headline       string `json:"headline"`
	Language       string `json:"language"`
	VersionCreated string `json:"version_created"`
	SizeBytes      int64  `json:"size_bytes"`
}

// DayOf derives the partition day from a story's versionCreated
// timestamp, falling back to now (UTC) when the timestamp is absent or
// unparseable.
func DayOf(versionCreated string, now time.Time) string {
	if t, err := time.Parse(time.RFC3339, versionCreated); err == nil {
		return t.UTC().Format("2006-01-02")
	}
	return now.UTC().Format("2006-01-02")
}

// StorageError wraps an underlying error with the failed operation and
// storage path. It preserves the original error for errors.Is/As.
type StorageError struct {
	// Op is the operation that failed (e.g. "write", "list").
	Op string
	// Path is the storage path involved.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// partitionPath computes the relative path for a story.
func partitionPath(meta StoryMeta) string {
	return fmt.Sprintf("source=%s/day=%s/%s.json",
		sanitize(meta.Source), sanitize(meta.Day), sanitize(meta.GUID))
}

// sanitize makes an identifier safe as a path component. Feed GUIDs and
// sources are alphanumeric with underscores in practice; separators are
// replaced rather than rejected so an odd identifier still archives.
func sanitize(s string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_", "\x00", "_")
	return r.Replace(s)
}
