package duckdb

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inodb/canonical-tx/internal/cache"
)

// TranscriptCache manages the gob-serialized BioMart catalog on disk:
//
//	{dir}/transcripts.gob       (serialized transcripts, load order)
//	{dir}/transcripts.gob.meta  (source file fingerprint and column mapping)
type TranscriptCache struct {
	dir string
}

// NewTranscriptCache creates a transcript cache for the given directory.
func NewTranscriptCache(dir string) *TranscriptCache {
	return &TranscriptCache{dir: dir}
}

func (tc *TranscriptCache) gobPath() string {
	return filepath.Join(tc.dir, "transcripts.gob")
}

func (tc *TranscriptCache) metaPath() string {
	return filepath.Join(tc.dir, "transcripts.gob.meta")
}

// columnsKey identifies the column mapping the catalog was parsed with.
func columnsKey(cols cache.Columns) string {
	return strings.Join([]string{
		cols.GeneID, cols.TranscriptID, cols.Symbol,
		cols.IsCanonical, cols.ProteinLength, cols.Version,
	}, ",")
}

func expectedMeta(biomart FileFingerprint, cols cache.Columns) [][2]string {
	return append(biomart.meta("biomart"), [2]string{"columns", columnsKey(cols)})
}

// Valid checks whether the cached catalog matches the current BioMart file
// and column mapping.
func (tc *TranscriptCache) Valid(biomart FileFingerprint, cols cache.Columns) bool {
	meta, err := tc.readMeta()
	if err != nil {
		return false
	}

	for _, kv := range expectedMeta(biomart, cols) {
		if meta[kv[0]] != kv[1] {
			return false
		}
	}

	// Verify gob file exists
	if _, err := os.Stat(tc.gobPath()); err != nil {
		return false
	}
	return true
}

// Load reads serialized transcripts from disk into the cache.
func (tc *TranscriptCache) Load(c *cache.Cache) error {
	f, err := os.Open(tc.gobPath())
	if err != nil {
		return fmt.Errorf("open transcript cache: %w", err)
	}
	defer f.Close()

	var data []*cache.Transcript
	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return fmt.Errorf("decode transcript cache: %w", err)
	}

	for _, t := range data {
		c.AddTranscript(t)
	}
	return nil
}

// Write serializes all transcripts from the cache to disk.
func (tc *TranscriptCache) Write(c *cache.Cache, biomart FileFingerprint, cols cache.Columns) error {
	if err := os.MkdirAll(tc.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	f, err := os.Create(tc.gobPath())
	if err != nil {
		return fmt.Errorf("create transcript cache: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(c.Transcripts()); err != nil {
		f.Close()
		os.Remove(tc.gobPath())
		return fmt.Errorf("encode transcript cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close transcript cache: %w", err)
	}

	// Write metadata
	return tc.writeMeta(biomart, cols)
}

// Clear removes the cached transcript files.
func (tc *TranscriptCache) Clear() {
	os.Remove(tc.gobPath())
	os.Remove(tc.metaPath())
}

func (tc *TranscriptCache) writeMeta(biomart FileFingerprint, cols cache.Columns) error {
	var lines []string
	for _, kv := range expectedMeta(biomart, cols) {
		lines = append(lines, kv[0]+"="+kv[1])
	}
	lines = append(lines, "created_at="+time.Now().UTC().Format(time.RFC3339), "")
	return os.WriteFile(tc.metaPath(), []byte(strings.Join(lines, "\n")), 0644)
}

func (tc *TranscriptCache) readMeta() (map[string]string, error) {
	data, err := os.ReadFile(tc.metaPath())
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
