// Package fpstore implements the Fingerprint Store: a content-addressed
// JSON sidecar cache under the application's data root, so re-opening a
// track costs a disk read instead of a full re-analysis.
package fpstore

import (
	"crypto/md5" //nolint:gosec // content-addressing, not a security boundary
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/farcloser/auralis/internal/types"
)

const schemaVersion = 1

// Store is the Fingerprint Store. It is process-wide shared: concurrent
// reads are safe, and writes use atomic rename for lock-free publication.
type Store struct {
	dir string
}

// New builds a Store rooted at <dataRoot>/fingerprints.
func New(dataRoot string) (*Store, error) {
	dir := filepath.Join(dataRoot, "fingerprints")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating fingerprint store dir: %w", types.ErrInternal, err)
	}

	return &Store{dir: dir}, nil
}

// Key computes the MD5 of (absolute audio path || first 1 MiB of the
// decoded content). Key collisions between genuinely different tracks are
// astronomically unlikely and acceptable: the worst case is a redundant
// re-analysis.
func Key(absPath string, contentPrefix []byte) string {
	const prefixLimit = 1 << 20

	if len(contentPrefix) > prefixLimit {
		contentPrefix = contentPrefix[:prefixLimit]
	}

	h := md5.New() //nolint:gosec // content-addressing, not a security boundary
	h.Write([]byte(absPath))
	h.Write(contentPrefix)

	return hex.EncodeToString(h.Sum(nil))
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load reads the record for key. A missing file, a schema mismatch, or a
// deserialisation failure all signal a cache miss (ok == false) rather
// than an error: the caller falls back to computing the fingerprint.
func (s *Store) Load(key string) (*types.Fingerprint, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}

	var record types.FingerprintRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, false
	}

	if record.SchemaVersion != schemaVersion {
		return nil, false
	}

	fp := record.Fingerprint

	return &fp, true
}

// Store writes the record for key atomically: write-temp-then-rename, so
// concurrent writers never observe a partially-written file. Two
// concurrent writers for the same key may both succeed; the later rename
// wins, which is acceptable since the payload is a deterministic function
// of the content.
func (s *Store) Store(key string, fp *types.Fingerprint) error {
	record := types.FingerprintRecord{
		SchemaVersion: schemaVersion,
		Key:           key,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Fingerprint:   *fp,
		ContentClass:  fp.ContentClass.String(),
		Confidence:    fp.Confidence,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshalling fingerprint record: %w", types.ErrInternal, err)
	}

	finalPath := s.path(key)

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp fingerprint file: %w", types.ErrInternal, err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("%w: writing temp fingerprint file: %w", types.ErrInternal, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("%w: closing temp fingerprint file: %w", types.ErrInternal, err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("%w: publishing fingerprint file: %w", types.ErrInternal, err)
	}

	return nil
}

// ClearAll deletes every record in the store.
func (s *Store) ClearAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("%w: reading fingerprint store dir: %w", types.ErrInternal, err)
	}

	for _, e := range entries {
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("%w: removing fingerprint record %s: %w", types.ErrInternal, e.Name(), err)
		}
	}

	return nil
}
