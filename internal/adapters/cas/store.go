// Package cas implements Content Addressable Storage and the Cache Store.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.zr.dev/zr/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.BuildInfoStore using one .meta/.out file pair per
// fingerprint, sharded into subdirectories by fingerprint prefix so no
// single directory accumulates every entry in a large workspace.
type Store struct{}

// NewStore creates a new BuildInfoStore.
func NewStore() (*Store, error) {
	return &Store{}, nil
}

// Lookup retrieves the cache entry for fingerprint, along with its captured
// output. A missing entry returns nil, nil, nil. A corrupt entry (one that
// fails to parse) is treated as a miss and its files are removed so it
// doesn't keep failing the same way on every subsequent run.
func (s *Store) Lookup(root, fingerprint string) (*domain.CacheEntry, []byte, error) {
	metaPath, outPath := s.paths(root, fingerprint)

	//nolint:gosec // path is constructed from trusted directory and validated fingerprint
	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(metaData, &entry); err != nil {
		s.removeCorrupt(metaPath, outPath)
		return nil, nil, nil
	}

	if entry.Expired(time.Now().UnixNano()) {
		s.removeCorrupt(metaPath, outPath)
		return nil, nil, nil
	}

	//nolint:gosec // path is constructed from trusted directory and validated fingerprint
	output, err := os.ReadFile(outPath)
	if err != nil {
		s.removeCorrupt(metaPath, outPath)
		return nil, nil, nil
	}

	return &entry, output, nil
}

// Insert records entry's metadata and captured output under fingerprint.
// If a valid entry already exists for fingerprint, the call is a no-op:
// the first successful record for a fingerprint wins.
func (s *Store) Insert(root, fingerprint string, entry domain.CacheEntry, output []byte) error {
	if existing, _, err := s.Lookup(root, fingerprint); err == nil && existing != nil {
		return nil
	}

	metaPath, outPath := s.paths(root, fingerprint)

	dir := filepath.Dir(metaPath)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	//nolint:gosec // path is constructed from trusted directory and validated fingerprint
	if err := os.WriteFile(outPath, output, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	//nolint:gosec // path is constructed from trusted directory and validated fingerprint
	if err := os.WriteFile(metaPath, data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	return nil
}

// paths returns the sharded .meta and .out paths for fingerprint.
func (s *Store) paths(root, fingerprint string) (metaPath, outPath string) {
	shardDir := filepath.Join(root, domain.DefaultBuildCachePath(), domain.CacheEntryShard(fingerprint))
	return filepath.Join(shardDir, fingerprint+".meta"), filepath.Join(shardDir, fingerprint+".out")
}

// removeCorrupt best-effort deletes a cache entry's files once it has been
// found unreadable, so it is lazily cleaned up rather than failing forever.
func (s *Store) removeCorrupt(metaPath, outPath string) {
	_ = os.Remove(metaPath)
	_ = os.Remove(outPath)
}
