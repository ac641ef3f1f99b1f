package ports

import "go.zr.dev/zr/internal/core/domain"

// BuildInfoStore is the Cache Store: a fingerprint-keyed record of
// previously successful task runs, each paired with its captured combined
// stdout/stderr so a cache hit can be replayed byte-for-byte.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildInfoStore interface {
	// Lookup retrieves the cache entry for the given fingerprint, along with
	// its captured output. Returns nil, nil, nil on a clean miss. A corrupt
	// entry (unreadable or unmarshalable) is treated as a miss and removed.
	Lookup(root, fingerprint string) (*domain.CacheEntry, []byte, error)

	// Insert records a successful run's entry and captured output under its
	// fingerprint. Idempotent: if an entry already exists for fingerprint,
	// the existing record is kept and this call is a no-op.
	Insert(root, fingerprint string, entry domain.CacheEntry, output []byte) error
}
