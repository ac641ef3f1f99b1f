package domain

// CacheEntry records a successful task run, keyed by its Fingerprint, so a
// later run with an identical fingerprint can be replayed instead of
// re-executed. Only successful, zero-exit runs are ever inserted: a cache
// entry is always a Success terminal by construction.
type CacheEntry struct {
	Fingerprint string `json:"fingerprint"`

	// ExitCode is always 0; kept explicit so a corrupt or tampered entry
	// claiming a nonzero exit is rejected as a miss rather than replayed.
	ExitCode int `json:"exit_code"`

	// Timestamp is the Unix nanosecond time the task completed.
	Timestamp int64 `json:"timestamp"`

	// ExpiresAt is the Unix nanosecond time after which the entry is treated
	// as a miss, or zero if the entry never expires.
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

// Expired reports whether the entry has passed its expiration time, if any.
func (e CacheEntry) Expired(now int64) bool {
	return e.ExpiresAt != 0 && now >= e.ExpiresAt
}
