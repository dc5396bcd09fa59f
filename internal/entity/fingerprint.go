package entity

import "time"

// Fingerprint identifies document content for deduplication. Both hashes are
// derived from normalized content, so cosmetic differences (case, whitespace,
// residual markup) do not defeat matching.
type Fingerprint struct {
	ExactHash string // 128-bit digest of normalized content, hex encoded
	SimHash   uint64 // locality-sensitive signature; near-duplicates land within a small Hamming distance
}

// DedupeRecord is the canonical record for a distinct fingerprint cluster.
// One record exists per cluster; it is created on first sighting and never
// deleted during a run.
type DedupeRecord struct {
	Fingerprint Fingerprint
	CanonicalID string
	FirstSeenAt time.Time
}

// DedupeResult is the outcome of resolving a new document against the index.
type DedupeResult struct {
	IsDuplicate  bool
	IsExactMatch bool   // false means a near-duplicate within the Hamming threshold
	CanonicalID  string // set when IsDuplicate
	Distance     int    // Hamming distance to the canonical record (0 for exact)
}
