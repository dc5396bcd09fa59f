// Package dedupe resolves new documents against previously seen fingerprints.
// Exact-hash matches take precedence; otherwise candidates sharing a simhash
// band are scanned and the closest one within the Hamming threshold wins.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/fingerprint"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/repository"
)

// DefaultHammingThreshold is the near-duplicate cutoff in simhash bits.
const DefaultHammingThreshold = 3

const simhashBits = 64

// ErrAlreadyRegistered signals a fingerprint registered twice. That is a
// programming defect (Resolve makes it impossible), so callers treat it as
// fatal to the run.
var ErrAlreadyRegistered = errors.New("fingerprint already registered")

type bucketEntry struct {
	simhash   uint64
	exactHash string
}

// Index is the in-memory dedupe index. A single mutex serializes check and
// register so two documents with the same fingerprint can never both become
// canonical. The optional store persists records across runs; store errors
// are logged and never fail a document.
type Index struct {
	mu        sync.Mutex
	threshold int
	bandCount int
	bandBits  int
	records   map[string]*entity.DedupeRecord
	buckets   map[uint64][]bucketEntry

	store  repository.DedupeStore
	logger *zap.Logger
	now    func() time.Time
}

// NewIndex creates an empty index. store may be nil for purely in-memory use.
func NewIndex(threshold int, store repository.DedupeStore, logger *zap.Logger) *Index {
	if threshold < 0 {
		threshold = DefaultHammingThreshold
	}
	if threshold > simhashBits/2 {
		threshold = simhashBits / 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	bands := bandsFor(threshold)
	return &Index{
		threshold: threshold,
		bandCount: bands,
		bandBits:  simhashBits / bands,
		records:   make(map[string]*entity.DedupeRecord),
		buckets:   make(map[uint64][]bucketEntry),
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// bandsFor picks the smallest power-of-two band count with more bands than
// threshold bits can differ, so every pair within the threshold still shares
// at least one untouched band.
func bandsFor(threshold int) int {
	bands := 1
	for bands <= threshold {
		bands *= 2
	}
	return bands
}

// Warm loads persisted records into the index. Called once at startup, before
// the index is shared.
func (ix *Index) Warm(ctx context.Context) (int, error) {
	if ix.store == nil {
		return 0, nil
	}
	recs, err := ix.store.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load dedupe records: %w", err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, rec := range recs {
		if _, ok := ix.records[rec.Fingerprint.ExactHash]; ok {
			continue
		}
		ix.insert(rec)
	}
	return len(recs), nil
}

// Check resolves a fingerprint against the index without registering it.
func (ix *Index) Check(fp entity.Fingerprint) entity.DedupeResult {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.lookup(fp)
}

// Register establishes fp's canonical record. It must be called exactly once
// per distinct fingerprint; a second call reports ErrAlreadyRegistered.
func (ix *Index) Register(ctx context.Context, fp entity.Fingerprint, docID string) error {
	ix.mu.Lock()
	if _, ok := ix.records[fp.ExactHash]; ok {
		ix.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, fp.ExactHash)
	}
	rec := &entity.DedupeRecord{Fingerprint: fp, CanonicalID: docID, FirstSeenAt: ix.now()}
	ix.insert(rec)
	ix.mu.Unlock()

	ix.persist(ctx, rec)
	return nil
}

// Resolve checks fp and, when it is new, registers docID as canonical in a
// single critical section, so concurrent documents with the same fingerprint
// serialize and exactly one becomes canonical.
func (ix *Index) Resolve(ctx context.Context, fp entity.Fingerprint, docID string) entity.DedupeResult {
	ix.mu.Lock()
	res := ix.lookup(fp)
	if res.IsDuplicate {
		ix.mu.Unlock()
		return res
	}
	rec := &entity.DedupeRecord{Fingerprint: fp, CanonicalID: docID, FirstSeenAt: ix.now()}
	ix.insert(rec)
	ix.mu.Unlock()

	// Persistence happens outside the lock; it is write-through, best effort.
	ix.persist(ctx, rec)
	return entity.DedupeResult{}
}

// Size returns the number of distinct fingerprint clusters.
func (ix *Index) Size() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.records)
}

// lookup must be called with the mutex held.
func (ix *Index) lookup(fp entity.Fingerprint) entity.DedupeResult {
	if rec, ok := ix.records[fp.ExactHash]; ok {
		return entity.DedupeResult{
			IsDuplicate:  true,
			IsExactMatch: true,
			CanonicalID:  rec.CanonicalID,
		}
	}

	best := -1
	var bestHash string
	seen := make(map[string]struct{})
	for band := 0; band < ix.bandCount; band++ {
		for _, e := range ix.buckets[ix.bandKey(fp.SimHash, band)] {
			if _, dup := seen[e.exactHash]; dup {
				continue
			}
			seen[e.exactHash] = struct{}{}
			d := fingerprint.HammingDistance(fp.SimHash, e.simhash)
			if d <= ix.threshold && (best < 0 || d < best) {
				best = d
				bestHash = e.exactHash
			}
		}
	}
	if best >= 0 {
		return entity.DedupeResult{
			IsDuplicate: true,
			CanonicalID: ix.records[bestHash].CanonicalID,
			Distance:    best,
		}
	}
	return entity.DedupeResult{}
}

// insert must be called with the mutex held.
func (ix *Index) insert(rec *entity.DedupeRecord) {
	ix.records[rec.Fingerprint.ExactHash] = rec
	for band := 0; band < ix.bandCount; band++ {
		key := ix.bandKey(rec.Fingerprint.SimHash, band)
		ix.buckets[key] = append(ix.buckets[key], bucketEntry{
			simhash:   rec.Fingerprint.SimHash,
			exactHash: rec.Fingerprint.ExactHash,
		})
	}
}

func (ix *Index) persist(ctx context.Context, rec *entity.DedupeRecord) {
	if ix.store == nil {
		return
	}
	if err := ix.store.Save(ctx, rec); err != nil {
		ix.logger.Warn("failed to persist dedupe record",
			zap.String("exact_hash", rec.Fingerprint.ExactHash),
			zap.Error(err))
	}
}

// bandKey buckets a simhash by one of its bands, LSH style: with more bands
// than the threshold, any two hashes within the threshold share at least one
// band, keeping the candidate scan bounded without missing matches.
func (ix *Index) bandKey(simhash uint64, band int) uint64 {
	mask := uint64(1)<<uint(ix.bandBits) - 1
	segment := (simhash >> (uint(band) * uint(ix.bandBits))) & mask
	return uint64(band)<<uint(ix.bandBits) | segment
}
