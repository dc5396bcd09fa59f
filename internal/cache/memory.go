// Package cache provides the in-memory response cache. Entries are bounded by
// an LRU and expire lazily: an entry past its TTL is treated as absent at
// lookup time and evicted then.
package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

// DefaultTTL is how long a cached enrichment result stays valid.
const DefaultTTL = 24 * time.Hour

const defaultMaxEntries = 4096

type memoryEntry struct {
	result   entity.EnrichmentResult
	cachedAt time.Time
	ttl      time.Duration
}

func (e memoryEntry) expired(now time.Time) bool {
	return now.After(e.cachedAt.Add(e.ttl))
}

// Memory is an in-process ResponseCache keyed by exact content hash.
type Memory struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

func NewMemory(maxEntries int) (*Memory, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	entries, err := lru.New[string, memoryEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Memory{entries: entries, now: time.Now}, nil
}

func (m *Memory) Get(_ context.Context, fp entity.Fingerprint) (*entity.EnrichmentResult, bool, error) {
	e, ok := m.entries.Get(fp.ExactHash)
	if !ok {
		return nil, false, nil
	}
	if e.expired(m.now()) {
		m.entries.Remove(fp.ExactHash)
		return nil, false, nil
	}
	res := e.result
	return &res, true, nil
}

func (m *Memory) Put(_ context.Context, fp entity.Fingerprint, res *entity.EnrichmentResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.entries.Add(fp.ExactHash, memoryEntry{result: *res, cachedAt: m.now(), ttl: ttl})
	return nil
}

// Len reports the number of resident entries, expired or not.
func (m *Memory) Len() int {
	return m.entries.Len()
}
