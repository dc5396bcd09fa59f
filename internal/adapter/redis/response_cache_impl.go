package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

const enrichmentKeyPrefix = "enrichment:"

// ResponseCacheImpl provides a Redis-backed implementation of the
// repository.ResponseCache interface, for deployments where multiple pipeline
// processes should share one cache. Expiry is server-side via key TTL.
type ResponseCacheImpl struct {
	client *redis.Client
}

// NewResponseCache creates a new instance of ResponseCacheImpl.
func NewResponseCache(client *redis.Client) *ResponseCacheImpl {
	return &ResponseCacheImpl{client: client}
}

func (r *ResponseCacheImpl) key(fp entity.Fingerprint) string {
	return fmt.Sprintf("%s%s", enrichmentKeyPrefix, fp.ExactHash)
}

// Get returns the cached enrichment result for a fingerprint, if present and
// not yet expired.
func (r *ResponseCacheImpl) Get(ctx context.Context, fp entity.Fingerprint) (*entity.EnrichmentResult, bool, error) {
	payload, err := r.client.Get(ctx, r.key(fp)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get %s: %w", fp.ExactHash, err)
	}

	var res entity.EnrichmentResult
	if err := json.Unmarshal(payload, &res); err != nil {
		// A corrupt entry counts as a miss; the slot will be overwritten.
		return nil, false, nil
	}
	return &res, true, nil
}

// Put stores the result under the fingerprint key with the given TTL.
// Last writer wins.
func (r *ResponseCacheImpl) Put(ctx context.Context, fp entity.Fingerprint, res *entity.EnrichmentResult, ttl time.Duration) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", fp.ExactHash, err)
	}
	return r.client.Set(ctx, r.key(fp), payload, ttl).Err()
}
