package repository

import (
	"context"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

// DedupeStore persists canonical fingerprint records so dedupe survives across
// runs. The in-memory index remains the source of truth during a run; the
// store is a write-through backing.
type DedupeStore interface {
	// Save persists a newly established canonical record. Saving an already
	// persisted fingerprint is a no-op.
	Save(ctx context.Context, rec *entity.DedupeRecord) error
	// LoadAll returns every persisted record, used to warm the index at startup.
	LoadAll(ctx context.Context) ([]*entity.DedupeRecord, error)
}
