package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DedupeRecordRepoImpl provides a PostgreSQL implementation of the
// repository.DedupeStore interface, so fingerprint clusters survive process
// restarts.
//
// Expected schema:
//
//	CREATE TABLE dedupe_records (
//	    exact_hash            TEXT PRIMARY KEY,
//	    simhash               BIGINT NOT NULL,
//	    canonical_document_id TEXT NOT NULL,
//	    first_seen_at         TIMESTAMPTZ NOT NULL
//	);
type DedupeRecordRepoImpl struct {
	db *pgxpool.Pool
}

// NewDedupeRecordRepo creates a new instance of DedupeRecordRepoImpl.
func NewDedupeRecordRepo(db *pgxpool.Pool) *DedupeRecordRepoImpl {
	return &DedupeRecordRepoImpl{db: db}
}

// Save persists a canonical record. Re-saving an existing fingerprint is a
// no-op: the first sighting owns the cluster.
func (r *DedupeRecordRepoImpl) Save(ctx context.Context, rec *entity.DedupeRecord) error {
	query, args, err := psql.
		Insert("dedupe_records").
		Columns("exact_hash", "simhash", "canonical_document_id", "first_seen_at").
		Values(rec.Fingerprint.ExactHash, int64(rec.Fingerprint.SimHash), rec.CanonicalID, rec.FirstSeenAt).
		Suffix("ON CONFLICT (exact_hash) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build dedupe insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save dedupe record %s: %w", rec.Fingerprint.ExactHash, err)
	}
	return nil
}

// LoadAll returns every persisted record for warming the in-memory index.
func (r *DedupeRecordRepoImpl) LoadAll(ctx context.Context) ([]*entity.DedupeRecord, error) {
	query, args, err := psql.
		Select("exact_hash", "simhash", "canonical_document_id", "first_seen_at").
		From("dedupe_records").
		OrderBy("first_seen_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build dedupe select: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load dedupe records: %w", err)
	}
	defer rows.Close()

	var recs []*entity.DedupeRecord
	for rows.Next() {
		var rec entity.DedupeRecord
		var simhash int64
		if err := rows.Scan(&rec.Fingerprint.ExactHash, &simhash, &rec.CanonicalID, &rec.FirstSeenAt); err != nil {
			return nil, fmt.Errorf("scan dedupe record: %w", err)
		}
		rec.Fingerprint.SimHash = uint64(simhash)
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}
