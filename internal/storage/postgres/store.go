// Package postgres is the optional database backend. It implements the
// same store and ledger contracts as the file backend: inserts are
// append-only (ON CONFLICT DO NOTHING, no updates or deletes) and the
// seen-ID set only grows.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"marketwatch/internal/domain"
)

type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:  db,
		now: time.Now,
	}
}

// AppendListings inserts the batch in one transaction so a partial batch
// is never visible. The full enriched record is stored as JSONB; the
// risk score is denormalized for querying.
func (s *Store) AppendListings(ctx context.Context, listings []domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO listings (listing_id, observed_day, risk_score, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (listing_id) DO NOTHING`

	day := s.now().UTC().Truncate(24 * time.Hour)

	for i := range listings {
		l := &listings[i]

		payload, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("marshal listing %s: %w", l.ID, err)
		}

		riskScore := 0
		if l.Enrichment != nil {
			riskScore = l.Enrichment.RiskScore
		}

		if _, err := tx.ExecContext(ctx, query, l.ID, day, riskScore, payload); err != nil {
			return fmt.Errorf("insert listing %s: %w", l.ID, err)
		}
	}

	return tx.Commit()
}

// LoadSeen returns every listing ID ever recorded. An empty table is the
// expected first-run state.
func (s *Store) LoadSeen(ctx context.Context) (map[string]struct{}, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, "SELECT listing_id FROM seen_ids"); err != nil {
		return nil, fmt.Errorf("select seen ids: %w", err)
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// AppendSeen records new IDs. Re-appending an ID is a no-op, which makes
// the call safe to repeat across process restarts.
func (s *Store) AppendSeen(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		INSERT INTO seen_ids (listing_id)
		SELECT unnest($1::text[])
		ON CONFLICT (listing_id) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("insert seen ids: %w", err)
	}
	return nil
}
