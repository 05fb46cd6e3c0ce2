package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the production Log: one INSERT per entry into
// umt.audit_log, using a bare pgxpool.Pool since this table has no
// other access pattern worth an ORM.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore { return &PGStore{pool: pool} }

func (s *PGStore) Record(ctx context.Context, e Entry) error {
	detail, err := json.Marshal(e.Detail)
	if err != nil {
		return fmt.Errorf("audit: marshal detail: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO umt.audit_log
			(entry_id, brand_id, actor_id, action, target_type, target_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.EntryID, e.BrandID, e.ActorID, e.Action, e.TargetType, e.TargetID, detail, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit: insert entry: %w", err)
	}
	return nil
}
