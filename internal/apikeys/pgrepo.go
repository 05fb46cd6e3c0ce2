package apikeys

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository is the production Repository backed by umt.api_keys,
// using a bare pgxpool.Pool like audit.PGStore (no ORM needed for
// this table's single access pattern: create, list, touch).
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository { return &PGRepository{pool: pool} }

func (r *PGRepository) Create(ctx context.Context, k *Key) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO umt.api_keys
			(key_id, brand_id, name, secret_hash, scopes, rate_limit, active, created_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, k.KeyID, k.BrandID, k.Name, k.SecretHash, k.Scopes, k.RateLimit, k.Active, k.CreatedBy, k.ExpiresAt, k.CreatedAt)
	if err != nil {
		return fmt.Errorf("apikeys: insert: %w", err)
	}
	return nil
}

func (r *PGRepository) ListByBrand(ctx context.Context, brandID string) ([]*Key, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT key_id, brand_id, name, secret_hash, scopes, rate_limit, active, created_by, expires_at, last_used_at, created_at
		FROM umt.api_keys WHERE brand_id = $1
	`, brandID)
	if err != nil {
		return nil, fmt.Errorf("apikeys: query by brand: %w", err)
	}
	defer rows.Close()
	return scanKeys(rows)
}

func (r *PGRepository) ListActive(ctx context.Context) ([]*Key, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT key_id, brand_id, name, secret_hash, scopes, rate_limit, active, created_by, expires_at, last_used_at, created_at
		FROM umt.api_keys WHERE active
	`)
	if err != nil {
		return nil, fmt.Errorf("apikeys: query active: %w", err)
	}
	defer rows.Close()
	return scanKeys(rows)
}

func (r *PGRepository) Touch(ctx context.Context, keyID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE umt.api_keys SET last_used_at = $2 WHERE key_id = $1`, keyID, at)
	if err != nil {
		return fmt.Errorf("apikeys: touch: %w", err)
	}
	return nil
}

func scanKeys(rows pgx.Rows) ([]*Key, error) {
	var out []*Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.KeyID, &k.BrandID, &k.Name, &k.SecretHash, &k.Scopes, &k.RateLimit,
			&k.Active, &k.CreatedBy, &k.ExpiresAt, &k.LastUsedAt, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("apikeys: scan: %w", err)
		}
		out = append(out, &k)
	}
	return out, rows.Err()
}
