package credentials

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository is the production Repository backed by
// umt.integration_health: what used to be separate
// social_accounts/cms_accounts/ad_accounts tables unified into one,
// so one repository covers all three categories, using a bare
// pgxpool.Pool like audit.PGStore.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository { return &PGRepository{pool: pool} }

// sealedFields is Integration.Credentials encoded for a jsonb column:
// each Field's blob travels as-is, json.Marshal base64-encodes a
// []byte automatically.
type sealedFields map[string]Field

func (r *PGRepository) Get(ctx context.Context, integrationID string) (*Integration, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT integration_id, brand_id, platform, category, credentials, health_status,
		       last_health_check, token_expires_at, consecutive_failures, created_at, updated_at
		FROM umt.integration_health WHERE integration_id = $1
	`, integrationID)
	return scanIntegration(row)
}

func (r *PGRepository) ListByBrand(ctx context.Context, brandID string) ([]*Integration, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT integration_id, brand_id, platform, category, credentials, health_status,
		       last_health_check, token_expires_at, consecutive_failures, created_at, updated_at
		FROM umt.integration_health WHERE brand_id = $1
	`, brandID)
	if err != nil {
		return nil, fmt.Errorf("credentials: query by brand: %w", err)
	}
	defer rows.Close()
	return scanIntegrations(rows)
}

func (r *PGRepository) ListAll(ctx context.Context) ([]*Integration, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT integration_id, brand_id, platform, category, credentials, health_status,
		       last_health_check, token_expires_at, consecutive_failures, created_at, updated_at
		FROM umt.integration_health
	`)
	if err != nil {
		return nil, fmt.Errorf("credentials: query all: %w", err)
	}
	defer rows.Close()
	return scanIntegrations(rows)
}

func (r *PGRepository) Create(ctx context.Context, in *Integration) error {
	creds, err := json.Marshal(sealedFields(in.Credentials))
	if err != nil {
		return fmt.Errorf("credentials: marshal fields: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO umt.integration_health
			(integration_id, brand_id, platform, category, credentials, health_status,
			 last_health_check, token_expires_at, consecutive_failures, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, in.IntegrationID, in.BrandID, in.Platform, in.Category, creds, in.HealthStatus,
		in.LastHealthCheck, in.TokenExpiresAt, in.ConsecutiveFailures, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		return fmt.Errorf("credentials: insert: %w", err)
	}
	return nil
}

func (r *PGRepository) Update(ctx context.Context, in *Integration) error {
	creds, err := json.Marshal(sealedFields(in.Credentials))
	if err != nil {
		return fmt.Errorf("credentials: marshal fields: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE umt.integration_health SET
			platform = $2, category = $3, credentials = $4, health_status = $5,
			last_health_check = $6, token_expires_at = $7, consecutive_failures = $8, updated_at = $9
		WHERE integration_id = $1
	`, in.IntegrationID, in.Platform, in.Category, creds, in.HealthStatus,
		in.LastHealthCheck, in.TokenExpiresAt, in.ConsecutiveFailures, in.UpdatedAt)
	if err != nil {
		return fmt.Errorf("credentials: update: %w", err)
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, integrationID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM umt.integration_health WHERE integration_id = $1`, integrationID)
	if err != nil {
		return fmt.Errorf("credentials: delete: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntegration(row rowScanner) (*Integration, error) {
	var in Integration
	var creds []byte
	if err := row.Scan(&in.IntegrationID, &in.BrandID, &in.Platform, &in.Category, &creds, &in.HealthStatus,
		&in.LastHealthCheck, &in.TokenExpiresAt, &in.ConsecutiveFailures, &in.CreatedAt, &in.UpdatedAt); err != nil {
		return nil, fmt.Errorf("credentials: scan: %w", err)
	}
	var fields sealedFields
	if err := json.Unmarshal(creds, &fields); err != nil {
		return nil, fmt.Errorf("credentials: unmarshal fields: %w", err)
	}
	in.Credentials = fields
	return &in, nil
}

func scanIntegrations(rows pgx.Rows) ([]*Integration, error) {
	var out []*Integration
	for rows.Next() {
		in, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
