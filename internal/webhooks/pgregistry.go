package webhooks

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRegistry is the production Registry+Writer backed by
// umt.webhooks, using a bare pgxpool.Pool.
type PGRegistry struct {
	pool *pgxpool.Pool
}

func NewPGRegistry(pool *pgxpool.Pool) *PGRegistry { return &PGRegistry{pool: pool} }

func (r *PGRegistry) Register(ctx context.Context, w Webhook) (Webhook, error) {
	if w.WebhookID == "" {
		w.WebhookID = NewWebhookID()
	}
	w.Active = true
	_, err := r.pool.Exec(ctx, `
		INSERT INTO umt.webhooks (webhook_id, brand_id, url, event_types, secret, active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, w.WebhookID, w.BrandID, w.URL, w.EventTypes, w.Secret, w.Active)
	if err != nil {
		return Webhook{}, fmt.Errorf("webhooks: insert: %w", err)
	}
	return w, nil
}

func (r *PGRegistry) Unregister(ctx context.Context, webhookID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE umt.webhooks SET active = false WHERE webhook_id = $1`, webhookID)
	if err != nil {
		return fmt.Errorf("webhooks: deactivate: %w", err)
	}
	return nil
}

// Subscribers matches rows whose event_types contains either eventType
// or the wildcard entry (spec §8 invariant 3: E ∈ subscribed_events ∨
// * ∈ subscribed_events).
func (r *PGRegistry) Subscribers(ctx context.Context, brandID, eventType string) ([]Webhook, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT webhook_id, brand_id, url, event_types, secret, active
		FROM umt.webhooks
		WHERE brand_id = $1 AND active AND (event_types @> ARRAY[$2::text] OR event_types @> ARRAY[$3::text])
	`, brandID, eventType, WildcardEventType)
	if err != nil {
		return nil, fmt.Errorf("webhooks: query subscribers: %w", err)
	}
	defer rows.Close()

	var out []Webhook
	for rows.Next() {
		var w Webhook
		if err := rows.Scan(&w.WebhookID, &w.BrandID, &w.URL, &w.EventTypes, &w.Secret, &w.Active); err != nil {
			return nil, fmt.Errorf("webhooks: scan subscriber: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
