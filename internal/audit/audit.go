// Package audit implements an append-only audit log: every agent
// handler that mutates brand, project, integration, or content state
// records one Entry. There is no update or delete path — a correction
// is a new Entry, never an edit of an old one.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one umt.audit_log row.
type Entry struct {
	EntryID    string
	BrandID    string
	ActorID    string // user id, agent id, or "system" for timer-driven entries
	Action     string // e.g. "integration.setup", "brand.onboard", "content.publish"
	TargetType string // e.g. "integration", "brand", "project", "content"
	TargetID   string
	Detail     map[string]any
	CreatedAt  time.Time
}

// Log records audit entries. The runner wires a pgx-backed
// implementation (internal/audit/pgstore.go); tests substitute
// NewMemLog.
type Log interface {
	Record(ctx context.Context, e Entry) error
}

// NewEntry fills EntryID/CreatedAt, the two fields callers never set
// themselves.
func NewEntry(brandID, actorID, action, targetType, targetID string, detail map[string]any) Entry {
	return Entry{
		EntryID:    uuid.NewString(),
		BrandID:    brandID,
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}
}
