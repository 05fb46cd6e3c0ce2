package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemLog_RecordsInOrder(t *testing.T) {
	log := NewMemLog()
	ctx := context.Background()

	require.NoError(t, log.Record(ctx, NewEntry("b1", "auth_integration", "integration.setup", "integration", "i1", nil)))
	require.NoError(t, log.Record(ctx, NewEntry("b1", "auth_integration", "integration.refresh", "integration", "i1", map[string]any{"ok": true})))

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "integration.setup", entries[0].Action)
	assert.Equal(t, "integration.refresh", entries[1].Action)
	assert.NotEmpty(t, entries[0].EntryID)
	assert.NotEqual(t, entries[0].EntryID, entries[1].EntryID)
}
