package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umt-agenthub/core/internal/errkind"
)

func TestValidate_RejectsBothTaskAndEvent(t *testing.T) {
	m := &Message{
		MessageID: "m1",
		TaskID:    "t1", TaskType: "onboard_brand", TargetAgentID: "brand_project",
		EventID: "e1", EventType: "content.published",
	}
	err := m.Validate()
	require.Error(t, err)
	ke, ok := errkind.As(err)
	require.True(t, ok)
	assert.Equal(t, errkind.Validation, ke.Kind)
}

func TestValidate_RejectsNeitherTaskNorEvent(t *testing.T) {
	m := &Message{MessageID: "m1"}
	assert.Error(t, m.Validate())
}

func TestValidate_AcceptsTaskEnvelope(t *testing.T) {
	m := NewTask("strategy", "brand_project", "get_brand_info", map[string]any{"brand_id": "b1"})
	assert.NoError(t, m.Validate())
	assert.Equal(t, KindTask, m.Classify())
}

func TestValidate_AcceptsEventEnvelope(t *testing.T) {
	m := NewEvent("brand_project", "content.published", map[string]any{"content_id": "c1"})
	assert.NoError(t, m.Validate())
	assert.Equal(t, KindEvent, m.Classify())
}

func TestResponseCorrelation(t *testing.T) {
	req := NewTask("strategy", "brand_project", "get_brand_info", nil)
	resp := NewSuccess(req, "brand_project", map[string]any{"name": "Acme"})
	assert.Equal(t, req.MessageID, resp.ResponseTo)
	assert.Equal(t, KindResponse, resp.Classify())
}

func TestErrorRoundTrip(t *testing.T) {
	req := NewTask("strategy", "auth_integration", "refresh_oauth_token", nil)
	srcErr := errkind.New(errkind.AuthN, "token revoked").WithMeta("auth_error", true)
	resp := NewError(req, "auth_integration", srcErr)

	reconstructed := resp.Err()
	ke, ok := errkind.As(reconstructed)
	require.True(t, ok)
	assert.Equal(t, errkind.AuthN, ke.Kind)
	assert.Equal(t, true, ke.Meta["auth_error"])
}
