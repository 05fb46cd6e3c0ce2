package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umt-agenthub/core/internal/errkind"
)

func TestIssueThenVerify_RoundTrips(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", "HS256", time.Hour)

	token, err := issuer.Issue("user-1", []string{"read:content", "write:content"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Verify(token, "write:content")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Contains(t, claims.Scopes, "write:content")
}

func TestIssue_RejectsEmptyUserID(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", "HS256", time.Hour)

	_, err := issuer.Issue("", nil)
	require.Error(t, err)
	assert.Equal(t, errkind.Validation, err.(*errkind.Error).Kind)
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", "HS256", time.Hour)
	other := NewSessionIssuer("other-secret", "HS256", time.Hour)

	token, err := issuer.Issue("user-1", nil)
	require.NoError(t, err)

	_, err = other.Verify(token, "")
	require.Error(t, err)
	assert.Equal(t, errkind.AuthN, err.(*errkind.Error).Kind)
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", "HS256", -time.Minute)

	token, err := issuer.Issue("user-1", nil)
	require.NoError(t, err)

	_, err = issuer.Verify(token, "")
	require.Error(t, err)
	assert.Equal(t, errkind.AuthN, err.(*errkind.Error).Kind)
}

func TestVerify_RejectsMissingScope(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", "HS256", time.Hour)

	token, err := issuer.Issue("user-1", []string{"read:content"})
	require.NoError(t, err)

	_, err = issuer.Verify(token, "write:content")
	require.Error(t, err)
	assert.Equal(t, errkind.AuthZ, err.(*errkind.Error).Kind)
}

func TestNewSessionIssuer_FallsBackToHS256ForUnknownAlgorithm(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", "not-a-real-algorithm", time.Hour)

	token, err := issuer.Issue("user-1", nil)
	require.NoError(t, err)

	_, err = issuer.Verify(token, "")
	assert.NoError(t, err)
}
