package apikeys

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umt-agenthub/core/internal/cache"
)

type memRepo struct {
	mu   sync.Mutex
	keys map[string]*Key
}

func newMemRepo() *memRepo { return &memRepo{keys: make(map[string]*Key)} }

func (r *memRepo) Create(_ context.Context, k *Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[k.KeyID] = k
	return nil
}
func (r *memRepo) ListByBrand(_ context.Context, brandID string) ([]*Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Key
	for _, k := range r.keys {
		if k.BrandID == brandID {
			out = append(out, k)
		}
	}
	return out, nil
}
func (r *memRepo) ListActive(_ context.Context) ([]*Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Key
	for _, k := range r.keys {
		out = append(out, k)
	}
	return out, nil
}
func (r *memRepo) Touch(_ context.Context, keyID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if k, ok := r.keys[keyID]; ok {
		k.LastUsedAt = &at
	}
	return nil
}

func TestCreate_ReturnsSecretExactlyOnceAndNeverStoresIt(t *testing.T) {
	repo := newMemRepo()
	m := NewManager(repo, nil)

	res, err := m.Create(context.Background(), "b1", "ci-deploy-key", []string{"read:content"}, 60, "user-1", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Secret)

	stored := repo.keys[res.KeyID]
	require.NotNil(t, stored)
	assert.NotEqual(t, res.Secret, stored.SecretHash)
}

func TestValidate_AcceptsCorrectSecret(t *testing.T) {
	repo := newMemRepo()
	m := NewManager(repo, nil)
	res, err := m.Create(context.Background(), "b1", "k1", []string{"read:webhooks"}, 60, "u1", nil)
	require.NoError(t, err)

	got, err := m.Validate(context.Background(), res.Secret, "read:webhooks")
	require.NoError(t, err)
	assert.Equal(t, res.KeyID, got.KeyID)
}

func TestValidate_RejectsWrongSecret(t *testing.T) {
	repo := newMemRepo()
	m := NewManager(repo, nil)
	_, err := m.Create(context.Background(), "b1", "k1", nil, 60, "u1", nil)
	require.NoError(t, err)

	_, err = m.Validate(context.Background(), "not-the-secret", "")
	assert.Error(t, err)
}

func TestValidate_RejectsExpiredKey(t *testing.T) {
	repo := newMemRepo()
	m := NewManager(repo, nil)
	past := time.Now().Add(-time.Hour)
	res, err := m.Create(context.Background(), "b1", "k1", nil, 60, "u1", &past)
	require.NoError(t, err)

	_, err = m.Validate(context.Background(), res.Secret, "")
	assert.Error(t, err)
}

func TestValidate_RejectsMissingScope(t *testing.T) {
	repo := newMemRepo()
	m := NewManager(repo, nil)
	res, err := m.Create(context.Background(), "b1", "k1", []string{"read:content"}, 60, "u1", nil)
	require.NoError(t, err)

	_, err = m.Validate(context.Background(), res.Secret, "write:campaigns")
	assert.Error(t, err)
}

func TestCheck_FailsOpenWithoutCacheBackend(t *testing.T) {
	m := NewManager(newMemRepo(), nil)
	result, err := m.Check(context.Background(), &Key{KeyID: "k1", RateLimit: 5})
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, "disabled", result.RateLimiting)
}

func TestCheck_EnforcesLimitWithCacheBackend(t *testing.T) {
	m := NewManager(newMemRepo(), cache.NewMemCache())
	k := &Key{KeyID: "k1", RateLimit: 2}

	r1, err := m.Check(context.Background(), k)
	require.NoError(t, err)
	assert.True(t, r1.Allowed)

	r2, err := m.Check(context.Background(), k)
	require.NoError(t, err)
	assert.True(t, r2.Allowed)

	r3, err := m.Check(context.Background(), k)
	require.NoError(t, err)
	assert.False(t, r3.Allowed)
	assert.Equal(t, "enabled", r3.RateLimiting)
}
