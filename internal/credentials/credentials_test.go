package credentials

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := NewStore("test-process-secret")
	require.NoError(t, err)

	f, err := s.Seal("my-access-token")
	require.NoError(t, err)

	got, err := s.Open(f)
	require.NoError(t, err)
	assert.Equal(t, "my-access-token", got)
}

func TestSealIsNonDeterministic(t *testing.T) {
	s, err := NewStore("test-process-secret")
	require.NoError(t, err)

	a, err := s.Seal("same-plaintext")
	require.NoError(t, err)
	b, err := s.Seal("same-plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, a.Blob, b.Blob)
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	s, err := NewStore("test-process-secret")
	require.NoError(t, err)

	f, err := s.Seal("secret-value")
	require.NoError(t, err)
	f.Blob[len(f.Blob)-1] ^= 0xFF

	_, err = s.Open(f)
	assert.Error(t, err)
}

func TestNewStoreRejectsEmptySecret(t *testing.T) {
	_, err := NewStore("")
	assert.Error(t, err)
}

type memRepo struct {
	mu   sync.Mutex
	byID map[string]*Integration
}

func newMemRepo() *memRepo { return &memRepo{byID: make(map[string]*Integration)} }

func (r *memRepo) Get(_ context.Context, id string) (*Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *in
	return &cp, nil
}
func (r *memRepo) ListByBrand(_ context.Context, brandID string) ([]*Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Integration
	for _, in := range r.byID {
		if in.BrandID == brandID {
			out = append(out, in)
		}
	}
	return out, nil
}
func (r *memRepo) ListAll(_ context.Context) ([]*Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Integration, 0, len(r.byID))
	for _, in := range r.byID {
		out = append(out, in)
	}
	return out, nil
}
func (r *memRepo) Create(_ context.Context, in *Integration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[in.IntegrationID] = in
	return nil
}
func (r *memRepo) Update(_ context.Context, in *Integration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[in.IntegrationID] = in
	return nil
}
func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

type fakeRefresher struct {
	calls int32
	mu    sync.Mutex
	delay time.Duration
}

func (f *fakeRefresher) Refresh(_ context.Context, _ *Integration, _ string) (RefreshResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return RefreshResult{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func TestRefreshIfDue_SkipsWhenNotExpiring(t *testing.T) {
	s, err := NewStore("secret")
	require.NoError(t, err)
	repo := newMemRepo()
	far := time.Now().Add(2 * time.Hour)
	seeded, err := s.Seal("refresh-token")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), &Integration{
		IntegrationID: "i1", BrandID: "b1", Platform: "linkedin",
		Credentials:    map[string]Field{"refresh_token": seeded},
		TokenExpiresAt: &far,
	}))

	c := NewRefreshCoordinator(s, repo, nil)
	fr := &fakeRefresher{}
	c.Register("linkedin", fr)

	require.NoError(t, c.RefreshIfDue(context.Background(), "i1"))
	assert.Equal(t, int32(0), fr.calls)
}

func TestRefreshIfDue_RefreshesWhenWithinWindow(t *testing.T) {
	s, err := NewStore("secret")
	require.NoError(t, err)
	repo := newMemRepo()
	soon := time.Now().Add(time.Minute)
	seeded, err := s.Seal("refresh-token")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), &Integration{
		IntegrationID: "i1", BrandID: "b1", Platform: "linkedin",
		Credentials:    map[string]Field{"refresh_token": seeded},
		TokenExpiresAt: &soon,
	}))

	c := NewRefreshCoordinator(s, repo, nil)
	fr := &fakeRefresher{}
	c.Register("linkedin", fr)

	require.NoError(t, c.RefreshIfDue(context.Background(), "i1"))
	assert.Equal(t, int32(1), fr.calls)

	updated, err := repo.Get(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, HealthHealthy, updated.HealthStatus)
	assert.Equal(t, 0, updated.ConsecutiveFailures)
}

func TestForceRefresh_CoalescesConcurrentCallers(t *testing.T) {
	s, err := NewStore("secret")
	require.NoError(t, err)
	repo := newMemRepo()
	seeded, err := s.Seal("refresh-token")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), &Integration{
		IntegrationID: "i1", BrandID: "b1", Platform: "linkedin",
		Credentials: map[string]Field{"refresh_token": seeded},
	}))

	c := NewRefreshCoordinator(s, repo, nil)
	fr := &fakeRefresher{delay: 50 * time.Millisecond}
	c.Register("linkedin", fr)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.ForceRefresh(context.Background(), "i1")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fr.calls, "singleflight should coalesce concurrent refreshes into one provider call")
}

func TestRefreshFailure_DegradesThenUnhealthies(t *testing.T) {
	s, err := NewStore("secret")
	require.NoError(t, err)
	repo := newMemRepo()
	seeded, err := s.Seal("refresh-token")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), &Integration{
		IntegrationID: "i1", BrandID: "b1", Platform: "twitter",
		Credentials: map[string]Field{"refresh_token": seeded},
	}))

	c := NewRefreshCoordinator(s, repo, nil)
	c.Register("twitter", failingRefresher{})

	err = c.ForceRefresh(context.Background(), "i1")
	require.Error(t, err)
	in, _ := repo.Get(context.Background(), "i1")
	assert.Equal(t, HealthDegraded, in.HealthStatus)

	err = c.ForceRefresh(context.Background(), "i1")
	require.Error(t, err)
	in, _ = repo.Get(context.Background(), "i1")
	assert.Equal(t, HealthUnhealthy, in.HealthStatus)
}

type failingRefresher struct{}

func (failingRefresher) Refresh(_ context.Context, _ *Integration, _ string) (RefreshResult, error) {
	return RefreshResult{}, errors.New("provider rejected refresh token")
}
