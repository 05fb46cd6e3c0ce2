package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_ClosedByDefault(t *testing.T) {
	r := NewRegistry(Config{})
	assert.NoError(t, r.Allow("agent/handler"))
}

func TestTripsOpenAfterThreshold(t *testing.T) {
	r := NewRegistry(Config{FailureThreshold: 3, Window: time.Minute, OpenDuration: time.Minute})
	key := "strategy/ai_content_generation"

	for i := 0; i < 2; i++ {
		require.NoError(t, r.Allow(key))
		r.RecordFailure(key)
	}
	assert.Equal(t, Closed, r.State(key))

	require.NoError(t, r.Allow(key))
	r.RecordFailure(key)
	assert.Equal(t, Open, r.State(key))

	err := r.Allow(key)
	var openErr *ErrOpen
	require.ErrorAs(t, err, &openErr)
}

func TestHalfOpenAfterDuration_ProbeSuccessCloses(t *testing.T) {
	r := NewRegistry(Config{FailureThreshold: 1, Window: time.Minute, OpenDuration: 20 * time.Millisecond})
	key := "k"
	require.NoError(t, r.Allow(key))
	r.RecordFailure(key)
	assert.Equal(t, Open, r.State(key))

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, r.Allow(key), "half-open should admit exactly one probe")
	r.RecordSuccess(key)
	assert.Equal(t, Closed, r.State(key))
}

func TestHalfOpenProbeFailureReopens(t *testing.T) {
	r := NewRegistry(Config{FailureThreshold: 1, Window: time.Minute, OpenDuration: 20 * time.Millisecond})
	key := "k"
	require.NoError(t, r.Allow(key))
	r.RecordFailure(key)

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, r.Allow(key))
	r.RecordFailure(key)
	assert.Equal(t, Open, r.State(key))
}

func TestHalfOpenAdmitsOnlyOneConcurrentProbe(t *testing.T) {
	r := NewRegistry(Config{FailureThreshold: 1, Window: time.Minute, OpenDuration: 10 * time.Millisecond})
	key := "k"
	require.NoError(t, r.Allow(key))
	r.RecordFailure(key)
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, r.Allow(key))
	err := r.Allow(key)
	assert.Error(t, err, "a second caller during the same half-open window must be failed fast")
}

func TestFailuresOutsideWindowDoNotAccumulate(t *testing.T) {
	r := NewRegistry(Config{FailureThreshold: 2, Window: 15 * time.Millisecond, OpenDuration: time.Minute})
	key := "k"
	require.NoError(t, r.Allow(key))
	r.RecordFailure(key)

	time.Sleep(25 * time.Millisecond)

	require.NoError(t, r.Allow(key))
	r.RecordFailure(key)
	assert.Equal(t, Closed, r.State(key), "the first failure should have aged out of the window")
}
