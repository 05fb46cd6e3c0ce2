package keyedmutex

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLock_SerializesSameKey(t *testing.T) {
	m := New()
	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("b1/linkedin")
			defer unlock()
			n := atomic.AddInt32(&active, 1)
			if n > atomic.LoadInt32(&maxActive) {
				atomic.StoreInt32(&maxActive, n)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxActive)
}

func TestLock_DifferentKeysRunConcurrently(t *testing.T) {
	m := New()
	start := make(chan struct{})
	var wg sync.WaitGroup
	results := make(chan time.Duration, 2)

	for _, key := range []string{"b1/linkedin", "b1/wordpress"} {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			<-start
			t0 := time.Now()
			unlock := m.Lock(k)
			defer unlock()
			time.Sleep(20 * time.Millisecond)
			results <- time.Since(t0)
		}(key)
	}
	close(start)
	wg.Wait()
	close(results)

	for d := range results {
		assert.Less(t, d, 60*time.Millisecond, "unrelated keys should not wait on each other")
	}
}
