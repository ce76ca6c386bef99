// ABOUTME: Tests for the webhook redelivery cache
// ABOUTME: Covers the seen window, expiry, capacity eviction and concurrency

package dedupe

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_CheckAndMark(t *testing.T) {
	c := New(time.Minute, 100)

	assert.False(t, c.CheckAndMark("SM123"), "first sighting is not a duplicate")
	assert.True(t, c.CheckAndMark("SM123"), "second sighting is a redelivery")
	assert.False(t, c.CheckAndMark("SM456"), "different SID is independent")
}

func TestCache_Expiry(t *testing.T) {
	c := New(20*time.Millisecond, 100)

	assert.False(t, c.CheckAndMark("SM123"))
	time.Sleep(30 * time.Millisecond)
	assert.False(t, c.CheckAndMark("SM123"), "an expired SID is treated as new")
}

func TestCache_CapacityEviction(t *testing.T) {
	c := New(time.Hour, 3)

	for i := 0; i < 5; i++ {
		c.CheckAndMark(fmt.Sprintf("SM%d", i))
	}

	assert.LessOrEqual(t, c.Len(), 3)
	// The oldest entries were evicted and read as new again
	assert.False(t, c.CheckAndMark("SM0"))
	// The newest survivor is still a duplicate
	assert.True(t, c.CheckAndMark("SM4"))
}

func TestCache_Defaults(t *testing.T) {
	c := New(0, 0)
	assert.Equal(t, DefaultTTL, c.ttl)
	assert.Equal(t, DefaultMaxSize, c.maxSize)
}

func TestCache_ConcurrentMarking(t *testing.T) {
	c := New(time.Minute, 1000)

	const goroutines = 20
	duplicates := make([]bool, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			duplicates[i] = c.CheckAndMark("SM-contended")
		}(i)
	}
	wg.Wait()

	fresh := 0
	for _, dup := range duplicates {
		if !dup {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh, "exactly one caller wins the first sighting")
}
