package transport

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInFlightRegistryRegisterAndCancel(t *testing.T) {
	r := NewInFlightRegistry()

	cancelled := false
	r.Register("req_abc123", func() { cancelled = true })

	assert.True(t, r.Cancel("req_abc123"), "Cancel should return true for registered ID")
	assert.True(t, cancelled, "cancel function should have been called")

	// Second cancel should return false (already removed).
	assert.False(t, r.Cancel("req_abc123"), "Cancel should return false after already cancelled")
}

func TestInFlightRegistryCancelUnknown(t *testing.T) {
	r := NewInFlightRegistry()

	assert.False(t, r.Cancel("req_nonexistent"))
}

func TestInFlightRegistryRemove(t *testing.T) {
	r := NewInFlightRegistry()

	cancelled := false
	r.Register("req_abc123", func() { cancelled = true })

	r.Remove("req_abc123")

	assert.False(t, r.Cancel("req_abc123"), "Cancel should return false after Remove")
	assert.False(t, cancelled, "cancel function should not have been called by Remove")
}

func TestInFlightRegistryRemoveUnknown(t *testing.T) {
	r := NewInFlightRegistry()
	assert.NotPanics(t, func() { r.Remove("req_nonexistent") })
}

func TestInFlightRegistryConcurrentAccess(t *testing.T) {
	r := NewInFlightRegistry()
	var cancelCount atomic.Int64
	const numEntries = 100

	// Register entries concurrently.
	var wg sync.WaitGroup
	for i := 0; i < numEntries; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			r.Register(id, func() { cancelCount.Add(1) })
		}(idForIndex(i))
	}
	wg.Wait()

	// Cancel half concurrently.
	for i := 0; i < numEntries/2; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			r.Cancel(id)
		}(idForIndex(i))
	}
	wg.Wait()

	assert.Equal(t, int64(numEntries/2), cancelCount.Load())

	// Remove the other half concurrently.
	for i := numEntries / 2; i < numEntries; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			r.Remove(id)
		}(idForIndex(i))
	}
	wg.Wait()
	assert.Zero(t, r.Len())
}

func TestInFlightRegistryCancelAll(t *testing.T) {
	r := NewInFlightRegistry()
	var cancelCount atomic.Int64

	for i := 0; i < 5; i++ {
		r.Register(idForIndex(i), func() { cancelCount.Add(1) })
	}
	require.Equal(t, 5, r.Len())

	assert.Equal(t, 5, r.CancelAll())
	assert.Equal(t, int64(5), cancelCount.Load())
	assert.Zero(t, r.Len(), "Len() after CancelAll")
	assert.Zero(t, r.CancelAll(), "second CancelAll()")
}

func idForIndex(i int) string {
	return "req_" + string(rune('A'+i%26)) + string(rune('0'+i/26))
}
