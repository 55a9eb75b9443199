package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_Sequence(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())

	for want := int64(1); want <= 3; want++ {
		assert.Equal(t, want, clock.Next())
	}
	assert.Equal(t, int64(3), clock.Current())
	assert.Equal(t, []int64{1, 2, 3}, clock.Issued())
}

func TestDeterministicClock_IssuedIsACopy(t *testing.T) {
	clock := NewDeterministicClock()
	clock.Next()

	got := clock.Issued()
	got[0] = 99
	assert.Equal(t, []int64{1}, clock.Issued())
}

func TestDeterministicClock_ResetReplays(t *testing.T) {
	clock := NewDeterministicClock()
	first := []int64{clock.Next(), clock.Next()}

	clock.Reset()
	assert.Empty(t, clock.Issued())
	assert.Equal(t, int64(0), clock.Current())

	second := []int64{clock.Next(), clock.Next()}
	assert.Equal(t, first, second)
}

func TestDeterministicClock_Concurrent(t *testing.T) {
	clock := NewDeterministicClock()
	const workers, perWorker = 20, 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				clock.Next()
			}
		}()
	}
	wg.Wait()

	issued := clock.Issued()
	require.Len(t, issued, workers*perWorker)
	for i, seq := range issued {
		assert.Equal(t, int64(i+1), seq, "values are handed out in order")
	}
}
