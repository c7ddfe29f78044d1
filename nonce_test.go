package krakengo

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncreasingNonceMonotone(t *testing.T) {
	n := NewIncreasingNonce()

	prev := n.Next()
	for i := 0; i < 1000; i++ {
		next := n.Next()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestIncreasingNonceConcurrentUnique(t *testing.T) {
	n := NewIncreasingNonce()

	const goroutines = 50
	const perGoroutine = 200

	results := make(chan uint64, goroutines*perGoroutine)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				results <- n.Next()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint64]struct{}, goroutines*perGoroutine)
	for v := range results {
		_, dup := seen[v]
		assert.False(t, dup, "duplicate nonce %d", v)
		seen[v] = struct{}{}
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}
