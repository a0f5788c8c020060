package ledger

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

const defaultAllocatorAttempts = 20

// NumberAllocator generates 10-digit account numbers not already present in
// the store. The random source is injected so allocation stays deterministic
// under test.
type NumberAllocator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	attempts int
}

// NewNumberAllocator builds an allocator over the given source.
func NewNumberAllocator(src rand.Source) *NumberAllocator {
	return &NumberAllocator{
		rng:      rand.New(src),
		attempts: defaultAllocatorAttempts,
	}
}

// Allocate draws candidate numbers until one is free, giving up with
// ErrAllocationExhausted after a bounded number of attempts.
func (g *NumberAllocator) Allocate(ctx context.Context, accounts AccountStore) (string, error) {
	for i := 0; i < g.attempts; i++ {
		g.mu.Lock()
		n := 1_000_000_000 + g.rng.Int63n(9_000_000_000)
		g.mu.Unlock()

		candidate := fmt.Sprintf("%d", n)
		taken, err := accounts.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("%w: check account number: %v", ErrPersistence, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrAllocationExhausted
}
