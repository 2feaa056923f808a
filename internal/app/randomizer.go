package app

import (
	"math/rand"
	"sync"
	"time"
)

// Randomizer is a goroutine-safe source for uniform shuffles.
type Randomizer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomizer wraps src; a nil src is seeded from the clock.
func NewRandomizer(src rand.Source) *Randomizer {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Randomizer{rnd: rand.New(src)}
}

func (r *Randomizer) intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

// Shuffle returns a Fisher-Yates permutation of a copy of items.
func Shuffle[T any](r *Randomizer, items []T) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := r.intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
