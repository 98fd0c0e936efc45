package economy

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource yields uniform values in [0,1).
type RandomSource interface {
	Next() float64
}

// RandomFunc adapts a plain function to RandomSource.
type RandomFunc func() float64

func (f RandomFunc) Next() float64 { return f() }

// SeededRandom is a math/rand backed source safe for concurrent use.
type SeededRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRandom seeds from the given value, or from the wall clock when seed is 0.
func NewSeededRandom(seed int64) *SeededRandom {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SeededRandom{rng: rand.New(rand.NewSource(seed))}
}

func (r *SeededRandom) Next() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}
