package model

import (
	"math"
	"sync/atomic"
)

// Model is a flat, fixed-length vector of float64 parameters. Each slot is
// an independent atomic cell (float64 bits in a uint64), so a reader never
// observes a torn value even while a writer is mid-update. The vector is
// never resized after creation.
type Model struct {
	slots []atomic.Uint64
}

// New creates a Model with n zero-initialized parameters.
func New(n int) *Model {
	return &Model{slots: make([]atomic.Uint64, n)}
}

// WithWeights creates a Model initialized from the given values.
func WithWeights(ws []float64) *Model {
	m := New(len(ws))
	for i, w := range ws {
		m.slots[i].Store(math.Float64bits(w))
	}
	return m
}

func (m *Model) Len() int {
	return len(m.slots)
}

func (m *Model) load(i int) float64 {
	return math.Float64frombits(m.slots[i].Load())
}

func (m *Model) store(i int, v float64) {
	m.slots[i].Store(math.Float64bits(v))
}
