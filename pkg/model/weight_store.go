package model

import (
	"errors"
	"sync/atomic"
)

// ErrWriterBusy is returned by TryAcquireWriter while another permit is
// outstanding. It is never retried here; retry policy belongs to callers.
var ErrWriterBusy = errors.New("model: writer permit already held")

// WeightStore owns a Model for the lifetime of the process and enforces the
// single-writer invariant with a non-blocking compare-and-swap permit.
// Reads are lock-free, unbounded, and never gated by the writer flag: a
// reader racing a writer sees a mix of pre- and post-update slot values,
// each of which was actually written (no torn reads).
type WeightStore struct {
	model   *Model
	writing atomic.Bool
}

func NewWeightStore(m *Model) *WeightStore {
	return &WeightStore{model: m}
}

func (s *WeightStore) Len() int {
	return s.model.Len()
}

// ReadSlot returns the current value of one parameter. Always succeeds.
func (s *WeightStore) ReadSlot(i int) float64 {
	return s.model.load(i)
}

// ReadAll returns every parameter, each read independently. The result is
// explicitly NOT a point-in-time snapshot.
func (s *WeightStore) ReadAll() []float64 {
	out := make([]float64, s.model.Len())
	for i := range out {
		out[i] = s.model.load(i)
	}
	return out
}

// TryAcquireWriter attempts to become the sole writer. It never blocks and
// never queues: if a permit is already held it fails with ErrWriterBusy.
func (s *WeightStore) TryAcquireWriter() (*Permit, error) {
	if !s.writing.CompareAndSwap(false, true) {
		return nil, ErrWriterBusy
	}
	return &Permit{store: s}, nil
}

// Permit is the exclusively-held token required to mutate parameters.
// A Permit must be released exactly once, on every exit path.
type Permit struct {
	store    *WeightStore
	released atomic.Bool
}

// WriteSlot atomically stores a new value into slot i. Calling it after
// Release is a caller bug and panics rather than corrupting the invariant.
func (p *Permit) WriteSlot(i int, v float64) {
	if p.released.Load() {
		panic("model: WriteSlot on released permit")
	}
	p.store.model.store(i, v)
}

// Release clears the writer flag, consuming the permit. A second Release is
// a no-op, so deferred release paths stay safe.
func (p *Permit) Release() {
	if !p.released.CompareAndSwap(false, true) {
		return
	}
	p.store.writing.Store(false)
}
