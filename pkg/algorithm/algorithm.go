package algorithm

import (
	"context"
	"fmt"
	"time"

	"oml/pkg/model"
)

// Trainer consumes one input and produces a sequence of incremental weight
// updates. Implementations acquire the writer permit themselves and must
// release it on every exit path; a held permit elsewhere surfaces as
// model.ErrWriterBusy.
type Trainer interface {
	Train(ctx context.Context, store *model.WeightStore, x float64) error
}

// Predictor computes an output from one input and a read of the store. It
// never touches the writer permit and is safe to run concurrently with any
// number of other requests, training included.
type Predictor interface {
	Infer(ctx context.Context, store *model.WeightStore, x float64) (float64, error)
}

// Algorithm bundles both capabilities. Instances are stateless beyond
// configuration: one instance is selected at startup and shared by every
// request for the process lifetime.
type Algorithm interface {
	Trainer
	Predictor
}

// Options carries the simulated work durations. A training sub-step
// suspends TrainStep before publishing; an inference suspends InferDelay
// before computing.
type Options struct {
	TrainStep  time.Duration
	InferDelay time.Duration
}

// New selects an algorithm by name.
func New(name string, opts Options) (Algorithm, error) {
	switch name {
	case "", "scale":
		return &Scale{opts: opts}, nil
	case "trend":
		return &Trend{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", name)
	}
}

// pause sleeps for d unless ctx is canceled first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
