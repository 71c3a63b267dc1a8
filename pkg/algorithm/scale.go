package algorithm

import (
	"context"
	"math"

	"oml/pkg/model"
)

// Scale is the reference algorithm: training multiplies every weight by the
// input x, inference returns sum(weight * x). For x > 1 a training call is
// broken into ceil(x) sub-steps, each suspending one TrainStep and then scaling
// every slot by x^(1/steps), so the net update is x but readers observe the
// weights moving incrementally while the permit is held.
type Scale struct {
	opts Options
}

func (a *Scale) Train(ctx context.Context, store *model.WeightStore, x float64) error {
	permit, err := store.TryAcquireWriter()
	if err != nil {
		return err
	}
	defer permit.Release()

	steps := 1
	factor := x
	// Fractional per-step factors only make sense for positive inputs.
	if x > 1 {
		steps = int(math.Ceil(x))
		factor = math.Pow(x, 1/float64(steps))
	}

	for s := 0; s < steps; s++ {
		if err := pause(ctx, a.opts.TrainStep); err != nil {
			return err
		}
		for i := 0; i < store.Len(); i++ {
			permit.WriteSlot(i, store.ReadSlot(i)*factor)
		}
	}
	return nil
}

func (a *Scale) Infer(ctx context.Context, store *model.WeightStore, x float64) (float64, error) {
	weights := store.ReadAll()
	if err := pause(ctx, a.opts.InferDelay); err != nil {
		return 0, err
	}

	sum := 0.0
	for _, w := range weights {
		sum += w * x
	}
	return sum, nil
}
