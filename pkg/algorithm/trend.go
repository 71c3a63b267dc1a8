package algorithm

import (
	"context"
	"errors"
	"fmt"

	"oml/pkg/model"
)

// Slot layout for the trend model. The running least-squares sums live in
// the store itself so that the Trend instance carries no mutable state and
// the permit guards every mutation.
const (
	trendSlope = iota
	trendIntercept
	trendN
	trendSumX
	trendSumY
	trendSumXY
	trendSumXX

	TrendSlots = 7
)

var errTrendSize = errors.New("algorithm: trend model requires 7 slots")

// Trend fits observations against their arrival index by incremental least
// squares: the n-th training input x becomes the sample (n, x). Inference
// evaluates the fitted line at the input.
type Trend struct {
	opts Options
}

func (a *Trend) Train(ctx context.Context, store *model.WeightStore, x float64) error {
	if store.Len() < TrendSlots {
		return fmt.Errorf("%w: have %d", errTrendSize, store.Len())
	}

	permit, err := store.TryAcquireWriter()
	if err != nil {
		return err
	}
	defer permit.Release()

	n := store.ReadSlot(trendN) + 1
	xi := n // arrival index is the independent variable

	if err := pause(ctx, a.opts.TrainStep); err != nil {
		return err
	}
	permit.WriteSlot(trendN, n)
	permit.WriteSlot(trendSumX, store.ReadSlot(trendSumX)+xi)
	permit.WriteSlot(trendSumY, store.ReadSlot(trendSumY)+x)
	permit.WriteSlot(trendSumXY, store.ReadSlot(trendSumXY)+xi*x)
	permit.WriteSlot(trendSumXX, store.ReadSlot(trendSumXX)+xi*xi)

	if err := pause(ctx, a.opts.TrainStep); err != nil {
		return err
	}
	slope, intercept := solve(
		n,
		store.ReadSlot(trendSumX),
		store.ReadSlot(trendSumY),
		store.ReadSlot(trendSumXY),
		store.ReadSlot(trendSumXX),
	)
	permit.WriteSlot(trendSlope, slope)
	permit.WriteSlot(trendIntercept, intercept)
	return nil
}

func (a *Trend) Infer(ctx context.Context, store *model.WeightStore, x float64) (float64, error) {
	if store.Len() < TrendSlots {
		return 0, fmt.Errorf("%w: have %d", errTrendSize, store.Len())
	}

	slope := store.ReadSlot(trendSlope)
	intercept := store.ReadSlot(trendIntercept)
	if err := pause(ctx, a.opts.InferDelay); err != nil {
		return 0, err
	}
	return slope*x + intercept, nil
}

func solve(n, sumX, sumY, sumXY, sumXX float64) (slope, intercept float64) {
	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return 0, 0
	}
	slope = (n*sumXY - sumX*sumY) / denominator
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}
