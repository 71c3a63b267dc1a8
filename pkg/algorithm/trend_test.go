package algorithm

import (
	"context"
	"math"
	"testing"

	"oml/pkg/model"
)

func TestTrendFitsLinearObservations(t *testing.T) {
	store := model.NewWeightStore(model.New(TrendSlots))
	a := &Trend{opts: testOptions()}
	ctx := context.Background()

	// Observations 1, 2, 3 arrive as samples (1,1), (2,2), (3,3).
	for _, x := range []float64{1, 2, 3} {
		if err := a.Train(ctx, store, x); err != nil {
			t.Fatalf("Train(%g): %v", x, err)
		}
	}

	if slope := store.ReadSlot(0); math.Abs(slope-1.0) > 1e-9 {
		t.Errorf("slope: got %g, want 1", slope)
	}
	if intercept := store.ReadSlot(1); math.Abs(intercept) > 1e-9 {
		t.Errorf("intercept: got %g, want 0", intercept)
	}

	got, err := a.Infer(ctx, store, 10.0)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if math.Abs(got-10.0) > 1e-9 {
		t.Errorf("Infer(10): got %g, want 10", got)
	}
}

func TestTrendRequiresSevenSlots(t *testing.T) {
	store := model.NewWeightStore(model.New(2))
	a := &Trend{opts: testOptions()}

	if err := a.Train(context.Background(), store, 1.0); err == nil {
		t.Fatal("expected size error for 2-slot store")
	}
	if _, err := a.Infer(context.Background(), store, 1.0); err == nil {
		t.Fatal("expected size error for 2-slot store")
	}
}

func TestTrendDegenerateFit(t *testing.T) {
	store := model.NewWeightStore(model.New(TrendSlots))
	a := &Trend{opts: testOptions()}

	// A single observation cannot determine a line; solve falls back to 0.
	if err := a.Train(context.Background(), store, 5.0); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if slope := store.ReadSlot(0); slope != 0 {
		t.Errorf("slope after one sample: got %g, want 0", slope)
	}
}
