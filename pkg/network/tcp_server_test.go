package network

import (
	"errors"
	"math"
	"net"
	"testing"
	"time"

	"oml/pkg/algorithm"
	"oml/pkg/client"
	"oml/pkg/core"
	"oml/pkg/model"
	"oml/pkg/storage"
)

func startTestServer(t *testing.T, weights []float64) (*client.Client, *model.WeightStore) {
	t.Helper()

	algo, err := algorithm.New("scale", algorithm.Options{
		TrainStep:  time.Millisecond,
		InferDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("algorithm: %v", err)
	}
	store := model.NewWeightStore(model.WithWeights(weights))
	coord := core.NewCoordinator(store, algo, algo, storage.NewMemoryJournal(64))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })
	go NewTCPServer(coord).Serve(listener)

	cli, err := client.Dial(listener.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { cli.Close() })
	return cli, store
}

func TestTrainInferOverTCP(t *testing.T) {
	cli, _ := startTestServer(t, []float64{1.0, 2.0})

	out, err := cli.Infer(3.5)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if out != 10.5 { // (1.0 * 3.5) + (2.0 * 3.5)
		t.Fatalf("Infer: got %g, want 10.5", out)
	}

	if err := cli.Train(1.1); err != nil {
		t.Fatalf("Train: %v", err)
	}

	ws, err := cli.Weights()
	if err != nil {
		t.Fatalf("Weights: %v", err)
	}
	want := []float64{1.1, 2.2}
	for i := range want {
		if math.Abs(ws[i]-want[i]) > 1e-9 {
			t.Errorf("weight %d: got %g, want %g", i, ws[i], want[i])
		}
	}

	snap, err := cli.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if snap.TrainingOK != 1 || snap.Inferences != 1 {
		t.Fatalf("stats: %+v", snap)
	}
}

func TestTrainBusyOverTCP(t *testing.T) {
	cli, store := startTestServer(t, []float64{1.0})

	permit, err := store.TryAcquireWriter()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer permit.Release()

	if err := cli.Train(2.0); !errors.Is(err, client.ErrBusy) {
		t.Fatalf("got %v, want ErrBusy", err)
	}

	// Inference must keep working while the permit is held elsewhere.
	if _, err := cli.Infer(1.0); err != nil {
		t.Fatalf("Infer while busy: %v", err)
	}
}
