package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"oml/pkg/algorithm"
	"oml/pkg/core"
	"oml/pkg/model"
	"oml/pkg/storage"
)

// Demonstrates the serving contract in-process: one long training call, two
// overlapped inferences, and a fail-fast rejection of a second writer.
func main() {
	algo, err := algorithm.New("scale", algorithm.Options{
		TrainStep:  500 * time.Millisecond,
		InferDelay: 500 * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("algorithm: %v", err)
	}

	store := model.NewWeightStore(model.WithWeights([]float64{1.0, 2.0}))
	coord := core.NewCoordinator(store, algo, algo, storage.NewMemoryJournal(64))
	ctx := context.Background()

	fmt.Println("Starting training with input 10 (runs ~5s)...")
	begin := time.Now()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := coord.Train(ctx, 10); err != nil {
			log.Fatalf("training: %v", err)
		}
		fmt.Printf("Training done at +%v\n", time.Since(begin).Round(time.Millisecond))
	}()

	time.Sleep(time.Second)

	fmt.Println("Issuing two concurrent inferences with input 3.5...")
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := coord.Infer(ctx, 3.5)
			if err != nil {
				log.Fatalf("inference %d: %v", i, err)
			}
			fmt.Printf("Inference %d -> %g at +%v\n", i, out, time.Since(begin).Round(time.Millisecond))
		}(i)
	}

	time.Sleep(200 * time.Millisecond)
	if _, err := coord.Train(ctx, 2); errors.Is(err, model.ErrWriterBusy) {
		fmt.Println("Second training rejected: writer busy (as designed)")
	}

	wg.Wait()
	fmt.Printf("Final weights: %v\n", coord.Weights())
}
