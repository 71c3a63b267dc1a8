package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"oml/pkg/algorithm"
	"oml/pkg/common"
	"oml/pkg/model"
	"oml/pkg/monitor"
	"oml/pkg/storage"
)

var (
	// ErrMalformedInput rejects payloads outside the numeric domain before
	// any side effect happens.
	ErrMalformedInput = errors.New("core: input must be a finite number")

	// ErrInternal marks a failure inside an algorithm step. It is fatal to
	// the individual request only; the store stays usable.
	ErrInternal = errors.New("core: internal failure")
)

// Coordinator maps an inbound request kind + payload to the selected
// algorithm capability and translates store-level outcomes into
// caller-visible results. A busy writer is surfaced, never queued or
// retried.
type Coordinator struct {
	store     *model.WeightStore
	trainer   algorithm.Trainer
	predictor algorithm.Predictor
	stats     *monitor.WorkloadStats
	journal   storage.Journal
}

func NewCoordinator(store *model.WeightStore, trainer algorithm.Trainer, predictor algorithm.Predictor, journal storage.Journal) *Coordinator {
	return &Coordinator{
		store:     store,
		trainer:   trainer,
		predictor: predictor,
		stats:     monitor.NewWorkloadStats(),
		journal:   journal,
	}
}

// Train runs one training unit of work. The returned id identifies the
// request in logs and the journal regardless of outcome.
func (c *Coordinator) Train(ctx context.Context, x float64) (string, error) {
	if !isFinite(x) {
		c.stats.RecordMalformed()
		return "", ErrMalformedInput
	}

	id := uuid.NewString()
	start := time.Now()
	err := c.runTrain(ctx, x)
	latency := time.Since(start)

	outcome := common.OutcomeOK
	switch {
	case err == nil:
		c.stats.RecordTrainingOK()
	case errors.Is(err, model.ErrWriterBusy):
		outcome = common.OutcomeBusy
		c.stats.RecordTrainingBusy()
		log.Printf("[CORE] training %s rejected: writer busy", id)
	default:
		outcome = common.OutcomeError
		c.stats.RecordTrainingError()
		log.Printf("[CORE] training %s failed: %v", id, err)
	}

	if jerr := c.journal.Append(common.Event{
		ID:      id,
		Kind:    common.KindTraining,
		Input:   x,
		Outcome: outcome,
		Latency: latency.Nanoseconds(),
		Time:    start.UnixNano(),
	}); jerr != nil {
		log.Printf("[CORE] journal append failed: %v", jerr)
	}

	return id, err
}

func (c *Coordinator) runTrain(ctx context.Context, x float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()
	return c.trainer.Train(ctx, c.store, x)
}

// Infer runs one inference. It never serializes against other requests of
// either kind.
func (c *Coordinator) Infer(ctx context.Context, x float64) (float64, error) {
	if !isFinite(x) {
		c.stats.RecordMalformed()
		return 0, ErrMalformedInput
	}

	out, err := c.runInfer(ctx, x)
	if err != nil {
		c.stats.RecordInferenceError()
		return 0, err
	}
	c.stats.RecordInference()
	return out, nil
}

func (c *Coordinator) runInfer(ctx context.Context, x float64) (out float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()
	return c.predictor.Infer(ctx, c.store, x)
}

// Weights returns a read of every parameter. Not a snapshot: values read
// during an in-flight training call may mix old and new.
func (c *Coordinator) Weights() []float64 {
	return c.store.ReadAll()
}

func (c *Coordinator) Stats() monitor.Snapshot {
	return c.stats.Snapshot()
}

// RecordMalformed lets transports count payloads they rejected before the
// numeric input ever reached the coordinator.
func (c *Coordinator) RecordMalformed() {
	c.stats.RecordMalformed()
}

// History returns up to n recent training events from the journal.
func (c *Coordinator) History(n int) ([]common.Event, error) {
	return c.journal.Recent(n)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
