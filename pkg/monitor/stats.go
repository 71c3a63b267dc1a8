package monitor

import (
	"sync/atomic"

	"github.com/hashicorp/go-metrics"
)

var (
	MetricTrainingOKCount     = []string{"oml", "training", "ok", "count"}
	MetricTrainingBusyCount   = []string{"oml", "training", "busy", "count"}
	MetricTrainingErrorCount  = []string{"oml", "training", "error", "count"}
	MetricInferenceCount      = []string{"oml", "inference", "count"}
	MetricInferenceErrorCount = []string{"oml", "inference", "error", "count"}
	MetricMalformedCount      = []string{"oml", "malformed", "count"}
)

type WorkloadStats struct {
	TrainingOK     uint64
	TrainingBusy   uint64
	TrainingError  uint64
	Inferences     uint64
	InferenceError uint64
	Malformed      uint64
}

func NewWorkloadStats() *WorkloadStats {
	return &WorkloadStats{}
}

func (ws *WorkloadStats) RecordTrainingOK() {
	atomic.AddUint64(&ws.TrainingOK, 1)
	metrics.IncrCounter(MetricTrainingOKCount, 1)
}

func (ws *WorkloadStats) RecordTrainingBusy() {
	atomic.AddUint64(&ws.TrainingBusy, 1)
	metrics.IncrCounter(MetricTrainingBusyCount, 1)
}

func (ws *WorkloadStats) RecordTrainingError() {
	atomic.AddUint64(&ws.TrainingError, 1)
	metrics.IncrCounter(MetricTrainingErrorCount, 1)
}

func (ws *WorkloadStats) RecordInference() {
	atomic.AddUint64(&ws.Inferences, 1)
	metrics.IncrCounter(MetricInferenceCount, 1)
}

func (ws *WorkloadStats) RecordInferenceError() {
	atomic.AddUint64(&ws.InferenceError, 1)
	metrics.IncrCounter(MetricInferenceErrorCount, 1)
}

func (ws *WorkloadStats) RecordMalformed() {
	atomic.AddUint64(&ws.Malformed, 1)
	metrics.IncrCounter(MetricMalformedCount, 1)
}

// Snapshot is a consistent-enough copy for the stats endpoints.
type Snapshot struct {
	TrainingOK     uint64 `json:"training_ok"`
	TrainingBusy   uint64 `json:"training_busy"`
	TrainingError  uint64 `json:"training_error"`
	Inferences     uint64 `json:"inferences"`
	InferenceError uint64 `json:"inference_error"`
	Malformed      uint64 `json:"malformed"`
}

func (ws *WorkloadStats) Snapshot() Snapshot {
	return Snapshot{
		TrainingOK:     atomic.LoadUint64(&ws.TrainingOK),
		TrainingBusy:   atomic.LoadUint64(&ws.TrainingBusy),
		TrainingError:  atomic.LoadUint64(&ws.TrainingError),
		Inferences:     atomic.LoadUint64(&ws.Inferences),
		InferenceError: atomic.LoadUint64(&ws.InferenceError),
		Malformed:      atomic.LoadUint64(&ws.Malformed),
	}
}

// GetBusyRatio reports rejected vs accepted training calls.
func (ws *WorkloadStats) GetBusyRatio() float64 {
	ok := atomic.LoadUint64(&ws.TrainingOK)
	busy := atomic.LoadUint64(&ws.TrainingBusy)

	if ok == 0 {
		if busy > 0 {
			return 100.0
		}
		return 0.0
	}
	return float64(busy) / float64(ok)
}
