package common

import (
	"fmt"
	"time"
)

// RequestKind tells the two route kinds apart.
type RequestKind string

const (
	KindTraining  RequestKind = "training"
	KindInference RequestKind = "inference"
)

// Outcome is the journaled result of a training request.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeBusy  Outcome = "busy"
	OutcomeError Outcome = "error"
)

// Event is one journaled training request.
type Event struct {
	Seq     uint64      `json:"seq"`
	ID      string      `json:"id"`
	Kind    RequestKind `json:"kind"`
	Input   float64     `json:"input"`
	Outcome Outcome     `json:"outcome"`
	Latency int64       `json:"latency_ns"`
	Time    int64       `json:"unix_nano"`
}

// String 方便调试打印
func (e *Event) String() string {
	return fmt.Sprintf("Event{Seq: %d, Kind: %s, Input: %g, Outcome: %s, Latency: %v}",
		e.Seq, e.Kind, e.Input, e.Outcome, time.Duration(e.Latency))
}
