package monitor

import "testing"

func TestSnapshotCounts(t *testing.T) {
	ws := NewWorkloadStats()
	ws.RecordTrainingOK()
	ws.RecordTrainingOK()
	ws.RecordTrainingBusy()
	ws.RecordInference()
	ws.RecordMalformed()

	snap := ws.Snapshot()
	if snap.TrainingOK != 2 {
		t.Errorf("training_ok: got %d, want 2", snap.TrainingOK)
	}
	if snap.TrainingBusy != 1 {
		t.Errorf("training_busy: got %d, want 1", snap.TrainingBusy)
	}
	if snap.Inferences != 1 {
		t.Errorf("inferences: got %d, want 1", snap.Inferences)
	}
	if snap.Malformed != 1 {
		t.Errorf("malformed: got %d, want 1", snap.Malformed)
	}
}

func TestGetBusyRatio(t *testing.T) {
	ws := NewWorkloadStats()
	if r := ws.GetBusyRatio(); r != 0.0 {
		t.Errorf("empty ratio: got %g", r)
	}
	ws.RecordTrainingBusy()
	if r := ws.GetBusyRatio(); r != 100.0 {
		t.Errorf("busy-only ratio: got %g", r)
	}
	ws.RecordTrainingOK()
	ws.RecordTrainingOK()
	if r := ws.GetBusyRatio(); r != 0.5 {
		t.Errorf("ratio: got %g, want 0.5", r)
	}
}
