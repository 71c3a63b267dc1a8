package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"oml/pkg/algorithm"
	"oml/pkg/core"
	"oml/pkg/model"
	"oml/pkg/monitor"
	"oml/pkg/storage"
)

func newTestServer(t *testing.T, weights []float64, opts algorithm.Options) (*Server, *model.WeightStore) {
	t.Helper()
	algo, err := algorithm.New("scale", opts)
	if err != nil {
		t.Fatalf("algorithm: %v", err)
	}
	store := model.NewWeightStore(model.WithWeights(weights))
	coord := core.NewCoordinator(store, algo, algo, storage.NewMemoryJournal(64))
	return NewServer(coord), store
}

func fastOptions() algorithm.Options {
	return algorithm.Options{TrainStep: time.Millisecond, InferDelay: time.Millisecond}
}

func postNumber(t *testing.T, s *Server, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleInference(t *testing.T) {
	s, _ := newTestServer(t, []float64{1.0, 2.0}, fastOptions())

	rec := postNumber(t, s, "/inference", "3.5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result float64
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result != 10.5 { // (1.0 * 3.5) + (2.0 * 3.5)
		t.Fatalf("got %g, want 10.5", result)
	}
}

func TestHandleTraining(t *testing.T) {
	s, store := newTestServer(t, []float64{1.0, 2.0}, fastOptions())

	rec := postNumber(t, s, "/training", "1.1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status string `json:"status"`
		ID     string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" || resp.ID == "" {
		t.Fatalf("response: %+v", resp)
	}

	want := []float64{1.0 * 1.1, 2.0 * 1.1}
	got := store.ReadAll()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("weight %d: got %g, want %g", i, got[i], want[i])
		}
	}
}

func TestTrainingConflictWhileWriterHeld(t *testing.T) {
	s, store := newTestServer(t, []float64{1.0}, fastOptions())

	permit, err := store.TryAcquireWriter()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer permit.Release()

	rec := postNumber(t, s, "/training", "2.0")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	// Inference stays available.
	rec = postNumber(t, s, "/inference", "1.0")
	if rec.Code != http.StatusOK {
		t.Fatalf("inference during held permit: got %d", rec.Code)
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	s, _ := newTestServer(t, []float64{1.0}, fastOptions())

	for _, body := range []string{"not-a-number", `{"x":1}`, ""} {
		rec := postNumber(t, s, "/training", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}

	rec := postNumber(t, s, "/inference", "nope")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, []float64{1.0}, fastOptions())

	req := httptest.NewRequest(http.MethodGet, "/training", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestStatsAndHistoryEndpoints(t *testing.T) {
	s, _ := newTestServer(t, []float64{1.0, 2.0}, fastOptions())

	postNumber(t, s, "/training", "1.5")
	postNumber(t, s, "/inference", "2.0")

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", rec.Code)
	}
	var snap monitor.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if snap.TrainingOK != 1 || snap.Inferences != 1 {
		t.Fatalf("stats: %+v", snap)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/history?n=5", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}
	var hist struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if hist.Count != 1 {
		t.Fatalf("history count: got %d, want 1", hist.Count)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/history?n=bogus", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad n: expected 400, got %d", rec.Code)
	}
}

func TestWeightsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, []float64{0.5, 1.5}, fastOptions())

	req := httptest.NewRequest(http.MethodGet, "/api/weights", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Len     int       `json:"len"`
		Weights []float64 `json:"weights"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Len != 2 || resp.Weights[1] != 1.5 {
		t.Fatalf("got %+v", resp)
	}
}

// End-to-end shape of the serving contract: a long training call does not
// delay inference calls, and concurrent inferences on unchanged weights
// agree.
func TestInferenceNotSerializedBehindTraining(t *testing.T) {
	s, _ := newTestServer(t, []float64{1.0, 2.0}, algorithm.Options{
		TrainStep:  50 * time.Millisecond, // training "10" runs ~500ms
		InferDelay: 10 * time.Millisecond,
	})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	// Two concurrent inferences before training starts: deterministic output.
	var wg sync.WaitGroup
	results := make([]float64, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := http.Post(ts.URL+"/inference", "application/json", bytes.NewReader([]byte("3.5")))
			if err != nil {
				t.Errorf("inference %d: %v", i, err)
				return
			}
			defer resp.Body.Close()
			json.NewDecoder(resp.Body).Decode(&results[i])
		}(i)
	}
	wg.Wait()
	if results[0] != 10.5 || results[1] != 10.5 {
		t.Fatalf("concurrent inferences disagree: %v", results)
	}

	trainDone := make(chan time.Time, 1)
	go func() {
		resp, err := http.Post(ts.URL+"/training", "application/json", bytes.NewReader([]byte("10")))
		if err == nil {
			resp.Body.Close()
		}
		trainDone <- time.Now()
	}()

	time.Sleep(20 * time.Millisecond) // let training take the permit
	resp, err := http.Post(ts.URL+"/inference", "application/json", bytes.NewReader([]byte("3.5")))
	if err != nil {
		t.Fatalf("inference during training: %v", err)
	}
	resp.Body.Close()
	inferDone := time.Now()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("inference during training: status %d", resp.StatusCode)
	}
	if end := <-trainDone; !inferDone.Before(end) {
		t.Fatal("inference was serialized after training")
	}
}
