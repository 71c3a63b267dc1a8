package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"oml/pkg/core"
	"oml/pkg/model"
)

type Server struct {
	coord *core.Coordinator
}

func NewServer(coord *core.Coordinator) *Server {
	return &Server{coord: coord}
}

// Router registers every route on a fresh mux. The mux spawns one goroutine
// per request, so training and inference calls never serialize against each
// other at the transport layer.
func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/training", s.handleTraining)
	mux.HandleFunc("/inference", s.handleInference)
	mux.HandleFunc("/api/weights", s.handleWeights)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Server) handleTraining(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Body is a single JSON-encoded number.
	var x float64
	if err := json.NewDecoder(r.Body).Decode(&x); err != nil {
		s.coord.RecordMalformed()
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	start := time.Now()
	id, err := s.coord.Train(r.Context(), x)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := map[string]interface{}{
		"status":     "ok",
		"id":         id,
		"latency_ns": time.Since(start).Nanoseconds(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleInference(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var x float64
	if err := json.NewDecoder(r.Body).Decode(&x); err != nil {
		s.coord.RecordMalformed()
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	out, err := s.coord.Infer(r.Context(), x)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// The response is the bare computed value.
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleWeights(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	weights := s.coord.Weights()
	resp := map[string]interface{}{
		"len":     len(weights),
		"weights": weights,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(s.coord.Stats())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	n := 20
	if q := r.URL.Query().Get("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v <= 0 {
			http.Error(w, "Invalid n", http.StatusBadRequest)
			return
		}
		n = v
	}

	events, err := s.coord.History(n)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"count":  len(events),
		"events": events,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrWriterBusy):
		http.Error(w, "Writer busy", http.StatusConflict)
	case errors.Is(err, core.ErrMalformedInput):
		http.Error(w, "Invalid input", http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
