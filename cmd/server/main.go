package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hashicorp/go-metrics"

	"oml/pkg/algorithm"
	"oml/pkg/api"
	"oml/pkg/config"
	"oml/pkg/core"
	"oml/pkg/model"
	"oml/pkg/network"
	"oml/pkg/storage"
)

func main() {
	configPath := flag.String("config", "", "path to oml.yaml (defaults to configs/oml.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	inm := metrics.NewInmemSink(10*time.Second, time.Minute)
	if _, err := metrics.NewGlobal(metrics.DefaultConfig("oml"), inm); err != nil {
		log.Printf("Warning: metrics sink unavailable: %v", err)
	}

	var m *model.Model
	if len(cfg.Model.Weights) > 0 {
		m = model.WithWeights(cfg.Model.Weights)
	} else {
		m = model.New(cfg.Model.Size)
	}
	if cfg.Model.Algorithm == "trend" && m.Len() < algorithm.TrendSlots {
		log.Fatalf("trend algorithm needs %d slots, model has %d", algorithm.TrendSlots, m.Len())
	}
	store := model.NewWeightStore(m)

	algo, err := algorithm.New(cfg.Model.Algorithm, algorithm.Options{
		TrainStep:  cfg.Model.TrainStep(),
		InferDelay: cfg.Model.InferDelay(),
	})
	if err != nil {
		log.Fatalf("Failed to select algorithm: %v", err)
	}

	if cfg.Journal.Backend != "memory" && cfg.Journal.Backend != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0755); err != nil {
			log.Fatalf("Failed to create journal dir: %v", err)
		}
	}
	journal, err := storage.NewJournal(cfg.Journal.Backend, cfg.Journal.Path, cfg.Journal.Capacity)
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}
	defer journal.Close()

	coord := core.NewCoordinator(store, algo, algo, journal)
	log.Printf("[CORE] Model ready: %d slots, algorithm=%s", store.Len(), cfg.Model.Algorithm)

	go func() {
		if err := network.NewTCPServer(coord).Start(cfg.Server.TCPAddr); err != nil {
			log.Fatalf("[TCP] listen: %v", err)
		}
	}()

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(coord).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("[API] Server listening on %s ...", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[API] listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	log.Println("server stopped")
}
