package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"oml/pkg/client"
)

func main() {
	httpAddr := flag.String("http", "http://localhost:8080", "HTTP API base URL")
	tcpAddr := flag.String("tcp", "localhost:9090", "TCP server address")
	nReq := flag.Int("n", 50, "Number of concurrent inference requests")
	trainInput := flag.Float64("train", 10, "Training input issued alongside the inferences")
	flag.Parse()

	fmt.Printf("OML Concurrency Benchmark (N=%d)\n", *nReq)
	fmt.Printf("  HTTP=%s  TCP=%s\n", *httpAddr, *tcpAddr)
	fmt.Println("---------------------------------------------------")

	fmt.Printf(">> Issuing training (input=%g) plus %d overlapped inferences...\n", *trainInput, *nReq)
	trainDur, inferSpan := runOverlap(*httpAddr, *nReq, *trainInput)
	fmt.Printf("   Training: %v | All inferences done in: %v\n", trainDur, inferSpan)
	if inferSpan < trainDur {
		fmt.Println("   Inference traffic completed while training was still in flight.")
	}
	fmt.Println("---------------------------------------------------")

	fmt.Println(">> Inference latency: HTTP (JSON) vs TCP (binary)...")
	httpDur := runHTTPInference(*httpAddr, *nReq)
	tcpDur := runTCPInference(*tcpAddr, *nReq)
	fmt.Printf("   HTTP Time: %v | QPS: %.0f\n", httpDur, float64(*nReq)/httpDur.Seconds())
	fmt.Printf("   TCP  Time: %v | QPS: %.0f\n", tcpDur, float64(*nReq)/tcpDur.Seconds())
}

// runOverlap drives one training call and n inference calls concurrently and
// reports both spans.
func runOverlap(httpAddr string, n int, trainInput float64) (trainDur, inferSpan time.Duration) {
	httpCli := &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 100,
		},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		resp, err := httpCli.Post(httpAddr+"/training", "application/json",
			bytes.NewReader([]byte(fmt.Sprintf("%g", trainInput))))
		if err != nil {
			log.Fatalf("Training req failed: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		trainDur = time.Since(start)
	}()

	inferStart := time.Now()
	var iwg sync.WaitGroup
	for i := 0; i < n; i++ {
		iwg.Add(1)
		go func() {
			defer iwg.Done()
			resp, err := httpCli.Post(httpAddr+"/inference", "application/json",
				bytes.NewReader([]byte("3.5")))
			if err != nil {
				log.Fatalf("Inference req failed: %v", err)
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}()
	}
	iwg.Wait()
	inferSpan = time.Since(inferStart)

	wg.Wait()
	return trainDur, inferSpan
}

func runHTTPInference(httpAddr string, n int) time.Duration {
	start := time.Now()
	httpCli := &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 100,
		},
	}

	for i := 0; i < n; i++ {
		resp, err := httpCli.Post(httpAddr+"/inference", "application/json",
			bytes.NewReader([]byte("3.5")))
		if err != nil {
			log.Fatalf("HTTP Req failed: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
	return time.Since(start)
}

func runTCPInference(addr string, n int) time.Duration {
	start := time.Now()

	cli, err := client.Dial(addr)
	if err != nil {
		log.Fatalf("TCP Connect failed: %v", err)
	}
	defer cli.Close()

	for i := 0; i < n; i++ {
		if _, err := cli.Infer(3.5); err != nil {
			log.Fatalf("TCP Infer failed: %v", err)
		}
	}
	return time.Since(start)
}
