package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"oml/pkg/client"
)

const Prompt = "oml> "

func main() {
	serverAddr := flag.String("addr", "localhost:9090", "OML TCP Server Address")
	flag.Parse()

	fmt.Printf("OML CLI (Target: %s)\n", *serverAddr)
	fmt.Println("Connecting...")

	cli, err := client.Dial(*serverAddr)
	if err != nil {
		fmt.Printf("Connection failed: %v\n", err)
		fmt.Println("Tip: Ensure the server is running (e.g. go run cmd/server/main.go).")
		return
	}
	defer cli.Close()
	fmt.Println("Connected! Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(Prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "train":
			handleTrain(cli, parts)
		case "infer":
			handleInfer(cli, parts)
		case "weights":
			handleWeights(cli)
		case "stats":
			handleStats(cli)
		case "help":
			printHelp()
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Printf("Unknown command: '%s'. Type 'help'.\n", cmd)
		}
	}
}

func handleTrain(cli *client.Client, parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: train <number>")
		return
	}

	x, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		fmt.Println("Error: Input must be a number (e.g., 1.5)")
		return
	}

	start := time.Now()
	err = cli.Train(x)
	duration := time.Since(start)

	if errors.Is(err, client.ErrBusy) {
		fmt.Println("Rejected: another training call holds the writer permit")
	} else if err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Printf("OK (%v)\n", duration)
	}
}

func handleInfer(cli *client.Client, parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: infer <number>")
		return
	}

	x, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		fmt.Println("Error: Input must be a number")
		return
	}

	start := time.Now()
	out, err := cli.Infer(x)
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Printf("%g (%v)\n", out, duration)
	}
}

func handleWeights(cli *client.Client) {
	start := time.Now()
	ws, err := cli.Weights()
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("%d weights (%v):\n", len(ws), duration)
	for i, w := range ws {
		if i >= 20 {
			fmt.Printf("... and %d more\n", len(ws)-20)
			break
		}
		fmt.Printf("  [%d] -> %g\n", i, w)
	}
}

func handleStats(cli *client.Client) {
	snap, err := cli.Stats()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("  training ok:    %d\n", snap.TrainingOK)
	fmt.Printf("  training busy:  %d\n", snap.TrainingBusy)
	fmt.Printf("  training error: %d\n", snap.TrainingError)
	fmt.Printf("  inferences:     %d\n", snap.Inferences)
	fmt.Printf("  malformed:      %d\n", snap.Malformed)
}

func printHelp() {
	fmt.Println(`
Commands:
  train <number>         Run one training unit of work
  infer <number>         Run one inference
  weights                Show current model parameters
  stats                  Show workload counters
  exit                   Exit CLI
	`)
}
