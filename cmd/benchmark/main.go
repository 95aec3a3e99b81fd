// Command benchmark runs the rv32emu workload harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output results in JSON format
//	-no-icache  Fetch straight from the program image
//	-core       Run only the core workloads
//	-repeat n   Run each workload n times
//
// Example:
//
//	# Compare fetch paths
//	go run ./cmd/benchmark -csv > cached.csv
//	go run ./cmd/benchmark -csv -no-icache > direct.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/rv32emu/benchmarks"
)

func main() {
	// Parse flags
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results in JSON format")
	noICache := flag.Bool("no-icache", false, "Disable the instruction fetch cache")
	coreOnly := flag.Bool("core", false, "Run only the core workloads")
	repeat := flag.Int("repeat", 1, "Run each workload this many times")
	flag.Parse()

	// Configure harness
	config := benchmarks.DefaultConfig()
	config.EnableICache = !*noICache
	config.Repeat = *repeat
	config.Output = os.Stdout

	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddWorkloads(benchmarks.GetCoreWorkloads())
	} else {
		harness.AddWorkloads(benchmarks.GetWorkloads())
	}

	if !*csvOutput && !*jsonOutput {
		fmt.Println("rv32emu Workload Harness")
		fmt.Println("========================")
		fmt.Printf("I-Cache: %v\n", config.EnableICache)
		fmt.Println("")
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	for _, r := range results {
		if !r.Passed {
			os.Exit(1)
		}
	}
}
