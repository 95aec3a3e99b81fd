// Package benchmarks provides a workload harness that measures emulator
// throughput and fetch cache behavior.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32emu/cache"
	"github.com/sarchlab/rv32emu/emu"
)

// Workload defines a single benchmark program.
type Workload struct {
	// Name identifies the workload
	Name string

	// Description explains what the workload exercises
	Description string

	// Program is the RV32I machine code to execute, loaded at address 0
	Program []uint32

	// Expected maps register names to their values at the end of the run
	Expected map[string]uint32
}

// Result holds the results for a single workload run.
type Result struct {
	// Name identifies the workload
	Name string `json:"name"`

	// Description explains what the workload exercises
	Description string `json:"description"`

	// Instructions is the number of instructions dispatched
	Instructions uint64 `json:"instructions"`

	// ICacheHits/Misses (if cache enabled)
	ICacheHits   uint64 `json:"icache_hits,omitempty"`
	ICacheMisses uint64 `json:"icache_misses,omitempty"`

	// Passed is true when the run ended normally with the expected registers
	Passed bool `json:"passed"`

	// Error describes why the run did not pass
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the workload
	WallTime time.Duration `json:"wall_time_ns"`
}

// MIPS returns millions of instructions per wall-clock second.
func (r Result) MIPS() float64 {
	if r.WallTime <= 0 {
		return 0
	}
	return float64(r.Instructions) / r.WallTime.Seconds() / 1e6
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableICache puts an instruction cache in the fetch path
	EnableICache bool

	// ICache is the instruction cache geometry
	ICache cache.Config

	// StepBudget bounds every run
	StepBudget uint64

	// Repeat runs each workload this many times; the result reports the
	// last run
	Repeat int

	// Output is where to write results (default: os.Stdout)
	Output io.Writer
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableICache: true,
		ICache:       cache.DefaultConfig(),
		StepBudget:   1_000_000,
		Repeat:       1,
		Output:       os.Stdout,
	}
}

// Harness runs workloads and reports results.
type Harness struct {
	config    HarnessConfig
	workloads []Workload
	logger    logrus.FieldLogger
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Repeat < 1 {
		config.Repeat = 1
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &Harness{
		config: config,
		logger: logger,
	}
}

// AddWorkload adds a workload to the harness.
func (h *Harness) AddWorkload(w Workload) {
	h.workloads = append(h.workloads, w)
}

// AddWorkloads adds multiple workloads to the harness.
func (h *Harness) AddWorkloads(workloads []Workload) {
	h.workloads = append(h.workloads, workloads...)
}

// RunAll executes all workloads and returns results.
func (h *Harness) RunAll() []Result {
	results := make([]Result, 0, len(h.workloads))

	for _, w := range h.workloads {
		var result Result
		for i := 0; i < h.config.Repeat; i++ {
			result = h.runWorkload(w)
		}
		results = append(results, result)
	}

	return results
}

// runWorkload executes a single workload on a fresh emulator.
func (h *Harness) runWorkload(w Workload) Result {
	result := Result{
		Name:        w.Name,
		Description: w.Description,
	}

	program := emu.NewProgramFromWords(w.Program...)
	opts := []emu.EmulatorOption{
		emu.WithLogger(h.logger),
		emu.WithStepBudget(h.config.StepBudget),
		emu.WithFaultPolicy(emu.FaultPolicyStrict),
	}

	var ic *cache.InstructionCache
	if h.config.EnableICache {
		var err error
		ic, err = cache.New(h.config.ICache, program)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		opts = append(opts, emu.WithFetcher(ic))
	}

	e := emu.NewEmulator(program, opts...)

	// Run and measure time
	start := time.Now()
	_, err := e.StepUntil(endOf(w))
	result.WallTime = time.Since(start)
	result.Instructions = e.InstructionCount()

	if ic != nil {
		stats := ic.Stats()
		result.ICacheHits = stats.Hits
		result.ICacheMisses = stats.Misses
	}

	if err == nil {
		err = checkRegisters(e, w.Expected)
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Passed = true
	return result
}

func checkRegisters(e *emu.Emulator, expected map[string]uint32) error {
	for name, want := range expected {
		got, err := e.Register(name)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("%s = 0x%08x, want 0x%08x", name, got, want)
		}
	}
	return nil
}

// PrintResults outputs results in a human-readable format.
func (h *Harness) PrintResults(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output, "=== rv32emu Workload Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL: " + r.Error
		}

		_, _ = fmt.Fprintf(h.config.Output, "Workload: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description:  %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Status:       %s\n", status)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions: %d\n", r.Instructions)

		if r.ICacheHits > 0 || r.ICacheMisses > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- I-Cache ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.ICacheHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.ICacheMisses)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v (%.1f MIPS)\n", r.WallTime, r.MIPS())
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,instructions,icache_hits,icache_misses,passed,wall_time_ns")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%t,%d\n",
			r.Name,
			r.Instructions,
			r.ICacheHits,
			r.ICacheMisses,
			r.Passed,
			r.WallTime.Nanoseconds(),
		)
	}
}

// Report is the complete JSON output format.
type Report struct {
	// Metadata about the run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual workload results
	Results []Result `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the run.
type ReportMetadata struct {
	Timestamp     string       `json:"timestamp"`
	ICacheEnabled bool         `json:"icache_enabled"`
	ICache        cache.Config `json:"icache"`
}

// ReportSummary contains aggregate statistics across all workloads.
type ReportSummary struct {
	TotalWorkloads    int           `json:"total_workloads"`
	Failed            int           `json:"failed"`
	TotalInstructions uint64        `json:"total_instructions"`
	TotalWallTime     time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []Result) error {
	summary := ReportSummary{TotalWorkloads: len(results)}
	for _, r := range results {
		summary.TotalInstructions += r.Instructions
		summary.TotalWallTime += r.WallTime
		if !r.Passed {
			summary.Failed++
		}
	}

	report := Report{
		Metadata: ReportMetadata{
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			ICacheEnabled: h.config.EnableICache,
			ICache:        h.config.ICache,
		},
		Results: results,
		Summary: summary,
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
