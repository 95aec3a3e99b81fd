// Package main provides the entry point for rv32emu, an interactive RV32I
// interpreter.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32emu/cache"
	"github.com/sarchlab/rv32emu/config"
	"github.com/sarchlab/rv32emu/console"
	"github.com/sarchlab/rv32emu/emu"
	"github.com/sarchlab/rv32emu/loader"
	"github.com/sarchlab/rv32emu/script"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	configPath  string
	savePath    string
	pc          string
	strict      bool
	trace       bool
	budget      uint64
	dump        bool
	scriptPath  string
	verbose     bool
	explicitSet map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, string, error) {
	opts := &options{explicitSet: map[string]bool{}}

	fs := flag.NewFlagSet("rv32emu", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to run configuration JSON file")
	fs.StringVar(&opts.savePath, "save-config", "", "Write the effective configuration to this file and exit")
	fs.StringVar(&opts.pc, "pc", "", "Initial program counter (overrides config and ELF entry)")
	fs.BoolVar(&opts.strict, "strict", false, "Halt on unknown function codes")
	fs.BoolVar(&opts.trace, "trace", false, "Print every executed instruction")
	fs.Uint64Var(&opts.budget, "budget", 0, "Step budget for each until (0 = unlimited)")
	fs.BoolVar(&opts.dump, "dump", false, "Print a hex dump of the program image")
	fs.StringVar(&opts.scriptPath, "script", "", "Run a Starlark script instead of the console")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose output")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: rv32emu [options] <program>\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	fs.Visit(func(fl *flag.Flag) {
		opts.explicitSet[fl.Name] = true
	})

	if opts.savePath == "" && fs.NArg() != 1 {
		fs.Usage()
		return nil, "", errors.New("exactly one program path is required")
	}

	return opts, fs.Arg(0), nil
}

// loadConfig reads the configuration file, if any, and applies the flags
// on top of it.
func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		var err error
		cfg, err = config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	if opts.explicitSet["pc"] {
		pc, err := emu.ParseWord(opts.pc)
		if err != nil {
			return nil, fmt.Errorf("invalid -pc %q: %w", opts.pc, err)
		}
		cfg.InitialPC = pc
	}
	if opts.strict {
		cfg.FaultPolicy = emu.FaultPolicyStrict.String()
	}
	if opts.trace {
		cfg.Trace = true
	}
	if opts.explicitSet["budget"] {
		cfg.StepBudget = opts.budget
	}
	if opts.verbose {
		cfg.LogLevel = logrus.InfoLevel.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, programPath, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	if opts.savePath != "" {
		if err := cfg.SaveConfig(opts.savePath); err != nil {
			fmt.Fprintf(stderr, "Error saving config: %v\n", err)
			return 1
		}
		return 0
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	level, _ := cfg.Level() // validated
	logger.SetLevel(level)

	image, err := loader.Open(programPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	if !opts.explicitSet["pc"] && cfg.InitialPC == 0 {
		cfg.InitialPC = image.Entry
	}

	logger.WithFields(logrus.Fields{
		"path":  programPath,
		"bytes": len(image.Data),
		"base":  fmt.Sprintf("0x%08x", image.Base),
		"entry": fmt.Sprintf("0x%08x", cfg.InitialPC),
	}).Info("program loaded")

	if opts.dump {
		fmt.Fprintln(stdout, "File Hex Dump:")
		if err := loader.HexDump(stdout, image.Data); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	e, ic, err := newEmulator(cfg, image.Data, logger, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.scriptPath != "" {
		if err := script.Exec(e, opts.scriptPath, nil, stdout); err != nil {
			fmt.Fprintf(stderr, "Error running script: %v\n", err)
			return 1
		}
	} else {
		var consoleOpts []console.Option
		if ic != nil {
			consoleOpts = append(consoleOpts, console.WithCache(ic))
		}
		if err := console.New(e, stdout, consoleOpts...).Run(stdin); err != nil {
			fmt.Fprintf(stderr, "Error reading input: %v\n", err)
			return 1
		}
	}

	logger.WithFields(logrus.Fields{
		"instructions": e.InstructionCount(),
		"halted":       e.Halted(),
	}).Info("done")

	return 0
}

// newEmulator builds the emulator described by cfg, with the fetch cache in
// front of the image when enabled.
func newEmulator(
	cfg *config.Config,
	data []byte,
	logger logrus.FieldLogger,
	stdout io.Writer,
) (*emu.Emulator, *cache.InstructionCache, error) {
	program, err := emu.NewProgram(data)
	if err != nil {
		return nil, nil, err
	}

	policy, _ := cfg.Policy() // validated
	emuOpts := []emu.EmulatorOption{
		emu.WithLogger(logger),
		emu.WithInitialPC(cfg.InitialPC),
		emu.WithFaultPolicy(policy),
		emu.WithStepBudget(cfg.StepBudget),
	}
	if cfg.Trace {
		emuOpts = append(emuOpts, emu.WithTrace(stdout))
	}

	var ic *cache.InstructionCache
	if cfg.FetchCache.Enabled {
		ic, err = cache.New(cfg.FetchCache.Config, program)
		if err != nil {
			return nil, nil, err
		}
		emuOpts = append(emuOpts, emu.WithFetcher(ic))
	}

	return emu.NewEmulator(program, emuOpts...), ic, nil
}
