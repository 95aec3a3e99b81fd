package emu

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32emu/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Inst is the decoded instruction, nil if nothing was fetched.
	Inst *insts.Instruction

	// Fault is set when the instruction raised a fault, fatal or not.
	Fault *Fault

	// Halted is true if the emulator is halted after this step.
	Halted bool

	// Err is set if the step did not execute: a fatal fault, or the
	// emulator was already halted.
	Err error
}

// State is a snapshot of the architectural state.
type State struct {
	PC               uint32
	Registers        [insts.RegCount]uint32
	InstructionCount uint64
	Halted           bool
	Fault            *Fault
}

// Emulator executes RV32I instructions functionally.
type Emulator struct {
	isa     *insts.ISA
	decoder *insts.Decoder
	regFile *RegFile
	program *Program
	fetcher InstructionFetcher

	// Execution units
	alu        *ALU
	branchUnit *BranchUnit

	// Diagnostics
	logger logrus.FieldLogger
	trace  io.Writer

	policy     FaultPolicy
	stepBudget uint64 // 0 means no limit
	initialPC  uint32

	// Execution state
	instructionCount uint64
	halted           bool
	fault            *Fault
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithInitialPC sets the PC the emulator starts from (and resets to).
func WithInitialPC(pc uint32) EmulatorOption {
	return func(e *Emulator) {
		e.initialPC = pc
	}
}

// WithTrace writes one line per fetched instruction to w.
func WithTrace(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.trace = w
	}
}

// WithLogger sets the logger receiving fault diagnostics.
func WithLogger(logger logrus.FieldLogger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

// WithFaultPolicy selects how unknown function codes are handled.
func WithFaultPolicy(policy FaultPolicy) EmulatorOption {
	return func(e *Emulator) {
		e.policy = policy
	}
}

// WithStepBudget bounds the number of steps a single StepUntil call may
// take. A value of 0 means no limit.
func WithStepBudget(budget uint64) EmulatorOption {
	return func(e *Emulator) {
		e.stepBudget = budget
	}
}

// WithFetcher replaces the instruction source, e.g. with a fetch cache in
// front of the program image.
func WithFetcher(fetcher InstructionFetcher) EmulatorOption {
	return func(e *Emulator) {
		e.fetcher = fetcher
	}
}

// WithISA sets the instruction-set definition used for decoding and
// register naming.
func WithISA(isa *insts.ISA) EmulatorOption {
	return func(e *Emulator) {
		e.isa = isa
	}
}

// NewEmulator creates a new emulator over a program image. Registers start
// at zero and the PC at the initial PC (0 unless WithInitialPC is given).
func NewEmulator(program *Program, opts ...EmulatorOption) *Emulator {
	regFile := &RegFile{}

	e := &Emulator{
		isa:     insts.RV32I(),
		regFile: regFile,
		program: program,
		fetcher: program,
		logger:  logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.decoder = insts.NewDecoderWithISA(e.isa)
	e.alu = NewALU(regFile)
	e.branchUnit = NewBranchUnit(regFile)
	regFile.PC = e.initialPC

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Program returns the program image.
func (e *Emulator) Program() *Program {
	return e.program
}

// ISA returns the instruction-set definition.
func (e *Emulator) ISA() *insts.ISA {
	return e.isa
}

// PC returns the program counter.
func (e *Emulator) PC() uint32 {
	return e.regFile.PC
}

// InstructionCount returns the number of instructions dispatched.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Halted reports whether a fatal fault stopped the emulator.
func (e *Emulator) Halted() bool {
	return e.halted
}

// Fault returns the fault that halted the emulator, or nil.
func (e *Emulator) Fault() *Fault {
	return e.fault
}

// FaultPolicy returns the configured fault policy.
func (e *Emulator) FaultPolicy() FaultPolicy {
	return e.policy
}

// SetTrace enables (non-nil w) or disables the instruction trace.
func (e *Emulator) SetTrace(w io.Writer) {
	e.trace = w
}

// Tracing reports whether the instruction trace is enabled.
func (e *Emulator) Tracing() bool {
	return e.trace != nil
}

// Register resolves a register name and returns its value.
func (e *Emulator) Register(name string) (uint32, error) {
	idx, err := e.isa.Registers().Index(name)
	if err != nil {
		return 0, err
	}
	return e.regFile.ReadReg(idx), nil
}

// State returns a snapshot of the architectural state.
func (e *Emulator) State() State {
	return State{
		PC:               e.regFile.PC,
		Registers:        e.regFile.X,
		InstructionCount: e.instructionCount,
		Halted:           e.halted,
		Fault:            e.fault,
	}
}

// Reset clears the registers, the counter and the halted state and moves
// the PC back to the initial PC.
func (e *Emulator) Reset() {
	e.regFile.Reset(e.initialPC)
	e.instructionCount = 0
	e.halted = false
	e.fault = nil
}

// ConditionsMet reports whether every condition holds right now.
func (e *Emulator) ConditionsMet(conds []Condition) bool {
	return ConditionsMet(e.regFile, conds)
}

// Step executes a single instruction.
//
// An unknown opcode or a failed fetch halts the emulator: the PC, the
// registers and the instruction count are left as they were. An unknown
// function code halts only under FaultPolicyStrict; under the lenient
// policy it is logged, no register changes, the PC advances by 4 and the
// instruction counts as dispatched. Once halted, Step does nothing and
// returns ErrHalted.
func (e *Emulator) Step() StepResult {
	if e.halted {
		return StepResult{
			Halted: true,
			Fault:  e.fault,
			Err:    fmt.Errorf("%w: %w", ErrHalted, e.fault),
		}
	}

	pc := e.regFile.PC

	// 1. Fetch
	word, err := e.fetcher.Fetch(pc)
	if err != nil {
		return e.halt(nil, &Fault{Kind: FaultFetch, PC: pc, Err: err})
	}

	// 2. Decode
	inst := e.decoder.Decode(word)

	if e.trace != nil {
		_, _ = fmt.Fprintf(e.trace, "%08x: %08x  %v\n", pc, word, inst)
	}

	if inst.Format == insts.FormatUnknown {
		return e.halt(inst, &Fault{Kind: FaultUnknownOpcode, PC: pc, Word: word})
	}

	// 3. Execute
	if !e.execute(inst) {
		fault := &Fault{Kind: FaultUnknownFunct, PC: pc, Word: word}
		if e.policy == FaultPolicyStrict {
			return e.halt(inst, fault)
		}

		e.logFault(fault).Warn(f("unrecognized function code, instruction skipped"))
		e.regFile.PC += 4
		e.instructionCount++

		return StepResult{Inst: inst, Fault: fault}
	}

	e.instructionCount++

	return StepResult{Inst: inst}
}

// StepMultiple executes n instructions and returns how many were executed.
// A negative n fails with ErrInvalidStepCount before anything runs. The
// loop stops early if the emulator halts.
func (e *Emulator) StepMultiple(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStepCount, n)
	}

	for i := 0; i < n; i++ {
		if result := e.Step(); result.Err != nil {
			return i, result.Err
		}
	}

	return n, nil
}

// StepUntil steps until every condition holds and returns the number of
// steps taken. An empty or already satisfied set takes no step. It stops
// with an error if the emulator halts or the step budget runs out.
func (e *Emulator) StepUntil(conds []Condition) (int, error) {
	steps := 0

	for !e.ConditionsMet(conds) {
		if e.stepBudget > 0 && uint64(steps) >= e.stepBudget {
			e.logger.WithFields(logrus.Fields{
				"pc":     fmt.Sprintf("0x%08x", e.regFile.PC),
				"budget": e.stepBudget,
			}).Warn(f("step budget exhausted before conditions were met"))
			return steps, fmt.Errorf("%w after %d steps", ErrStepBudgetExhausted, steps)
		}

		if result := e.Step(); result.Err != nil {
			return steps, result.Err
		}
		steps++
	}

	return steps, nil
}

// execute dispatches a decoded instruction to its execution unit.
// It returns false for an unknown function code, with no state changed.
func (e *Emulator) execute(inst *insts.Instruction) bool {
	switch inst.Format {
	case insts.FormatRegImm:
		if !e.alu.ExecuteImm(inst) {
			return false
		}
	case insts.FormatRegReg:
		if !e.alu.ExecuteReg(inst) {
			return false
		}
	case insts.FormatUpper:
		switch inst.Op {
		case insts.OpLUI:
			e.alu.LUI(inst.Rd, uint32(inst.Imm))
		case insts.OpAUIPC:
			e.alu.AUIPC(inst.Rd, uint32(inst.Imm))
		default:
			return false
		}
	case insts.FormatJumpReg:
		e.branchUnit.JALR(inst.Rd, inst.Rs1, inst.Imm)
		return true // PC already updated
	case insts.FormatBranch:
		return e.branchUnit.Branch(inst) // PC already updated
	default:
		return false
	}

	// Advance PC by 4 (for non-branch instructions)
	e.regFile.PC += 4

	return true
}

// halt records a fatal fault and stops the emulator.
func (e *Emulator) halt(inst *insts.Instruction, fault *Fault) StepResult {
	e.halted = true
	e.fault = fault

	e.logFault(fault).Error(f("execution halted"))

	return StepResult{
		Inst:   inst,
		Fault:  fault,
		Halted: true,
		Err:    fault,
	}
}

func (e *Emulator) logFault(fault *Fault) logrus.FieldLogger {
	fields := logrus.Fields{
		"kind": fault.Kind.String(),
		"pc":   fmt.Sprintf("0x%08x", fault.PC),
	}
	if fault.Kind != FaultFetch {
		fields["word"] = fmt.Sprintf("0x%08x", fault.Word)
	}
	if fault.Err != nil {
		fields["cause"] = fault.Err.Error()
	}
	return e.logger.WithFields(fields)
}
