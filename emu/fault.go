package emu

import (
	"fmt"
	"strings"
)

// FaultKind classifies execution faults.
type FaultKind uint8

// Fault kinds.
const (
	// FaultUnknownOpcode: the major opcode matches no instruction class.
	FaultUnknownOpcode FaultKind = iota + 1
	// FaultUnknownFunct: known class, unrecognized function code.
	FaultUnknownFunct
	// FaultFetch: the PC does not address a word of the program image.
	FaultFetch
)

// String returns a short name of the fault kind.
func (k FaultKind) String() string {
	switch k {
	case FaultUnknownOpcode:
		return "unknown-opcode"
	case FaultUnknownFunct:
		return "unknown-funct"
	case FaultFetch:
		return "fetch"
	}
	return fmt.Sprintf("fault(%d)", uint8(k))
}

// Fatal reports whether the fault halts the emulator under every policy.
// Only unknown function codes are subject to the fault policy.
func (k FaultKind) Fatal() bool {
	return k != FaultUnknownFunct
}

func (k FaultKind) sentinel() error {
	switch k {
	case FaultUnknownOpcode:
		return ErrUnknownOpcode
	case FaultUnknownFunct:
		return ErrUnknownFunct
	case FaultFetch:
		return ErrFetch
	}
	return nil
}

// Fault describes an instruction that could not be executed normally.
type Fault struct {
	Kind FaultKind
	PC   uint32 // address of the faulting instruction
	Word uint32 // raw instruction word, zero for fetch faults
	Err  error  // underlying cause, if any
}

func (ft *Fault) Error() string {
	if ft.Err != nil {
		return f("%v at pc=0x%08x: %v", ft.Kind.sentinel(), ft.PC, ft.Err)
	}
	return f("%v 0x%08x at pc=0x%08x", ft.Kind.sentinel(), ft.Word, ft.PC)
}

// Unwrap returns the underlying cause.
func (ft *Fault) Unwrap() error {
	return ft.Err
}

// Is matches ErrFault and the sentinel of the fault's kind.
func (ft *Fault) Is(target error) bool {
	return target == ErrFault || target == ft.Kind.sentinel()
}

// FaultPolicy selects how unknown function codes are handled.
type FaultPolicy uint8

const (
	// FaultPolicyLenient logs unknown function codes and continues: no
	// register changes and the PC advances by 4 (branches not taken).
	FaultPolicyLenient FaultPolicy = iota
	// FaultPolicyStrict halts on unknown function codes, like on unknown
	// opcodes.
	FaultPolicyStrict
)

// String returns the policy name as used in configuration files.
func (p FaultPolicy) String() string {
	switch p {
	case FaultPolicyLenient:
		return "lenient"
	case FaultPolicyStrict:
		return "strict"
	}
	return fmt.Sprintf("policy(%d)", uint8(p))
}

// ParseFaultPolicy parses "lenient" or "strict".
func ParseFaultPolicy(s string) (FaultPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return FaultPolicyLenient, nil
	case "strict":
		return FaultPolicyStrict, nil
	}
	return FaultPolicyLenient, fmt.Errorf("unknown fault policy %q", s)
}
