package emu

import (
	"errors"

	"github.com/sarchlab/rv32emu/translate"
)

var f = translate.From

var (
	// Stepper errors
	ErrInvalidStepCount    = errors.New(f("step count cannot be negative"))
	ErrHalted              = errors.New(f("emulator halted"))
	ErrStepBudgetExhausted = errors.New(f("step budget exhausted"))

	// Program image errors
	ErrProgramLength   = errors.New(f("program length is not a multiple of 4"))
	ErrFetchOutOfRange = errors.New(f("fetch outside program image"))
	ErrFetchMisaligned = errors.New(f("fetch at misaligned pc"))

	// Faults
	ErrFault         = errors.New(f("fault"))
	ErrUnknownOpcode = errors.New(f("unknown opcode"))
	ErrUnknownFunct  = errors.New(f("unknown function code"))
	ErrFetch         = errors.New(f("instruction fetch failed"))

	// Conditions
	ErrConditionSyntax = errors.New(f("condition syntax"))
)
