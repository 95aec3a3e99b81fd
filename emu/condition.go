package emu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/rv32emu/insts"
)

// ConditionKind selects what a Condition compares.
type ConditionKind uint8

// Condition kinds.
const (
	ConditionPC ConditionKind = iota
	ConditionRegister
)

// Condition is a predicate over architectural state: either
// "pc == Value" or "x[Reg] == Value".
type Condition struct {
	Kind  ConditionKind
	Reg   uint8
	Value uint32
}

// PCEquals returns the condition pc == value.
func PCEquals(value uint32) Condition {
	return Condition{Kind: ConditionPC, Value: value}
}

// RegEquals returns the condition x[reg] == value.
func RegEquals(reg uint8, value uint32) Condition {
	return Condition{Kind: ConditionRegister, Reg: reg, Value: value}
}

// Holds evaluates the condition against a register file.
func (c Condition) Holds(r *RegFile) bool {
	switch c.Kind {
	case ConditionPC:
		return r.PC == c.Value
	case ConditionRegister:
		return r.ReadReg(c.Reg) == c.Value
	}
	return false
}

func (c Condition) String() string {
	if c.Kind == ConditionPC {
		return fmt.Sprintf("pc=0x%08x", c.Value)
	}
	return fmt.Sprintf("x%d=0x%08x", c.Reg, c.Value)
}

// ParseCondition parses "pc=<value>" or "<register>=<value>". Register names
// are resolved with regs; values accept Go integer syntax (0x.., 0b..) and
// negative numbers down to -2^31.
func ParseCondition(regs *insts.RegisterTable, s string) (Condition, error) {
	name, valueText, ok := strings.Cut(strings.TrimSpace(s), "=")
	name = strings.TrimSpace(name)
	valueText = strings.TrimSpace(valueText)
	if !ok || name == "" || valueText == "" {
		return Condition{}, fmt.Errorf("%w: %q", ErrConditionSyntax, s)
	}

	value, err := ParseWord(valueText)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: %q: %v", ErrConditionSyntax, s, err)
	}

	if name == "pc" {
		return PCEquals(value), nil
	}

	reg, err := regs.Index(name)
	if err != nil {
		return Condition{}, err
	}
	return RegEquals(reg, value), nil
}

// ParseWord parses a 32-bit value written as a signed or unsigned integer.
func ParseWord(s string) (uint32, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, err
	}
	if v < -(1<<31) || v > (1<<32)-1 {
		return 0, fmt.Errorf("%s does not fit in 32 bits", s)
	}
	return uint32(v), nil
}

// ConditionsMet reports whether every condition holds. An empty set holds.
func ConditionsMet(r *RegFile, conds []Condition) bool {
	for _, c := range conds {
		if !c.Holds(r) {
			return false
		}
	}
	return true
}
