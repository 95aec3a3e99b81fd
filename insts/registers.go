package insts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/rv32emu/translate"
)

// RegCount is the number of general-purpose registers.
const RegCount = 32

// ErrRegisterNotFound is returned when a register name does not resolve.
var ErrRegisterNotFound = errors.New(translate.From("register not found"))

// RegisterTable maps register indices to names and back.
type RegisterTable struct {
	abi   [RegCount]string
	index map[string]uint8
}

var defaultRegisters = mustNewRegisterTable([RegCount]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}, map[string]uint8{
	"fp": 8,
})

// NewRegisterTable builds a table from the ABI name of every register
// plus extra aliases. Names must be unique and non-empty.
func NewRegisterTable(abi [RegCount]string, aliases map[string]uint8) (*RegisterTable, error) {
	t := &RegisterTable{
		abi:   abi,
		index: make(map[string]uint8, 2*RegCount+len(aliases)),
	}

	add := func(name string, idx uint8) error {
		if name == "" {
			return fmt.Errorf("register %d: empty name", idx)
		}
		if idx >= RegCount {
			return fmt.Errorf("register name %q: index %d out of range", name, idx)
		}
		if prev, ok := t.index[name]; ok {
			return fmt.Errorf("register name %q used for x%d and x%d", name, prev, idx)
		}
		t.index[name] = idx
		return nil
	}

	for i := range uint8(RegCount) {
		if err := add("x"+strconv.Itoa(int(i)), i); err != nil {
			return nil, err
		}
		if err := add(abi[i], i); err != nil {
			return nil, err
		}
	}

	for name, idx := range aliases {
		if err := add(name, idx); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func mustNewRegisterTable(abi [RegCount]string, aliases map[string]uint8) *RegisterTable {
	t, err := NewRegisterTable(abi, aliases)
	if err != nil {
		panic(err)
	}
	return t
}

// Index resolves a register name (x<N>, ABI name or alias) to its index.
func (t *RegisterTable) Index(name string) (uint8, error) {
	if idx, ok := t.index[name]; ok {
		return idx, nil
	}

	// Non-canonical numeric forms such as "x05".
	if digits, ok := strings.CutPrefix(name, "x"); ok && digits != "" {
		n, err := strconv.ParseUint(digits, 10, 8)
		if err == nil && n < RegCount {
			return uint8(n), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrRegisterNotFound, name)
}

// Name returns the numeric name of a register, e.g. "x10".
func (t *RegisterTable) Name(idx uint8) string {
	return "x" + strconv.Itoa(int(idx))
}

// ABIName returns the calling-convention name of a register, e.g. "a0".
func (t *RegisterTable) ABIName(idx uint8) string {
	if idx >= RegCount {
		return ""
	}
	return t.abi[idx]
}

// RegisterIndex resolves a register name using the RV32I table.
func RegisterIndex(name string) (uint8, error) {
	return defaultRegisters.Index(name)
}
