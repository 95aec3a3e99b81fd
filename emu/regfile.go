// Package emu provides functional RV32I emulation.
package emu

import "github.com/sarchlab/rv32emu/insts"

// RegFile represents the RV32I register file.
// It contains 32 general-purpose registers (x0-x31) and the program counter.
type RegFile struct {
	// X holds general-purpose registers x0-x31.
	// X[0] is hardwired to zero: it always reads as 0 and ignores writes.
	X [insts.RegCount]uint32

	// PC is the program counter, a byte offset into the program image.
	PC uint32
}

// ReadReg reads a register value. Register 0 and indices >= 32 return 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= insts.RegCount {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to register 0 and to
// indices >= 32 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= insts.RegCount {
		return
	}
	r.X[reg] = value
}

// Reset clears every register and sets the PC.
func (r *RegFile) Reset(pc uint32) {
	r.X = [insts.RegCount]uint32{}
	r.PC = pc
}
