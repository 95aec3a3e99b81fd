package insts

import "fmt"

// String disassembles the instruction using numeric register names.
func (inst *Instruction) String() string {
	if inst.Format == FormatUnknown {
		return fmt.Sprintf(".word 0x%08x", inst.Word)
	}
	if inst.Op == OpUnknown {
		return fmt.Sprintf("unknown funct3=%d funct7=0x%02x", inst.Funct3, inst.Funct7)
	}

	switch inst.Format {
	case FormatRegImm:
		switch inst.Op {
		case OpSLLI, OpSRLI, OpSRAI:
			return fmt.Sprintf("%v x%d, x%d, %d", inst.Op, inst.Rd, inst.Rs1, inst.ShiftAmount())
		}
		return fmt.Sprintf("%v x%d, x%d, %d", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
	case FormatRegReg:
		return fmt.Sprintf("%v x%d, x%d, x%d", inst.Op, inst.Rd, inst.Rs1, inst.Rs2)
	case FormatUpper:
		return fmt.Sprintf("%v x%d, 0x%x", inst.Op, inst.Rd, uint32(inst.Imm)>>UImmOffset)
	case FormatJumpReg:
		return fmt.Sprintf("%v x%d, %d(x%d)", inst.Op, inst.Rd, inst.Imm, inst.Rs1)
	case FormatBranch:
		return fmt.Sprintf("%v x%d, x%d, %d", inst.Op, inst.Rs1, inst.Rs2, inst.Imm)
	}

	return fmt.Sprintf(".word 0x%08x", inst.Word)
}
