package emu

import "github.com/sarchlab/rv32emu/insts"

// ALU implements the RV32I integer register-immediate, register-register
// and upper-immediate operations.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// ExecuteImm executes an OP_IMM instruction: rd = rs1 op imm.
// It returns false, leaving the registers untouched, when the operation is
// not a register-immediate one.
func (a *ALU) ExecuteImm(inst *insts.Instruction) bool {
	src := a.regFile.ReadReg(inst.Rs1)
	imm := uint32(inst.Imm)
	shamt := inst.ShiftAmount()

	var result uint32
	switch inst.Op {
	case insts.OpADDI:
		result = src + imm
	case insts.OpANDI:
		result = src & imm
	case insts.OpORI:
		result = src | imm
	case insts.OpXORI:
		result = src ^ imm
	case insts.OpSLTI:
		result = boolToWord(int32(src) < inst.Imm)
	case insts.OpSLTIU:
		result = boolToWord(src < imm)
	case insts.OpSLLI:
		result = src << shamt
	case insts.OpSRLI:
		result = src >> shamt
	case insts.OpSRAI:
		result = uint32(int32(src) >> shamt)
	default:
		return false
	}

	a.regFile.WriteReg(inst.Rd, result)
	return true
}

// ExecuteReg executes an OP_REG instruction: rd = rs1 op rs2.
// Shift amounts are the low 5 bits of rs2.
// It returns false, leaving the registers untouched, when the operation is
// not a register-register one.
func (a *ALU) ExecuteReg(inst *insts.Instruction) bool {
	op1 := a.regFile.ReadReg(inst.Rs1)
	op2 := a.regFile.ReadReg(inst.Rs2)
	shamt := op2 & insts.MaskLowBits(insts.ShiftAmountBits)

	var result uint32
	switch inst.Op {
	case insts.OpADD:
		result = op1 + op2
	case insts.OpSUB:
		result = op1 - op2
	case insts.OpAND:
		result = op1 & op2
	case insts.OpOR:
		result = op1 | op2
	case insts.OpXOR:
		result = op1 ^ op2
	case insts.OpSLT:
		result = boolToWord(int32(op1) < int32(op2))
	case insts.OpSLTU:
		result = boolToWord(op1 < op2)
	case insts.OpSLL:
		result = op1 << shamt
	case insts.OpSRL:
		result = op1 >> shamt
	case insts.OpSRA:
		result = uint32(int32(op1) >> shamt)
	default:
		return false
	}

	a.regFile.WriteReg(inst.Rd, result)
	return true
}

// LUI loads an upper immediate: rd = imm (low 12 bits already zero).
func (a *ALU) LUI(rd uint8, imm uint32) {
	a.regFile.WriteReg(rd, imm)
}

// AUIPC adds an upper immediate to the PC: rd = pc + imm.
func (a *ALU) AUIPC(rd uint8, imm uint32) {
	a.regFile.WriteReg(rd, a.regFile.PC+imm)
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
