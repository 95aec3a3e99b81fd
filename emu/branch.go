package emu

import "github.com/sarchlab/rv32emu/insts"

// BranchUnit implements RV32I control transfer: JALR and the conditional
// branches.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// JALR jumps to (rs1 + imm) with bit 0 cleared and writes the return
// address (PC + 4) to rd.
func (b *BranchUnit) JALR(rd, rs1 uint8, imm int32) {
	// Read target first (in case rd == rs1)
	target := (b.regFile.ReadReg(rs1) + uint32(imm)) &^ 1

	b.regFile.WriteReg(rd, b.regFile.PC+4)
	b.regFile.PC = target
}

// Branch performs a conditional branch. If the condition holds the PC
// moves by the branch offset, otherwise by 4.
// It returns false, leaving the PC untouched, for an unknown comparison.
func (b *BranchUnit) Branch(inst *insts.Instruction) bool {
	taken, ok := b.CheckCondition(inst.Op, b.regFile.ReadReg(inst.Rs1), b.regFile.ReadReg(inst.Rs2))
	if !ok {
		return false
	}

	if taken {
		b.regFile.PC += uint32(inst.Imm)
	} else {
		b.regFile.PC += 4
	}
	return true
}

// CheckCondition evaluates the comparison of a branch operation.
// ok is false when op is not a branch.
func (b *BranchUnit) CheckCondition(op insts.Op, rs1, rs2 uint32) (taken, ok bool) {
	switch op {
	case insts.OpBEQ:
		return rs1 == rs2, true
	case insts.OpBNE:
		return rs1 != rs2, true
	case insts.OpBLT:
		return int32(rs1) < int32(rs2), true
	case insts.OpBGE:
		return int32(rs1) >= int32(rs2), true
	case insts.OpBLTU:
		return rs1 < rs2, true
	case insts.OpBGEU:
		return rs1 >= rs2, true
	default:
		return false, false
	}
}
