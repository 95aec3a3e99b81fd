package insts

// EncodeR encodes a register-register instruction.
func EncodeR(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return funct7<<Funct7Offset | rs2<<Rs2Offset | rs1<<Rs1Offset |
		funct3<<Funct3Offset | rd<<RdOffset | opcode
}

// EncodeI encodes a register-immediate instruction. Only the low 12 bits
// of imm are kept.
func EncodeI(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&MaskLowBits(12))<<IImmOffset | rs1<<Rs1Offset |
		funct3<<Funct3Offset | rd<<RdOffset | opcode
}

// EncodeU encodes an upper-immediate instruction from the 20-bit value
// that ends up in bits [31:12].
func EncodeU(opcode, rd, imm20 uint32) uint32 {
	return (imm20&MaskLowBits(20))<<UImmOffset | rd<<RdOffset | opcode
}

// EncodeB encodes a conditional branch with a byte offset. Bit 0 of the
// offset is dropped.
func EncodeB(funct3, rs1, rs2 uint32, offset int32) uint32 {
	imm := uint32(offset)
	return Field(imm, 12, 12)<<31 |
		Field(imm, 5, 10)<<25 |
		rs2<<Rs2Offset | rs1<<Rs1Offset | funct3<<Funct3Offset |
		Field(imm, 1, 4)<<8 |
		Field(imm, 11, 11)<<7 |
		OpcodeBranch
}

// ADDI encodes ADDI rd, rs1, imm.
func ADDI(rd, rs1 uint32, imm int32) uint32 {
	return EncodeI(OpcodeOpImm, rd, Funct3Add, rs1, imm)
}

// ADD encodes ADD rd, rs1, rs2.
func ADD(rd, rs1, rs2 uint32) uint32 {
	return EncodeR(OpcodeOpReg, rd, Funct3Add, rs1, rs2, Funct7Base)
}

// SUB encodes SUB rd, rs1, rs2.
func SUB(rd, rs1, rs2 uint32) uint32 {
	return EncodeR(OpcodeOpReg, rd, Funct3Add, rs1, rs2, Funct7Alt)
}

// LUI encodes LUI rd, imm20.
func LUI(rd, imm20 uint32) uint32 {
	return EncodeU(OpcodeLUI, rd, imm20)
}

// AUIPC encodes AUIPC rd, imm20.
func AUIPC(rd, imm20 uint32) uint32 {
	return EncodeU(OpcodeAUIPC, rd, imm20)
}

// JALR encodes JALR rd, imm(rs1).
func JALR(rd, rs1 uint32, imm int32) uint32 {
	return EncodeI(OpcodeJALR, rd, 0, rs1, imm)
}

// BEQ encodes BEQ rs1, rs2, offset.
func BEQ(rs1, rs2 uint32, offset int32) uint32 {
	return EncodeB(Funct3BEQ, rs1, rs2, offset)
}

// BNE encodes BNE rs1, rs2, offset.
func BNE(rs1, rs2 uint32, offset int32) uint32 {
	return EncodeB(Funct3BNE, rs1, rs2, offset)
}
