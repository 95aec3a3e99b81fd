// Package insts provides RV32I instruction definitions and decoding.
//
// This package implements decoding of RV32I machine code into structured
// instruction representations. It supports:
//   - Register-immediate ALU: ADDI, ANDI, ORI, XORI, SLTI, SLTIU, SLLI, SRLI, SRAI
//   - Register-register ALU: ADD, SUB, AND, OR, XOR, SLT, SLTU, SLL, SRL, SRA
//   - Upper immediates: LUI, AUIPC
//   - Indirect jump: JALR
//   - Conditional branches: BEQ, BNE, BLT, BGE, BLTU, BGEU
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00500093) // ADDI x1, x0, 5
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
package insts
