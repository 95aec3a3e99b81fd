package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32emu/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Register-immediate (OP_IMM)", func() {
		// ADDI x1, x0, 5 -> 0x00500093
		It("should decode ADDI x1, x0, 5", func() {
			inst := decoder.Decode(0x00500093)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Format).To(Equal(insts.FormatRegImm))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int32(5)))
			Expect(inst.Word).To(Equal(uint32(0x00500093)))
		})

		// ADDI x2, x1, 20 -> 0x01408113
		It("should decode ADDI x2, x1, 20", func() {
			inst := decoder.Decode(0x01408113)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Rd).To(Equal(uint8(2)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(20)))
		})

		// ADDI x1, x0, -1 -> 0xFFF00093
		It("should sign-extend negative immediates", func() {
			inst := decoder.Decode(0xFFF00093)
			Expect(inst.Imm).To(Equal(int32(-1)))
		})

		// SRAI x1, x2, 3 -> 0x40315093
		It("should decode SRAI from the funct7 pattern", func() {
			inst := decoder.Decode(0x40315093)

			Expect(inst.Op).To(Equal(insts.OpSRAI))
			Expect(inst.ShiftAmount()).To(Equal(uint32(3)))
		})

		// SRLI x1, x2, 3 -> 0x00315093
		It("should decode SRLI", func() {
			inst := decoder.Decode(0x00315093)

			Expect(inst.Op).To(Equal(insts.OpSRLI))
			Expect(inst.ShiftAmount()).To(Equal(uint32(3)))
		})

		DescribeTable("funct3 dispatch",
			func(funct3 uint32, op insts.Op) {
				inst := decoder.Decode(insts.EncodeI(insts.OpcodeOpImm, 1, funct3, 2, 7))
				Expect(inst.Op).To(Equal(op))
			},
			Entry("ADDI", insts.Funct3Add, insts.OpADDI),
			Entry("SLLI", insts.Funct3SLL, insts.OpSLLI),
			Entry("SLTI", insts.Funct3SLT, insts.OpSLTI),
			Entry("SLTIU", insts.Funct3SLTU, insts.OpSLTIU),
			Entry("XORI", insts.Funct3XOR, insts.OpXORI),
			Entry("SRLI", insts.Funct3SR, insts.OpSRLI),
			Entry("ORI", insts.Funct3OR, insts.OpORI),
			Entry("ANDI", insts.Funct3AND, insts.OpANDI),
		)
	})

	Describe("Register-register (OP_REG)", func() {
		// SUB x3, x1, x2 -> 0x402081B3
		It("should decode SUB x3, x1, x2", func() {
			inst := decoder.Decode(0x402081B3)

			Expect(inst.Op).To(Equal(insts.OpSUB))
			Expect(inst.Format).To(Equal(insts.FormatRegReg))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
			Expect(inst.Funct7).To(Equal(uint8(0x20)))
		})

		DescribeTable("funct3/funct7 dispatch",
			func(funct3, funct7 uint32, op insts.Op) {
				inst := decoder.Decode(insts.EncodeR(insts.OpcodeOpReg, 1, funct3, 2, 3, funct7))
				Expect(inst.Op).To(Equal(op))
			},
			Entry("ADD", insts.Funct3Add, insts.Funct7Base, insts.OpADD),
			Entry("SUB", insts.Funct3Add, insts.Funct7Alt, insts.OpSUB),
			Entry("SLL", insts.Funct3SLL, insts.Funct7Base, insts.OpSLL),
			Entry("SLT", insts.Funct3SLT, insts.Funct7Base, insts.OpSLT),
			Entry("SLTU", insts.Funct3SLTU, insts.Funct7Base, insts.OpSLTU),
			Entry("XOR", insts.Funct3XOR, insts.Funct7Base, insts.OpXOR),
			Entry("SRL", insts.Funct3SR, insts.Funct7Base, insts.OpSRL),
			Entry("SRA", insts.Funct3SR, insts.Funct7Alt, insts.OpSRA),
			Entry("OR", insts.Funct3OR, insts.Funct7Base, insts.OpOR),
			Entry("AND", insts.Funct3AND, insts.Funct7Base, insts.OpAND),
		)

		It("should leave ADD with an unknown funct7 undecoded", func() {
			// MUL x1, x2, x3 (M extension)
			inst := decoder.Decode(insts.EncodeR(insts.OpcodeOpReg, 1, insts.Funct3Add, 2, 3, 0b0000001))

			Expect(inst.Format).To(Equal(insts.FormatRegReg))
			Expect(inst.Op).To(Equal(insts.OpUnknown))
		})
	})

	Describe("Upper immediate", func() {
		// LUI x1, 0x12345 -> 0x123450B7
		It("should decode LUI", func() {
			inst := decoder.Decode(0x123450B7)

			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Format).To(Equal(insts.FormatUpper))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(uint32(inst.Imm)).To(Equal(uint32(0x12345000)))
		})

		// AUIPC x2, 1 -> 0x00001117
		It("should decode AUIPC", func() {
			inst := decoder.Decode(0x00001117)

			Expect(inst.Op).To(Equal(insts.OpAUIPC))
			Expect(inst.Rd).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(0x1000)))
		})
	})

	Describe("JALR", func() {
		// JALR x1, 0(x5) -> 0x000280E7
		It("should decode JALR x1, 0(x5)", func() {
			inst := decoder.Decode(0x000280E7)

			Expect(inst.Op).To(Equal(insts.OpJALR))
			Expect(inst.Format).To(Equal(insts.FormatJumpReg))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(5)))
			Expect(inst.Imm).To(Equal(int32(0)))
		})

		It("should sign-extend the offset", func() {
			inst := decoder.Decode(insts.JALR(0, 1, -8))
			Expect(inst.Imm).To(Equal(int32(-8)))
		})
	})

	Describe("Branches", func() {
		// BEQ x0, x0, 8 -> 0x00000463
		It("should decode BEQ x0, x0, 8", func() {
			inst := decoder.Decode(0x00000463)

			Expect(inst.Op).To(Equal(insts.OpBEQ))
			Expect(inst.Format).To(Equal(insts.FormatBranch))
			Expect(inst.Imm).To(Equal(int32(8)))
		})

		// BNE x1, x2, -4 -> 0xFE209EE3
		It("should decode BNE x1, x2, -4", func() {
			inst := decoder.Decode(0xFE209EE3)

			Expect(inst.Op).To(Equal(insts.OpBNE))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(-4)))
		})

		DescribeTable("funct3 dispatch",
			func(funct3 uint32, op insts.Op) {
				Expect(decoder.Decode(insts.EncodeB(funct3, 1, 2, 16)).Op).To(Equal(op))
			},
			Entry("BEQ", insts.Funct3BEQ, insts.OpBEQ),
			Entry("BNE", insts.Funct3BNE, insts.OpBNE),
			Entry("BLT", insts.Funct3BLT, insts.OpBLT),
			Entry("BGE", insts.Funct3BGE, insts.OpBGE),
			Entry("BLTU", insts.Funct3BLTU, insts.OpBLTU),
			Entry("BGEU", insts.Funct3BGEU, insts.OpBGEU),
			Entry("reserved 010", uint32(0b010), insts.OpUnknown),
			Entry("reserved 011", uint32(0b011), insts.OpUnknown),
		)
	})

	Describe("Unknown opcodes", func() {
		It("should mark the all-zero word unknown", func() {
			inst := decoder.Decode(0x00000000)

			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(inst.Format).To(Equal(insts.FormatUnknown))
		})

		It("should not decode out-of-scope classes", func() {
			Expect(decoder.Decode(0x0000006F).Format).To(Equal(insts.FormatUnknown)) // JAL
			Expect(decoder.Decode(0x00002003).Format).To(Equal(insts.FormatUnknown)) // LW
			Expect(decoder.Decode(0x00000073).Format).To(Equal(insts.FormatUnknown)) // ECALL
		})
	})

	Describe("Disassembly", func() {
		It("should render each format", func() {
			Expect(decoder.Decode(0x00500093).String()).To(Equal("addi x1, x0, 5"))
			Expect(decoder.Decode(0x402081B3).String()).To(Equal("sub x3, x1, x2"))
			Expect(decoder.Decode(0x40315093).String()).To(Equal("srai x1, x2, 3"))
			Expect(decoder.Decode(0x123450B7).String()).To(Equal("lui x1, 0x12345"))
			Expect(decoder.Decode(0x000280E7).String()).To(Equal("jalr x1, 0(x5)"))
			Expect(decoder.Decode(0xFE209EE3).String()).To(Equal("bne x1, x2, -4"))
			Expect(decoder.Decode(0x0000007F).String()).To(Equal(".word 0x0000007f"))
		})
	})
})
