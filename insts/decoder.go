package insts

// Op represents an RV32I operation.
type Op uint16

// RV32I operations.
const (
	OpUnknown Op = iota
	OpADDI
	OpANDI
	OpORI
	OpXORI
	OpSLTI
	OpSLTIU
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpAND
	OpOR
	OpXOR
	OpSLT
	OpSLTU
	OpSLL
	OpSRL
	OpSRA
	OpLUI
	OpAUIPC
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
)

var opNames = [...]string{
	OpUnknown: "unknown",
	OpADDI:    "addi",
	OpANDI:    "andi",
	OpORI:     "ori",
	OpXORI:    "xori",
	OpSLTI:    "slti",
	OpSLTIU:   "sltiu",
	OpSLLI:    "slli",
	OpSRLI:    "srli",
	OpSRAI:    "srai",
	OpADD:     "add",
	OpSUB:     "sub",
	OpAND:     "and",
	OpOR:      "or",
	OpXOR:     "xor",
	OpSLT:     "slt",
	OpSLTU:    "sltu",
	OpSLL:     "sll",
	OpSRL:     "srl",
	OpSRA:     "sra",
	OpLUI:     "lui",
	OpAUIPC:   "auipc",
	OpJALR:    "jalr",
	OpBEQ:     "beq",
	OpBNE:     "bne",
	OpBLT:     "blt",
	OpBGE:     "bge",
	OpBLTU:    "bltu",
	OpBGEU:    "bgeu",
}

// String returns the assembler mnemonic of the operation.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "unknown"
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatRegImm         // OP_IMM (I-type)
	FormatRegReg         // OP_REG (R-type)
	FormatUpper          // LUI, AUIPC (U-type)
	FormatJumpReg        // JALR (I-type)
	FormatBranch         // Conditional branch (B-type)
	formatCount
)

// Instruction represents a decoded RV32I instruction.
type Instruction struct {
	Op     Op     // Operation code
	Format Format // Encoding format
	Word   uint32 // Raw instruction word

	Opcode uint8 // bits [6:0]
	Rd     uint8 // Destination register
	Rs1    uint8 // First source register
	Rs2    uint8 // Second source register
	Funct3 uint8 // bits [14:12]
	Funct7 uint8 // bits [31:25]

	// Imm is the reconstructed immediate, already sign-extended.
	// For upper-immediate instructions it holds the value with the low
	// 12 bits clear.
	Imm int32
}

// ShiftAmount returns the shift amount of an immediate shift.
func (inst *Instruction) ShiftAmount() uint32 {
	return uint32(inst.Imm) & MaskLowBits(ShiftAmountBits)
}

// Decoder decodes RV32I machine code into instructions.
type Decoder struct {
	isa *ISA
}

// NewDecoder creates a new decoder for the RV32I subset.
func NewDecoder() *Decoder {
	return &Decoder{isa: RV32I()}
}

// NewDecoderWithISA creates a decoder bound to the given definition.
func NewDecoderWithISA(isa *ISA) *Decoder {
	return &Decoder{isa: isa}
}

// ISA returns the instruction-set definition used by the decoder.
func (d *Decoder) ISA() *ISA {
	return d.isa
}

// Decode decodes a 32-bit RV32I instruction word.
//
// An unrecognized major opcode yields FormatUnknown. A recognized opcode
// with an unrecognized function code keeps its format and yields OpUnknown.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Op:     OpUnknown,
		Word:   word,
		Opcode: uint8(word & MaskLowBits(OpcodeWidth)),
		Rd:     uint8(Field(word, RdOffset, RdOffset+RegIndexBits-1)),
		Rs1:    uint8(Field(word, Rs1Offset, Rs1Offset+RegIndexBits-1)),
		Rs2:    uint8(Field(word, Rs2Offset, Rs2Offset+RegIndexBits-1)),
		Funct3: uint8(Field(word, Funct3Offset, Funct3Offset+2)),
		Funct7: uint8(word >> Funct7Offset),
	}

	inst.Format = d.isa.FormatOf(uint32(inst.Opcode))

	switch inst.Format {
	case FormatRegImm:
		d.decodeRegImm(inst)
	case FormatRegReg:
		d.decodeRegReg(inst)
	case FormatUpper:
		d.decodeUpper(inst)
	case FormatJumpReg:
		inst.Op = OpJALR
		inst.Imm = ImmI(word)
	case FormatBranch:
		d.decodeBranch(inst)
	}

	return inst
}

// decodeRegImm decodes OP_IMM instructions.
// Format: imm[11:0] | rs1 | funct3 | rd | opcode
func (d *Decoder) decodeRegImm(inst *Instruction) {
	inst.Imm = ImmI(inst.Word)

	switch uint32(inst.Funct3) {
	case Funct3Add:
		inst.Op = OpADDI
	case Funct3AND:
		inst.Op = OpANDI
	case Funct3OR:
		inst.Op = OpORI
	case Funct3XOR:
		inst.Op = OpXORI
	case Funct3SLT:
		inst.Op = OpSLTI
	case Funct3SLTU:
		inst.Op = OpSLTIU
	case Funct3SLL:
		inst.Op = OpSLLI
	case Funct3SR:
		// imm[11:5] doubles as funct7 for the right shifts.
		if uint32(inst.Funct7) == Funct7Alt {
			inst.Op = OpSRAI
		} else {
			inst.Op = OpSRLI
		}
	}
}

// decodeRegReg decodes OP_REG instructions.
// Format: funct7 | rs2 | rs1 | funct3 | rd | opcode
func (d *Decoder) decodeRegReg(inst *Instruction) {
	funct7 := uint32(inst.Funct7)

	switch uint32(inst.Funct3) {
	case Funct3Add:
		switch funct7 {
		case Funct7Base:
			inst.Op = OpADD
		case Funct7Alt:
			inst.Op = OpSUB
		}
	case Funct3AND:
		inst.Op = OpAND
	case Funct3OR:
		inst.Op = OpOR
	case Funct3XOR:
		inst.Op = OpXOR
	case Funct3SLT:
		inst.Op = OpSLT
	case Funct3SLTU:
		inst.Op = OpSLTU
	case Funct3SLL:
		inst.Op = OpSLL
	case Funct3SR:
		if funct7 == Funct7Alt {
			inst.Op = OpSRA
		} else {
			inst.Op = OpSRL
		}
	}
}

// decodeUpper decodes LUI and AUIPC.
// Format: imm[31:12] | rd | opcode
func (d *Decoder) decodeUpper(inst *Instruction) {
	inst.Imm = int32(ImmU(inst.Word))

	switch uint32(inst.Opcode) {
	case OpcodeLUI:
		inst.Op = OpLUI
	case OpcodeAUIPC:
		inst.Op = OpAUIPC
	}
}

// decodeBranch decodes conditional branches.
// Format: imm[12|10:5] | rs2 | rs1 | funct3 | imm[4:1|11] | opcode
func (d *Decoder) decodeBranch(inst *Instruction) {
	inst.Imm = ImmB(inst.Word)

	switch uint32(inst.Funct3) {
	case Funct3BEQ:
		inst.Op = OpBEQ
	case Funct3BNE:
		inst.Op = OpBNE
	case Funct3BLT:
		inst.Op = OpBLT
	case Funct3BGE:
		inst.Op = OpBGE
	case Funct3BLTU:
		inst.Op = OpBLTU
	case Funct3BGEU:
		inst.Op = OpBGEU
	}
}
