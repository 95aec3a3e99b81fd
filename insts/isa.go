package insts

import (
	"fmt"
	"maps"
)

// Major opcodes (bits [6:0]) of the supported instruction classes.
const (
	OpcodeOpImm  uint32 = 0b0010011
	OpcodeOpReg  uint32 = 0b0110011
	OpcodeLUI    uint32 = 0b0110111
	OpcodeAUIPC  uint32 = 0b0010111
	OpcodeJALR   uint32 = 0b1100111
	OpcodeBranch uint32 = 0b1100011
)

// ALU function codes (funct3), shared by OP_IMM and OP_REG.
const (
	Funct3Add  uint32 = 0b000 // ADD/SUB
	Funct3SLL  uint32 = 0b001
	Funct3SLT  uint32 = 0b010
	Funct3SLTU uint32 = 0b011
	Funct3XOR  uint32 = 0b100
	Funct3SR   uint32 = 0b101 // SRL/SRA
	Funct3OR   uint32 = 0b110
	Funct3AND  uint32 = 0b111
)

// Branch function codes (funct3).
const (
	Funct3BEQ  uint32 = 0b000
	Funct3BNE  uint32 = 0b001
	Funct3BLT  uint32 = 0b100
	Funct3BGE  uint32 = 0b101
	Funct3BLTU uint32 = 0b110
	Funct3BGEU uint32 = 0b111
)

// Secondary function codes (funct7).
const (
	Funct7Base uint32 = 0b0000000
	Funct7Alt  uint32 = 0b0100000 // SUB, SRA, SRAI
)

// ISA is an immutable instruction-set definition: which major opcodes are
// recognized, which encoding format each one uses, and the register names.
type ISA struct {
	name      string
	formats   map[uint32]Format
	registers *RegisterTable
}

var rv32i = mustNewISA("rv32i", map[uint32]Format{
	OpcodeOpImm:  FormatRegImm,
	OpcodeOpReg:  FormatRegReg,
	OpcodeLUI:    FormatUpper,
	OpcodeAUIPC:  FormatUpper,
	OpcodeJALR:   FormatJumpReg,
	OpcodeBranch: FormatBranch,
}, defaultRegisters)

// RV32I returns the definition of the supported RV32I subset.
func RV32I() *ISA {
	return rv32i
}

// NewISA validates and builds an instruction-set definition.
// The formats map is copied; later changes to it have no effect.
func NewISA(name string, formats map[uint32]Format, registers *RegisterTable) (*ISA, error) {
	if registers == nil {
		return nil, fmt.Errorf("isa %s: register table missing", name)
	}

	for opcode, format := range formats {
		if opcode&^MaskLowBits(OpcodeWidth) != 0 {
			return nil, fmt.Errorf("isa %s: opcode 0x%x wider than %d bits", name, opcode, OpcodeWidth)
		}
		if format == FormatUnknown || format >= formatCount {
			return nil, fmt.Errorf("isa %s: opcode 0x%x has invalid format %d", name, opcode, format)
		}
	}

	return &ISA{
		name:      name,
		formats:   maps.Clone(formats),
		registers: registers,
	}, nil
}

func mustNewISA(name string, formats map[uint32]Format, registers *RegisterTable) *ISA {
	isa, err := NewISA(name, formats, registers)
	if err != nil {
		panic(err)
	}
	return isa
}

// Name returns the name of the instruction set.
func (isa *ISA) Name() string {
	return isa.name
}

// FormatOf returns the encoding format bound to a major opcode,
// or FormatUnknown.
func (isa *ISA) FormatOf(opcode uint32) Format {
	return isa.formats[opcode]
}

// Registers returns the register naming table.
func (isa *ISA) Registers() *RegisterTable {
	return isa.registers
}
