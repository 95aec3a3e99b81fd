package insts

// Field positions of the RV32I base encodings.
const (
	OpcodeWidth     = 7
	RdOffset        = 7
	Funct3Offset    = 12
	Rs1Offset       = 15
	Rs2Offset       = 20
	Funct7Offset    = 25
	IImmOffset      = 20
	UImmOffset      = 12
	RegIndexBits    = 5
	ShiftAmountBits = 5
)

// MaskLowBits returns a mask selecting the low n bits.
// Any n >= 32 selects the whole word.
func MaskLowBits(n uint) uint32 {
	if n >= 32 {
		return 0xFFFFFFFF
	}
	return (uint32(1) << n) - 1
}

// BitRange returns a mask selecting bits start..end, both inclusive.
func BitRange(start, end uint) uint32 {
	return MaskLowBits(end-start+1) << start
}

// Field extracts bits start..end (inclusive) of word, shifted down to bit 0.
func Field(word uint32, start, end uint) uint32 {
	return (word >> start) & MaskLowBits(end-start+1)
}

// SignExtend interprets the low bits of value as a two's complement number
// and widens it to 32 bits.
func SignExtend(value uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(value<<shift) >> shift
}

// ImmI returns the sign-extended 12-bit immediate of a register-immediate
// (or JALR) word. The field is the top 12 bits, so an arithmetic shift of
// the whole word keeps the sign.
func ImmI(word uint32) int32 {
	return int32(word) >> IImmOffset
}

// ImmU returns the upper immediate: bits 31:12 in place, low 12 bits zero.
func ImmU(word uint32) uint32 {
	return (word >> UImmOffset) << UImmOffset
}

// ImmB reconstructs the branch offset.
//
//	imm[12]   = word[31]
//	imm[11]   = word[7]
//	imm[10:5] = word[30:25]
//	imm[4:1]  = word[11:8]
//	imm[0]    = 0
func ImmB(word uint32) int32 {
	imm := Field(word, 31, 31)<<12 |
		Field(word, 7, 7)<<11 |
		Field(word, 25, 30)<<5 |
		Field(word, 8, 11)<<1
	return SignExtend(imm, 13)
}
