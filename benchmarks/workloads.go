package benchmarks

import (
	"github.com/sarchlab/rv32emu/emu"
	"github.com/sarchlab/rv32emu/insts"
)

// GetWorkloads returns the standard set of RV32I workloads. Each one ends
// by reaching the address just past its last instruction.
func GetWorkloads() []Workload {
	return []Workload{
		arithmeticSequential(),
		dependencyChain(),
		countedLoop(),
		functionCalls(),
		branchHeavy(),
		mixedOperations(),
	}
}

// GetCoreWorkloads returns a minimal set for quick validation: a loop,
// calls and branch-heavy code.
func GetCoreWorkloads() []Workload {
	return []Workload{
		countedLoop(),
		functionCalls(),
		branchHeavy(),
	}
}

// 1. Arithmetic Sequential - independent register-immediate adds
func arithmeticSequential() Workload {
	var words []uint32
	for i := 0; i < 4; i++ {
		for rd := uint32(1); rd <= 5; rd++ {
			words = append(words, insts.ADDI(rd, rd, 1))
		}
	}

	return Workload{
		Name:        "arithmetic_sequential",
		Description: "20 independent ADDI operations over 5 registers",
		Program:     words,
		Expected:    map[string]uint32{"x1": 4, "x5": 4},
	}
}

// 2. Dependency Chain - every add reads the previous result
func dependencyChain() Workload {
	return Workload{
		Name:        "dependency_chain",
		Description: "20 dependent ADDIs (x1 = x1 + 1)",
		Program:     repeat(insts.ADDI(1, 1, 1), 20),
		Expected:    map[string]uint32{"x1": 20},
	}
}

// 3. Counted Loop - a backward branch taken 999 times
func countedLoop() Workload {
	return Workload{
		Name:        "counted_loop",
		Description: "1000 iterations of ADDI + BNE",
		Program: []uint32{
			insts.ADDI(2, 0, 1000), // x2 = 1000
			insts.ADDI(1, 1, 1),    // loop: x1++
			insts.BNE(1, 2, -4),    // until x1 == x2
		},
		Expected: map[string]uint32{"x1": 1000},
	}
}

// 4. Function Calls - AUIPC/JALR call and return
func functionCalls() Workload {
	return Workload{
		Name:        "function_calls",
		Description: "3 calls to a leaf function through JALR",
		Program: []uint32{
			insts.ADDI(10, 0, 0),  // 0x00: a0 = 0
			insts.AUIPC(5, 0),     // 0x04: t0 = 0x04
			insts.JALR(1, 5, 20),  // 0x08: call 0x18
			insts.JALR(1, 5, 20),  // 0x0c: call 0x18
			insts.JALR(1, 5, 20),  // 0x10: call 0x18
			insts.JALR(0, 5, 28),  // 0x14: jump to end (0x20)
			insts.ADDI(10, 10, 1), // 0x18: a0++
			insts.JALR(0, 1, 0),   // 0x1c: return
		},
		Expected: map[string]uint32{"a0": 3, "ra": 0x14},
	}
}

// 5. Branch Heavy - alternating taken and not-taken forward branches
func branchHeavy() Workload {
	return Workload{
		Name:        "branch_heavy",
		Description: "100 iterations with a data-dependent forward branch",
		Program: []uint32{
			insts.ADDI(2, 0, 100), // 0x00: x2 = 100
			insts.ADDI(1, 1, 1),   // 0x04: x1++
			andi(3, 1, 1),         // 0x08: x3 = x1 & 1
			insts.BEQ(3, 0, 8),    // 0x0c: skip when even
			insts.ADDI(4, 4, 1),   // 0x10: x4++ (odd)
			insts.BNE(1, 2, -16),  // 0x14: back to 0x04
		},
		Expected: map[string]uint32{"x1": 100, "x4": 50},
	}
}

// 6. Mixed Operations - upper immediates, shifts, logic and compares
func mixedOperations() Workload {
	return Workload{
		Name:        "mixed_operations",
		Description: "LUI/ADDI constant build followed by shifts, XOR and SLTU",
		Program: []uint32{
			insts.LUI(1, 0x12345),   // x1 = 0x12345000
			insts.ADDI(1, 1, 0x678), // x1 = 0x12345678
			srli(2, 1, 4),
			regOp(insts.Funct3XOR, 3, 1, 2),
			regOp(insts.Funct3SLTU, 4, 2, 1),
			insts.SUB(5, 2, 1),
			srai(6, 5, 8),
		},
		Expected: map[string]uint32{
			"x1": 0x12345678,
			"x2": 0x01234567,
			"x3": 0x1317131F,
			"x4": 1,
			"x5": 0xEEEEEEEF,
			"x6": 0xFFEEEEEE,
		},
	}
}

func andi(rd, rs1 uint32, imm int32) uint32 {
	return insts.EncodeI(insts.OpcodeOpImm, rd, insts.Funct3AND, rs1, imm)
}

func srli(rd, rs1 uint32, shamt int32) uint32 {
	return insts.EncodeI(insts.OpcodeOpImm, rd, insts.Funct3SR, rs1, shamt)
}

func srai(rd, rs1 uint32, shamt int32) uint32 {
	return insts.EncodeI(insts.OpcodeOpImm, rd, insts.Funct3SR, rs1, int32(insts.Funct7Alt<<5)|shamt)
}

func regOp(funct3, rd, rs1, rs2 uint32) uint32 {
	return insts.EncodeR(insts.OpcodeOpReg, rd, funct3, rs1, rs2, insts.Funct7Base)
}

func repeat(word uint32, n int) []uint32 {
	words := make([]uint32, n)
	for i := range words {
		words[i] = word
	}
	return words
}

// endOf returns the condition reached when a workload runs off its last
// instruction.
func endOf(w Workload) []emu.Condition {
	return []emu.Condition{emu.PCEquals(uint32(4 * len(w.Program)))}
}
