package emu_test

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sarchlab/rv32emu/emu"
	"github.com/sarchlab/rv32emu/insts"
)

// A word whose opcode matches no RV32I instruction class.
const badOpcodeWord = uint32(0x0000007F)

var _ = Describe("Emulator", func() {
	var (
		logger *logrus.Logger
		hook   *test.Hook
	)

	BeforeEach(func() {
		logger, hook = test.NewNullLogger()
	})

	newEmulator := func(words []uint32, opts ...emu.EmulatorOption) *emu.Emulator {
		opts = append([]emu.EmulatorOption{emu.WithLogger(logger)}, opts...)
		return emu.NewEmulator(emu.NewProgramFromWords(words...), opts...)
	}

	Describe("Construction", func() {
		It("should start with zeroed state", func() {
			e := newEmulator([]uint32{insts.ADDI(1, 0, 5)})

			Expect(e.PC()).To(Equal(uint32(0)))
			Expect(e.InstructionCount()).To(Equal(uint64(0)))
			Expect(e.Halted()).To(BeFalse())
			Expect(e.Fault()).To(BeNil())
			Expect(e.State().Registers).To(Equal([32]uint32{}))
		})

		It("should start at the initial PC", func() {
			e := newEmulator([]uint32{0, insts.ADDI(1, 0, 5)}, emu.WithInitialPC(4))

			Expect(e.PC()).To(Equal(uint32(4)))
			e.Step()
			Expect(e.RegFile().ReadReg(1)).To(Equal(uint32(5)))
		})
	})

	Describe("Step", func() {
		It("should execute ADDI", func() {
			e := newEmulator([]uint32{insts.ADDI(1, 0, 5)})

			result := e.Step()

			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Inst.Op).To(Equal(insts.OpADDI))
			Expect(e.RegFile().ReadReg(1)).To(Equal(uint32(5)))
			Expect(e.PC()).To(Equal(uint32(4)))
			Expect(e.InstructionCount()).To(Equal(uint64(1)))
		})

		It("should execute SUB after two ADDIs", func() {
			e := newEmulator([]uint32{
				insts.ADDI(1, 0, 10),
				insts.ADDI(2, 0, 3),
				insts.SUB(3, 1, 2),
			})

			Expect(e.StepMultiple(3)).To(Equal(3))
			Expect(e.RegFile().ReadReg(3)).To(Equal(uint32(7)))
			Expect(e.PC()).To(Equal(uint32(12)))
		})

		It("should load upper immediates", func() {
			e := newEmulator([]uint32{insts.LUI(1, 0x12345)})

			e.Step()

			Expect(e.RegFile().ReadReg(1)).To(Equal(uint32(0x12345000)))
			Expect(e.PC()).To(Equal(uint32(4)))
		})

		It("should add upper immediates to the PC", func() {
			e := newEmulator([]uint32{0, 0, insts.AUIPC(1, 1)}, emu.WithInitialPC(8))

			e.Step()

			Expect(e.RegFile().ReadReg(1)).To(Equal(uint32(0x1008)))
		})

		It("should keep x0 zero", func() {
			e := newEmulator([]uint32{
				insts.ADDI(0, 0, 5),
				insts.LUI(0, 1),
				insts.ADD(0, 0, 0),
			})

			Expect(e.StepMultiple(3)).To(Equal(3))
			Expect(e.RegFile().ReadReg(0)).To(Equal(uint32(0)))
			Expect(e.InstructionCount()).To(Equal(uint64(3)))
		})

		It("should jump with JALR and link the return address", func() {
			e := newEmulator([]uint32{
				insts.ADDI(5, 0, 13),
				insts.JALR(1, 5, 0),
				0,
				insts.ADDI(2, 0, 1),
			})

			Expect(e.StepMultiple(2)).To(Equal(2))
			Expect(e.PC()).To(Equal(uint32(12)))
			Expect(e.RegFile().ReadReg(1)).To(Equal(uint32(8)))
		})

		It("should take and skip branches", func() {
			e := newEmulator([]uint32{
				insts.ADDI(1, 0, 1),
				insts.BNE(1, 0, 8),
				insts.ADDI(2, 0, 1),
				insts.BEQ(1, 0, 8),
				insts.ADDI(3, 0, 1),
			})

			Expect(e.StepMultiple(2)).To(Equal(2))
			Expect(e.PC()).To(Equal(uint32(12)))

			Expect(e.StepMultiple(2)).To(Equal(2))
			Expect(e.PC()).To(Equal(uint32(20)))
			Expect(e.RegFile().ReadReg(2)).To(Equal(uint32(0)))
			Expect(e.RegFile().ReadReg(3)).To(Equal(uint32(1)))
		})

		It("should write a trace line per instruction", func() {
			var buf bytes.Buffer
			e := newEmulator([]uint32{insts.ADDI(1, 0, 5)}, emu.WithTrace(&buf))

			Expect(e.Tracing()).To(BeTrue())
			e.Step()

			Expect(buf.String()).To(Equal("00000000: 00500093  addi x1, x0, 5\n"))

			e.SetTrace(nil)
			Expect(e.Tracing()).To(BeFalse())
		})
	})

	Describe("Faults", func() {
		It("should halt on an unknown opcode without changing state", func() {
			e := newEmulator([]uint32{insts.ADDI(1, 0, 5), badOpcodeWord})
			e.Step()

			result := e.Step()

			Expect(result.Halted).To(BeTrue())
			Expect(result.Err).To(MatchError(emu.ErrUnknownOpcode))
			Expect(e.Halted()).To(BeTrue())
			Expect(e.PC()).To(Equal(uint32(4)))
			Expect(e.InstructionCount()).To(Equal(uint64(1)))
			Expect(e.Fault().Kind).To(Equal(emu.FaultUnknownOpcode))
			Expect(e.Fault().Word).To(Equal(badOpcodeWord))
			Expect(hook.LastEntry().Level).To(Equal(logrus.ErrorLevel))
			Expect(hook.LastEntry().Data).To(HaveKeyWithValue("kind", "unknown-opcode"))
		})

		It("should refuse to step once halted", func() {
			e := newEmulator([]uint32{badOpcodeWord})
			e.Step()

			result := e.Step()

			Expect(result.Err).To(MatchError(emu.ErrHalted))
			Expect(errors.Is(result.Err, emu.ErrUnknownOpcode)).To(BeTrue())
			Expect(e.PC()).To(Equal(uint32(0)))
		})

		It("should halt when the PC leaves the image", func() {
			e := newEmulator([]uint32{insts.ADDI(1, 0, 5)})

			Expect(e.StepMultiple(2)).Error().To(MatchError(emu.ErrFetchOutOfRange))
			Expect(e.Halted()).To(BeTrue())
			Expect(e.Fault().Kind).To(Equal(emu.FaultFetch))
			Expect(e.PC()).To(Equal(uint32(4)))
			Expect(e.InstructionCount()).To(Equal(uint64(1)))
		})

		It("should halt on a misaligned PC", func() {
			e := newEmulator([]uint32{
				insts.ADDI(5, 0, 6),
				insts.JALR(0, 5, 0),
				0,
			})

			n, err := e.StepMultiple(3)

			Expect(n).To(Equal(2))
			Expect(err).To(MatchError(emu.ErrFetchMisaligned))
			Expect(e.PC()).To(Equal(uint32(6)))
		})

		Context("with an unknown function code", func() {
			// add with funct7 = 0000001 (mul)
			mul := insts.EncodeR(insts.OpcodeOpReg, 3, insts.Funct3Add, 1, 2, 0b0000001)

			It("should skip it under the lenient policy", func() {
				e := newEmulator([]uint32{insts.ADDI(3, 0, 9), mul, insts.ADDI(4, 0, 1)})

				Expect(e.StepMultiple(2)).To(Equal(2))
				Expect(e.RegFile().ReadReg(3)).To(Equal(uint32(9)))
				Expect(e.PC()).To(Equal(uint32(8)))
				Expect(e.InstructionCount()).To(Equal(uint64(2)))
				Expect(e.Halted()).To(BeFalse())
				Expect(hook.LastEntry().Level).To(Equal(logrus.WarnLevel))

				result := e.Step()
				Expect(result.Err).NotTo(HaveOccurred())
				Expect(e.RegFile().ReadReg(4)).To(Equal(uint32(1)))
			})

			It("should report the fault on the step result", func() {
				e := newEmulator([]uint32{mul})

				result := e.Step()

				Expect(result.Err).NotTo(HaveOccurred())
				Expect(result.Fault).NotTo(BeNil())
				Expect(result.Fault.Kind).To(Equal(emu.FaultUnknownFunct))
			})

			It("should not take a reserved branch under the lenient policy", func() {
				e := newEmulator([]uint32{insts.EncodeB(0b010, 0, 0, 8)})

				e.Step()

				Expect(e.PC()).To(Equal(uint32(4)))
				Expect(e.Halted()).To(BeFalse())
			})

			It("should halt under the strict policy", func() {
				e := newEmulator([]uint32{mul}, emu.WithFaultPolicy(emu.FaultPolicyStrict))

				result := e.Step()

				Expect(result.Err).To(MatchError(emu.ErrUnknownFunct))
				Expect(e.Halted()).To(BeTrue())
				Expect(e.PC()).To(Equal(uint32(0)))
				Expect(e.InstructionCount()).To(Equal(uint64(0)))
				Expect(e.FaultPolicy()).To(Equal(emu.FaultPolicyStrict))
			})
		})
	})

	Describe("StepMultiple", func() {
		It("should reject negative counts without changing state", func() {
			e := newEmulator([]uint32{insts.ADDI(1, 0, 5)})

			n, err := e.StepMultiple(-1)

			Expect(n).To(Equal(0))
			Expect(err).To(MatchError(emu.ErrInvalidStepCount))
			Expect(e.State()).To(Equal(emu.State{}))
		})

		It("should do nothing for zero", func() {
			e := newEmulator([]uint32{insts.ADDI(1, 0, 5)})

			Expect(e.StepMultiple(0)).To(Equal(0))
			Expect(e.InstructionCount()).To(Equal(uint64(0)))
		})
	})

	Describe("StepUntil", func() {
		// loop: addi x1, x1, 1; beq x0, x0, -4
		loop := []uint32{insts.ADDI(1, 1, 1), insts.BEQ(0, 0, -4)}

		It("should not step for an empty condition set", func() {
			e := newEmulator(loop)

			Expect(e.StepUntil(nil)).To(Equal(0))
			Expect(e.InstructionCount()).To(Equal(uint64(0)))
		})

		It("should not step when the conditions already hold", func() {
			e := newEmulator(loop)

			Expect(e.StepUntil([]emu.Condition{emu.PCEquals(0)})).To(Equal(0))
		})

		It("should run until a register reaches a value", func() {
			e := newEmulator(loop)

			Expect(e.StepUntil([]emu.Condition{emu.RegEquals(1, 5)})).To(Equal(9))
			Expect(e.PC()).To(Equal(uint32(4)))
		})

		It("should require all conditions at once", func() {
			e := newEmulator(loop)

			steps, err := e.StepUntil([]emu.Condition{emu.PCEquals(0), emu.RegEquals(1, 3)})

			Expect(err).NotTo(HaveOccurred())
			Expect(steps).To(Equal(6))
			Expect(e.RegFile().ReadReg(1)).To(Equal(uint32(3)))
			Expect(e.InstructionCount()).To(Equal(uint64(6)))
		})

		It("should stop when the step budget runs out", func() {
			e := newEmulator(loop, emu.WithStepBudget(10))

			steps, err := e.StepUntil([]emu.Condition{emu.RegEquals(2, 1)})

			Expect(steps).To(Equal(10))
			Expect(err).To(MatchError(emu.ErrStepBudgetExhausted))
			Expect(e.Halted()).To(BeFalse())
			Expect(hook.LastEntry().Level).To(Equal(logrus.WarnLevel))
		})

		It("should apply the budget per call", func() {
			e := newEmulator(loop, emu.WithStepBudget(10))

			Expect(e.StepUntil([]emu.Condition{emu.RegEquals(1, 4)})).To(Equal(7))
			Expect(e.StepUntil([]emu.Condition{emu.RegEquals(1, 8)})).To(Equal(8))
		})

		It("should stop when the emulator halts", func() {
			e := newEmulator([]uint32{insts.ADDI(1, 0, 1), badOpcodeWord})

			steps, err := e.StepUntil([]emu.Condition{emu.RegEquals(1, 2)})

			Expect(steps).To(Equal(1))
			Expect(err).To(MatchError(emu.ErrUnknownOpcode))
		})
	})

	Describe("Registers and state", func() {
		It("should resolve register names", func() {
			e := newEmulator([]uint32{insts.ADDI(10, 0, 42)})
			e.Step()

			Expect(e.Register("a0")).To(Equal(uint32(42)))
			Expect(e.Register("x10")).To(Equal(uint32(42)))

			_, err := e.Register("bogus")
			Expect(err).To(MatchError(insts.ErrRegisterNotFound))
		})

		It("should snapshot the state", func() {
			e := newEmulator([]uint32{insts.ADDI(2, 0, -1)})
			e.Step()

			s := e.State()

			Expect(s.PC).To(Equal(uint32(4)))
			Expect(s.Registers[2]).To(Equal(uint32(0xFFFFFFFF)))
			Expect(s.InstructionCount).To(Equal(uint64(1)))
			Expect(s.Halted).To(BeFalse())
		})

		It("should reset to the initial state", func() {
			e := newEmulator([]uint32{insts.ADDI(1, 0, 1), badOpcodeWord})
			_, _ = e.StepMultiple(2)
			Expect(e.Halted()).To(BeTrue())

			e.Reset()

			Expect(e.State()).To(Equal(emu.State{}))
			Expect(e.Step().Err).NotTo(HaveOccurred())
		})
	})

	Describe("WithFetcher", func() {
		It("should fetch through the given source", func() {
			words := emu.NewProgramFromWords(insts.ADDI(1, 0, 7))
			counter := &countingFetcher{next: words}
			e := emu.NewEmulator(words, emu.WithLogger(logger), emu.WithFetcher(counter))

			e.Step()

			Expect(counter.fetches).To(Equal(1))
			Expect(e.RegFile().ReadReg(1)).To(Equal(uint32(7)))
		})
	})
})

type countingFetcher struct {
	next    emu.InstructionFetcher
	fetches int
}

func (c *countingFetcher) Fetch(addr uint32) (uint32, error) {
	c.fetches++
	return c.next.Fetch(addr)
}
