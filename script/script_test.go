package script_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sarchlab/rv32emu/emu"
	"github.com/sarchlab/rv32emu/insts"
	"github.com/sarchlab/rv32emu/script"
)

var _ = Describe("Exec", func() {
	var (
		e   *emu.Emulator
		out *bytes.Buffer
	)

	BeforeEach(func() {
		logger, _ := test.NewNullLogger()
		// loop: addi x1, x1, 1; beq x0, x0, -4
		program := emu.NewProgramFromWords(insts.ADDI(1, 1, 1), insts.BEQ(0, 0, -4))
		e = emu.NewEmulator(program, emu.WithLogger(logger), emu.WithStepBudget(100))
		out = &bytes.Buffer{}
	})

	run := func(src string) error {
		return script.Exec(e, "test.star", src, out)
	}

	It("should step and inspect", func() {
		Expect(run(`
print(step())
print(step(2))
print(pc(), reg("ra"), reg("x1"), count())
`)).To(Succeed())

		Expect(out.String()).To(Equal("1\n2\n4 2 2 3\n"))
	})

	It("should run until conditions hold", func() {
		Expect(run(`print(until("x1=5"))`)).To(Succeed())
		Expect(e.RegFile().ReadReg(1)).To(Equal(uint32(5)))
		Expect(out.String()).To(Equal("9\n"))
	})

	It("should support loops at top level", func() {
		Expect(run(`
n = 0
while reg("x1") < 3:
    step()
    n += 1
print(n)
`)).To(Succeed())
		Expect(out.String()).To(Equal("5\n"))
	})

	It("should report registers as unsigned values", func() {
		program := emu.NewProgramFromWords(insts.ADDI(2, 0, -1))
		e = emu.NewEmulator(program)

		Expect(run(`step()
print(reg("sp") == 0xFFFFFFFF)`)).To(Succeed())
		Expect(out.String()).To(Equal("True\n"))
	})

	It("should expose halts without failing", func() {
		logger, _ := test.NewNullLogger()
		e = emu.NewEmulator(emu.NewProgramFromWords(0x7F), emu.WithLogger(logger))

		Expect(run(`
print(halted(), fault())
step()
print(halted(), fault() != None)
`)).To(Succeed())
		Expect(out.String()).To(Equal("False None\nTrue True\n"))
	})

	It("should reset the emulator", func() {
		Expect(run(`
step(3)
reset()
print(pc(), count(), reg("x1"))
`)).To(Succeed())
		Expect(out.String()).To(Equal("0 0 0\n"))
	})

	It("should write the trace to the output", func() {
		Expect(run(`
trace(True)
step()
trace(False)
step()
`)).To(Succeed())
		Expect(out.String()).To(Equal("00000000: 00108093  addi x1, x1, 1\n"))
	})

	Describe("errors", func() {
		It("should reject negative step counts", func() {
			Expect(run(`step(-1)`)).To(MatchError(emu.ErrInvalidStepCount))
		})

		It("should reject unknown registers", func() {
			Expect(run(`reg("q9")`)).To(MatchError(insts.ErrRegisterNotFound))
		})

		It("should reject malformed conditions", func() {
			Expect(run(`until("x1")`)).To(MatchError(emu.ErrConditionSyntax))
			Expect(run(`until(5)`)).To(MatchError(ContainSubstring("want string")))
		})

		It("should fail when the step budget runs out", func() {
			Expect(run(`until("x2=1")`)).To(MatchError(emu.ErrStepBudgetExhausted))
		})

		It("should report syntax errors", func() {
			Expect(run(`step(`)).To(HaveOccurred())
		})
	})

	It("should read the program from a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "prog.star")
		Expect(os.WriteFile(path, []byte("step(4)\nprint(reg('x1'))\n"), 0o644)).To(Succeed())

		Expect(script.Exec(e, path, nil, out)).To(Succeed())
		Expect(out.String()).To(Equal("2\n"))
	})
})
