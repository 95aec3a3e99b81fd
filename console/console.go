// Package console implements the interactive line-based front end of the
// emulator.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/k0kubun/pp/v3"

	"github.com/sarchlab/rv32emu/cache"
	"github.com/sarchlab/rv32emu/emu"
	"github.com/sarchlab/rv32emu/insts"
	"github.com/sarchlab/rv32emu/script"
	"github.com/sarchlab/rv32emu/translate"
)

var f = translate.From

var (
	// ErrUnknownCommand is returned for input that names no command.
	ErrUnknownCommand = errors.New(f("unknown command"))
	// ErrUsage is returned when a command gets the wrong arguments.
	ErrUsage = errors.New(f("usage"))
)

// DefaultPrompt is printed before every command.
const DefaultPrompt = ">> "

// regsPerLine is the number of registers printed on one line.
const regsPerLine = 4

// Console reads commands from an input stream and runs them against an
// emulator.
type Console struct {
	e      *emu.Emulator
	out    io.Writer
	cache  *cache.InstructionCache
	prompt string
	pretty *pp.PrettyPrinter
}

// Option is a functional option for configuring the Console.
type Option func(*Console)

// WithCache reports statistics of the given fetch cache on "stats".
func WithCache(c *cache.InstructionCache) Option {
	return func(con *Console) {
		con.cache = c
	}
}

// WithPrompt replaces the default prompt. An empty prompt prints nothing.
func WithPrompt(prompt string) Option {
	return func(con *Console) {
		con.prompt = prompt
	}
}

// New creates a console writing to out.
func New(e *emu.Emulator, out io.Writer, opts ...Option) *Console {
	pretty := pp.New()
	pretty.SetColoringEnabled(false)

	con := &Console{
		e:      e,
		out:    out,
		prompt: DefaultPrompt,
		pretty: pretty,
	}

	for _, opt := range opts {
		opt(con)
	}

	return con
}

// Run executes commands read from in until "quit" or end of input. A failed
// command is reported and the console keeps going; only read errors are
// returned.
func (c *Console) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for {
		if c.prompt != "" {
			_, _ = fmt.Fprint(c.out, c.prompt)
		}

		if !scanner.Scan() {
			if c.prompt != "" {
				_, _ = fmt.Fprintln(c.out)
			}
			return scanner.Err()
		}

		quit, err := c.Execute(scanner.Text())
		if err != nil {
			_, _ = fmt.Fprintln(c.out, f("error: %v", err))
		}
		if quit {
			return nil
		}
	}
}

// Execute runs a single command line. quit is true for "quit".
func (c *Console) Execute(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false, nil
	}

	name, args := fields[0], fields[1:]
	cmd, ok := lookup(name)
	if !ok {
		return false, fmt.Errorf("%w %q, try \"help\"", ErrUnknownCommand, name)
	}
	if cmd.quit {
		return true, nil
	}

	return false, cmd.run(c, args)
}

type command struct {
	name    string
	alias   string
	usage   string
	summary string
	quit    bool
	run     func(c *Console, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{name: "step", alias: "s", usage: "step [n]", summary: "execute n instructions (default 1)", run: (*Console).step},
		{name: "until", alias: "u", usage: "until <cond>...", summary: "step until every pc=V / reg=V condition holds", run: (*Console).until},
		{name: "regs", alias: "r", usage: "regs [abi] [dec]", summary: "print all registers", run: (*Console).regs},
		{name: "reg", usage: "reg <name> [dec]", summary: "print one register", run: (*Console).reg},
		{name: "pc", usage: "pc", summary: "print the program counter", run: (*Console).pc},
		{name: "count", usage: "count", summary: "print the number of instructions executed", run: (*Console).count},
		{name: "stats", usage: "stats", summary: "print fetch cache statistics", run: (*Console).stats},
		{name: "dump", usage: "dump", summary: "print the full emulator state", run: (*Console).dump},
		{name: "trace", usage: "trace on|off", summary: "switch the instruction trace", run: (*Console).trace},
		{name: "reset", usage: "reset", summary: "restore the initial state", run: (*Console).reset},
		{name: "source", usage: "source <file>", summary: "run a Starlark script", run: (*Console).source},
		{name: "help", alias: "h", usage: "help", summary: "list commands", run: (*Console).help},
		{name: "quit", alias: "q", usage: "quit", summary: "leave the console", quit: true},
	}
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if name == cmd.name || (cmd.alias != "" && name == cmd.alias) {
			return cmd, true
		}
	}
	return command{}, false
}

func usageError(usage string) error {
	return fmt.Errorf("%w: %s", ErrUsage, usage)
}

func (c *Console) step(args []string) error {
	if len(args) > 1 {
		return usageError("step [n]")
	}

	n := 1
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return usageError("step [n]")
		}
		n = v
	}

	_, err := c.e.StepMultiple(n)
	return err
}

func (c *Console) until(args []string) error {
	conds := make([]emu.Condition, 0, len(args))
	for _, arg := range args {
		cond, err := emu.ParseCondition(c.e.ISA().Registers(), arg)
		if err != nil {
			return err
		}
		conds = append(conds, cond)
	}

	steps, err := c.e.StepUntil(conds)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.out, f("reached after %d steps", steps))
	return err
}

func (c *Console) regs(args []string) error {
	useABI, useDecimal := false, false
	for _, arg := range args {
		switch arg {
		case "abi":
			useABI = true
		case "dec":
			useDecimal = true
		default:
			return usageError("regs [abi] [dec]")
		}
	}

	regs := c.e.ISA().Registers()
	var sb strings.Builder
	for i := uint8(0); i < insts.RegCount; i++ {
		name := regs.Name(i)
		if useABI {
			name = regs.ABIName(i)
		}

		fmt.Fprintf(&sb, "%5s: %s", name, formatWord(c.e.RegFile().ReadReg(i), useDecimal))
		if (i+1)%regsPerLine == 0 {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}

	_, err := io.WriteString(c.out, sb.String())
	return err
}

func (c *Console) reg(args []string) error {
	if len(args) == 0 || len(args) > 2 || (len(args) == 2 && args[1] != "dec") {
		return usageError("reg <name> [dec]")
	}

	value, err := c.e.Register(args[0])
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.out, strings.TrimSpace(formatWord(value, len(args) == 2)))
	return err
}

func (c *Console) pc(args []string) error {
	_, err := fmt.Fprintln(c.out, formatWord(c.e.PC(), false))
	return err
}

func (c *Console) count(args []string) error {
	_, err := fmt.Fprintln(c.out, c.e.InstructionCount())
	return err
}

func (c *Console) stats(args []string) error {
	if c.cache == nil {
		_, err := fmt.Fprintln(c.out, f("fetch cache disabled"))
		return err
	}

	s := c.cache.Stats()
	cfg := c.cache.Config()
	_, err := fmt.Fprintf(c.out,
		"fetch cache %dB %d-way %dB lines: reads=%d hits=%d misses=%d evictions=%d hit-rate=%.2f%%\n",
		cfg.Size, cfg.Associativity, cfg.BlockSize,
		s.Reads, s.Hits, s.Misses, s.Evictions, 100*s.HitRate())
	return err
}

func (c *Console) dump(args []string) error {
	_, err := c.pretty.Fprintln(c.out, c.e.State())
	return err
}

func (c *Console) trace(args []string) error {
	if len(args) != 1 {
		return usageError("trace on|off")
	}

	switch args[0] {
	case "on":
		c.e.SetTrace(c.out)
	case "off":
		c.e.SetTrace(nil)
	default:
		return usageError("trace on|off")
	}
	return nil
}

func (c *Console) reset(args []string) error {
	c.e.Reset()
	if c.cache != nil {
		c.cache.Reset()
	}
	return nil
}

func (c *Console) source(args []string) error {
	if len(args) != 1 {
		return usageError("source <file>")
	}
	return script.Exec(c.e, args[0], nil, c.out)
}

func (c *Console) help(args []string) error {
	var sb strings.Builder
	for _, cmd := range commands {
		usage := cmd.usage
		if cmd.alias != "" {
			usage += " (" + cmd.alias + ")"
		}
		fmt.Fprintf(&sb, "  %-24s %s\n", usage, f(cmd.summary))
	}

	_, err := io.WriteString(c.out, sb.String())
	return err
}

// formatWord prints a register value as 0x%08x, or as a right-aligned
// unsigned decimal.
func formatWord(v uint32, decimal bool) string {
	if decimal {
		return fmt.Sprintf("%10d", v)
	}
	return fmt.Sprintf("0x%08x", v)
}
