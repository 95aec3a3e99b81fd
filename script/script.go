// Package script drives an emulator from Starlark programs.
//
// A script sees these builtins:
//
//	step(n=1)       execute up to n instructions, returns the count executed
//	until(*conds)   step until every "pc=V" / "<reg>=V" condition holds
//	pc()            current program counter
//	reg(name)       register value by ABI or xN name
//	count()         instructions dispatched so far
//	halted()        whether a fatal fault stopped the emulator
//	fault()         description of the last fault, or None
//	trace(on)       switch the instruction trace on or off
//	reset()         restore the initial state
//
// Halting is not a script error; scripts check halted() instead.
package script

import (
	"errors"
	"fmt"
	"io"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/sarchlab/rv32emu/emu"
)

// Exec runs a Starlark program against e. src follows starlark.ExecFile: if
// nil the program is read from filename. print() writes to out, and so does
// the instruction trace when a script turns it on.
func Exec(e *emu.Emulator, filename string, src any, out io.Writer) error {
	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			_, _ = fmt.Fprintln(out, msg)
		},
	}
	opts := syntax.FileOptions{
		While:           true,
		TopLevelControl: true,
	}

	b := &builtins{e: e, out: out}
	_, err := starlark.ExecFileOptions(&opts, thread, filename, src, b.predeclared())
	return err
}

type builtins struct {
	e   *emu.Emulator
	out io.Writer
}

func (b *builtins) predeclared() starlark.StringDict {
	return starlark.StringDict{
		"step":   starlark.NewBuiltin("step", b.step),
		"until":  starlark.NewBuiltin("until", b.until),
		"pc":     starlark.NewBuiltin("pc", b.pc),
		"reg":    starlark.NewBuiltin("reg", b.reg),
		"count":  starlark.NewBuiltin("count", b.count),
		"halted": starlark.NewBuiltin("halted", b.halted),
		"fault":  starlark.NewBuiltin("fault", b.fault),
		"trace":  starlark.NewBuiltin("trace", b.trace),
		"reset":  starlark.NewBuiltin("reset", b.reset),
	}
}

func (b *builtins) step(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 1
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}

	steps, err := b.e.StepMultiple(n)
	if errors.Is(err, emu.ErrInvalidStepCount) {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}
	return starlark.MakeInt(steps), nil
}

func (b *builtins) until(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", fn.Name())
	}

	conds := make([]emu.Condition, 0, len(args))
	for i, arg := range args {
		s, ok := starlark.AsString(arg)
		if !ok {
			return nil, fmt.Errorf("%s: condition %d: got %s, want string", fn.Name(), i, arg.Type())
		}
		c, err := emu.ParseCondition(b.e.ISA().Registers(), s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name(), err)
		}
		conds = append(conds, c)
	}

	steps, err := b.e.StepUntil(conds)
	if errors.Is(err, emu.ErrStepBudgetExhausted) {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}
	return starlark.MakeInt(steps), nil
}

func (b *builtins) pc(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.MakeUint64(uint64(b.e.PC())), nil
}

func (b *builtins) reg(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name); err != nil {
		return nil, err
	}

	value, err := b.e.Register(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}
	return starlark.MakeUint64(uint64(value)), nil
}

func (b *builtins) count(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.MakeUint64(b.e.InstructionCount()), nil
}

func (b *builtins) halted(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.Bool(b.e.Halted()), nil
}

func (b *builtins) fault(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	if ft := b.e.Fault(); ft != nil {
		return starlark.String(ft.Error()), nil
	}
	return starlark.None, nil
}

func (b *builtins) trace(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var on bool
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "on", &on); err != nil {
		return nil, err
	}
	if on {
		b.e.SetTrace(b.out)
	} else {
		b.e.SetTrace(nil)
	}
	return starlark.None, nil
}

func (b *builtins) reset(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	b.e.Reset()
	return starlark.None, nil
}
