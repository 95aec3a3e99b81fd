package emu

import (
	"encoding/binary"
	"fmt"
	"io"
	"slices"
)

// InstructionFetcher supplies the instruction word stored at a byte address.
type InstructionFetcher interface {
	Fetch(addr uint32) (uint32, error)
}

// Program is a read-only program image: raw little-endian instruction
// words without any header.
type Program struct {
	data []byte
}

// NewProgram copies data into a new program image. The length must be a
// multiple of 4.
func NewProgram(data []byte) (*Program, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrProgramLength, len(data))
	}
	return &Program{data: slices.Clone(data)}, nil
}

// NewProgramFromWords builds a program image from instruction words.
func NewProgramFromWords(words ...uint32) *Program {
	data := make([]byte, 0, 4*len(words))
	for _, w := range words {
		data = binary.LittleEndian.AppendUint32(data, w)
	}
	return &Program{data: data}
}

// Len returns the size of the image in bytes.
func (p *Program) Len() int {
	return len(p.data)
}

// Contains reports whether a full word at addr lies inside the image.
func (p *Program) Contains(addr uint32) bool {
	return uint64(addr)+4 <= uint64(len(p.data))
}

// Fetch reads the little-endian word at addr. The address must be word
// aligned and inside the image.
func (p *Program) Fetch(addr uint32) (uint32, error) {
	if addr%4 != 0 {
		return 0, fmt.Errorf("%w: 0x%08x", ErrFetchMisaligned, addr)
	}
	if !p.Contains(addr) {
		return 0, fmt.Errorf("%w: 0x%08x (image is %d bytes)", ErrFetchOutOfRange, addr, len(p.data))
	}
	return binary.LittleEndian.Uint32(p.data[addr:]), nil
}

// ReadAt implements io.ReaderAt over the image.
func (p *Program) ReadAt(b []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if off >= int64(len(p.data)) {
		return 0, io.EOF
	}
	n := copy(b, p.data[off:])
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}
