// Package loader reads RV32I program images from disk.
//
// A raw image is a flat sequence of little-endian instruction words with no
// header. RV32 ELF executables are flattened into the same form.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrEmptyImage is returned for images without a single instruction.
	ErrEmptyImage = errors.New("program image is empty")
	// ErrImageLength is returned when the image is not whole words.
	ErrImageLength = errors.New("program image length is not a multiple of 4")
)

// Image is a program ready to be handed to the emulator.
type Image struct {
	// Data holds the instruction words; offset 0 is address 0.
	Data []byte
	// Entry is the image offset execution starts at.
	Entry uint32
	// Base is the ELF virtual address mapped to offset 0, zero for raw
	// images.
	Base uint32
}

// Load reads a raw program image from path.
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// Read reads a raw program image from r and checks that it holds whole
// instruction words.
func Read(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	if err := validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Open loads path as an RV32 ELF executable if it carries the ELF magic and
// as a raw image otherwise.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program: %w", err)
	}
	defer func() { _ = f.Close() }()

	magic := make([]byte, 4)
	n, err := io.ReadFull(f, magic)
	if err == nil && bytes.Equal(magic, []byte("\x7fELF")) {
		return LoadELF(path)
	}

	data, err := Read(io.MultiReader(bytes.NewReader(magic[:n]), f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Image{Data: data}, nil
}

func validate(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyImage
	}
	if len(data)%4 != 0 {
		return fmt.Errorf("%w: %d bytes", ErrImageLength, len(data))
	}
	return nil
}

// HexDump writes data as hex bytes, 16 per line.
func HexDump(w io.Writer, data []byte) error {
	for i, b := range data {
		if _, err := fmt.Fprintf(w, "%02x ", b); err != nil {
			return err
		}
		if i%16 == 15 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	if len(data)%16 != 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	return nil
}
