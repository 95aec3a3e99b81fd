package loader

import (
	"debug/elf"
	"fmt"
	"io"
)

// MaxImageSize bounds the flattened size of an ELF image.
const MaxImageSize = 64 * 1024 * 1024

// LoadELF flattens the loadable segments of a 32-bit little-endian RISC-V
// executable into an Image. The lowest segment address becomes offset 0;
// gaps between segments and BSS read as zero.
func LoadELF(path string) (*Image, error) {
	// Open the ELF file
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}
	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("not a little-endian ELF file")
	}
	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("not a RISC-V ELF file (machine type: %v)", f.Machine)
	}

	var loads []*elf.Prog
	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD || phdr.Memsz == 0 {
			continue
		}
		if phdr.Filesz > phdr.Memsz {
			return nil, fmt.Errorf("segment at 0x%x: file size %d exceeds memory size %d",
				phdr.Vaddr, phdr.Filesz, phdr.Memsz)
		}
		loads = append(loads, phdr)
	}
	if len(loads) == 0 {
		return nil, fmt.Errorf("%s: %w: no loadable segments", path, ErrEmptyImage)
	}

	base, end := loads[0].Vaddr, loads[0].Vaddr+loads[0].Memsz
	for _, phdr := range loads[1:] {
		base = min(base, phdr.Vaddr)
		end = max(end, phdr.Vaddr+phdr.Memsz)
	}
	if end-base > MaxImageSize {
		return nil, fmt.Errorf("%s: segments span %d bytes, limit is %d", path, end-base, MaxImageSize)
	}

	size := (end - base + 3) &^ 3
	data := make([]byte, size)

	for _, phdr := range loads {
		if phdr.Filesz == 0 {
			continue
		}

		off := phdr.Vaddr - base
		n, err := phdr.ReadAt(data[off:off+phdr.Filesz], 0)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
		}
		if uint64(n) != phdr.Filesz {
			return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
				phdr.Vaddr, n, phdr.Filesz)
		}
	}

	if f.Entry < base || f.Entry >= end {
		return nil, fmt.Errorf("entry point 0x%x outside loadable segments", f.Entry)
	}

	return &Image{
		Data:  data,
		Entry: uint32(f.Entry - base),
		Base:  uint32(base),
	}, nil
}
