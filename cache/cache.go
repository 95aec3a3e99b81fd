// Package cache provides a read-only instruction fetch cache built on the
// Akita cache directory.
package cache

import (
	"errors"
	"fmt"
	"io"
	"math/bits"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/rv32emu/emu"
)

// ErrInvalidConfig is returned for cache geometries the directory cannot
// represent.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size"`
}

// DefaultConfig returns a small 2-way instruction cache with 64B lines.
func DefaultConfig() Config {
	return Config{
		Size:          4 * 1024, // 4KB
		Associativity: 2,        // 2-way
		BlockSize:     64,       // 64B cache line
	}
}

// NumSets returns the number of sets of the geometry.
func (c Config) NumSets() int {
	return c.Size / (c.Associativity * c.BlockSize)
}

// Validate checks that the geometry is usable: all sizes positive, the
// block size a power of two holding whole instruction words and the size
// an exact number of sets.
func (c Config) Validate() error {
	if c.Size <= 0 || c.Associativity <= 0 || c.BlockSize <= 0 {
		return fmt.Errorf("%w: size, associativity and block_size must be positive", ErrInvalidConfig)
	}
	if bits.OnesCount(uint(c.BlockSize)) != 1 || c.BlockSize < 4 {
		return fmt.Errorf("%w: block_size %d is not a power of two >= 4", ErrInvalidConfig, c.BlockSize)
	}
	if c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("%w: size %d is not a multiple of associativity*block_size (%d)",
			ErrInvalidConfig, c.Size, c.Associativity*c.BlockSize)
	}
	return nil
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads     uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns Hits/Reads, or 0 before the first read.
func (s Statistics) HitRate() float64 {
	if s.Reads == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Reads)
}

// InstructionCache caches blocks of a program image. It implements
// emu.InstructionFetcher and never writes back.
type InstructionCache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]byte

	stats   Statistics
	program *emu.Program
}

// New creates an instruction cache in front of program.
func New(config Config, program *emu.Program) (*InstructionCache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	numSets := config.NumSets()
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &InstructionCache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		program:   program,
	}, nil
}

// Config returns the cache configuration.
func (c *InstructionCache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *InstructionCache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *InstructionCache) ResetStats() {
	c.stats = Statistics{}
}

// blockIndex computes the index into dataStore for a block.
func (c *InstructionCache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

// Fetch returns the instruction word at addr. Addresses the program image
// would reject fail the same way and are never cached.
func (c *InstructionCache) Fetch(addr uint32) (uint32, error) {
	if addr%4 != 0 || !c.program.Contains(addr) {
		return c.program.Fetch(addr)
	}

	c.stats.Reads++

	blockSize := uint64(c.config.BlockSize)
	blockAddr := uint64(addr) / blockSize * blockSize
	offset := int(uint64(addr) - blockAddr)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block) // Update LRU
		return wordAt(c.dataStore[c.blockIndex(block)], offset), nil
	}

	c.stats.Misses++

	block, err := c.fill(blockAddr)
	if err != nil {
		return 0, err
	}
	return wordAt(c.dataStore[c.blockIndex(block)], offset), nil
}

// fill loads the block at blockAddr into the LRU way of its set. Bytes past
// the end of the image read as zero.
func (c *InstructionCache) fill(blockAddr uint64) (*akitacache.Block, error) {
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return nil, fmt.Errorf("no victim for block 0x%x", blockAddr)
	}

	if victim.IsValid {
		c.stats.Evictions++
	}

	data := c.dataStore[c.blockIndex(victim)]
	n, err := c.program.ReadAt(data, int64(blockAddr))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("fill block 0x%x: %w", blockAddr, err)
	}
	clear(data[n:])

	// Tag stores the block-aligned address
	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return victim, nil
}

// Invalidate marks the cache line holding addr as invalid.
func (c *InstructionCache) Invalidate(addr uint32) {
	blockSize := uint64(c.config.BlockSize)
	blockAddr := uint64(addr) / blockSize * blockSize
	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		block.IsValid = false
	}
}

// ValidBlocks returns the number of lines currently holding data.
func (c *InstructionCache) ValidBlocks() int {
	n := 0
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				n++
			}
		}
	}
	return n
}

// Reset invalidates all cache lines and clears the statistics.
func (c *InstructionCache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}

func wordAt(data []byte, offset int) uint32 {
	return uint32(data[offset]) | uint32(data[offset+1])<<8 |
		uint32(data[offset+2])<<16 | uint32(data[offset+3])<<24
}
