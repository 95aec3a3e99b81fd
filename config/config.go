// Package config holds the run configuration of the emulator.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32emu/cache"
	"github.com/sarchlab/rv32emu/emu"
)

// Config holds the settings of an emulator run. Command-line flags
// override the values loaded from a file.
type Config struct {
	// FaultPolicy is "lenient" or "strict". Default: lenient.
	FaultPolicy string `json:"fault_policy"`

	// InitialPC is the address of the first instruction. Default: 0.
	InitialPC uint32 `json:"initial_pc"`

	// Trace prints every executed instruction. Default: false.
	Trace bool `json:"trace"`

	// StepBudget bounds each "until" run; 0 means unlimited.
	// Default: 10,000,000 steps.
	StepBudget uint64 `json:"step_budget"`

	// LogLevel is a logrus level name. Default: "warning".
	LogLevel string `json:"log_level"`

	// FetchCache configures the instruction cache in front of the image.
	FetchCache FetchCacheConfig `json:"fetch_cache"`
}

// FetchCacheConfig configures the instruction fetch cache.
type FetchCacheConfig struct {
	// Enabled puts the cache in the fetch path. Default: true.
	Enabled bool `json:"enabled"`

	cache.Config
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		FaultPolicy: emu.FaultPolicyLenient.String(),
		InitialPC:   0,
		Trace:       false,
		StepBudget:  10_000_000,
		LogLevel:    logrus.WarnLevel.String(),
		FetchCache: FetchCacheConfig{
			Enabled: true,
			Config:  cache.DefaultConfig(),
		},
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that all values can be used to build an emulator.
func (c *Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.InitialPC%4 != 0 {
		return fmt.Errorf("initial_pc 0x%x must be word aligned", c.InitialPC)
	}
	if c.FetchCache.Enabled {
		if err := c.FetchCache.Validate(); err != nil {
			return fmt.Errorf("fetch_cache: %w", err)
		}
	}
	return nil
}

// Policy parses the fault policy.
func (c *Config) Policy() (emu.FaultPolicy, error) {
	return emu.ParseFaultPolicy(c.FaultPolicy)
}

// Level parses the log level.
func (c *Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
