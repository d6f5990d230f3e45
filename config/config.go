// Package config holds the settings of the vecadd demo. The zero-argument
// defaults reproduce the classic demo: one million iterations over 1024
// elements with 256-unit blocks on the best available device.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultIterations = 1_000_000
	DefaultLength     = 1024
	DefaultBlockSize  = 256
	DefaultDevice     = "auto"

	// MaxBlockSize is the largest block most CUDA devices accept.
	MaxBlockSize = 1024
)

// Config is the full run configuration.
type Config struct {
	Iterations int    `yaml:"iterations"`
	Length     int    `yaml:"length"`
	BlockSize  int    `yaml:"block_size"`
	Device     string `yaml:"device"` // OCCA device JSON or "auto"
	Seed       uint64 `yaml:"seed"`   // 0 picks a time-based seed
	Host       bool   `yaml:"host"`   // add on the host instead of a device
	Quiet      bool   `yaml:"quiet"`  // no per-iteration lines
	Verbose    bool   `yaml:"verbose"`
}

// Default returns the demo configuration.
func Default() Config {
	return Config{
		Iterations: DefaultIterations,
		Length:     DefaultLength,
		BlockSize:  DefaultBlockSize,
		Device:     DefaultDevice,
	}
}

// Load reads a YAML file over the defaults. Unknown keys are an error so typos
// do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks that the configuration describes a runnable demo.
func (c Config) Validate() error {
	var errs []error
	if c.Iterations < 0 {
		errs = append(errs, fmt.Errorf("iterations must be >= 0, got %d", c.Iterations))
	}
	if c.Length < 0 {
		errs = append(errs, fmt.Errorf("length must be >= 0, got %d", c.Length))
	}
	if c.BlockSize < 1 || c.BlockSize > MaxBlockSize {
		errs = append(errs, fmt.Errorf("block_size must be in [1, %d], got %d",
			MaxBlockSize, c.BlockSize))
	}
	if !c.Host && c.Device == "" {
		errs = append(errs, errors.New("device must be set (use \"auto\" to pick one)"))
	}
	return errors.Join(errs...)
}
