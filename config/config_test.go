package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vecadd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1_000_000, cfg.Iterations)
	assert.Equal(t, 1024, cfg.Length)
	assert.Equal(t, 256, cfg.BlockSize)
	assert.Equal(t, "auto", cfg.Device)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
iterations: 10
block_size: 128
device: '{"mode": "Serial"}'
seed: 5
quiet: true
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 10, cfg.Iterations)
		assert.Equal(t, 1024, cfg.Length)
		assert.Equal(t, 128, cfg.BlockSize)
		assert.Equal(t, `{"mode": "Serial"}`, cfg.Device)
		assert.Equal(t, uint64(5), cfg.Seed)
		assert.True(t, cfg.Quiet)
		assert.False(t, cfg.Host)
	})

	t.Run("empty file", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, ""))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeConfig(t, "iteratons: 5\n"))
		assert.ErrorContains(t, err, "iteratons")
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeConfig(t, "block_size: 2048\n"))
		assert.ErrorContains(t, err, "block_size")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default", func(*Config) {}, ""},
		{"zero iterations", func(c *Config) { c.Iterations = 0 }, ""},
		{"negative iterations", func(c *Config) { c.Iterations = -1 }, "iterations"},
		{"negative length", func(c *Config) { c.Length = -4 }, "length"},
		{"zero block", func(c *Config) { c.BlockSize = 0 }, "block_size"},
		{"block too large", func(c *Config) { c.BlockSize = MaxBlockSize + 1 }, "block_size"},
		{"no device", func(c *Config) { c.Device = "" }, "device"},
		{"host needs no device", func(c *Config) { c.Device = ""; c.Host = true }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	t.Run("all errors reported", func(t *testing.T) {
		cfg := Config{Iterations: -1, Length: -1}
		err := cfg.Validate()
		require.Error(t, err)
		for _, want := range []string{"iterations", "length", "block_size", "device"} {
			assert.ErrorContains(t, err, want)
		}
	})
}
