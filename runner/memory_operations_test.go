package runner

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/VecKernel/internal/devicetest"
	"github.com/notargets/VecKernel/runner/builder"
)

type fakeMemory struct {
	initialized bool
	freed       int
}

func (m *fakeMemory) IsInitialized() bool { return m.initialized }
func (m *fakeMemory) Free()               { m.freed++ }

func TestCheckAllocation(t *testing.T) {
	t.Run("initialized", func(t *testing.T) {
		mem := &fakeMemory{initialized: true}
		assert.NoError(t, checkAllocation(mem, "a", 4096))
		assert.Zero(t, mem.freed)
	})

	t.Run("backend refused", func(t *testing.T) {
		mem := &fakeMemory{}
		err := checkAllocation(mem, "a", 4096)
		assert.ErrorContains(t, err, "device allocation of 4096 bytes for a failed")
		assert.Equal(t, 1, mem.freed, "uninitialized handle is released")
	})
}

func TestMalloc_ReturnsInitializedMemory(t *testing.T) {
	kr := NewRunner(devicetest.New(t), builder.Config{})
	defer kr.Free()

	buf, err := kr.Malloc("a", builder.INT32, 1024)
	require.NoError(t, err)
	defer buf.Free()
	assert.True(t, buf.Memory.IsInitialized())
	assert.Equal(t, 1, kr.Tracker.LiveCount())
}

func TestRunner_FreeReportsLeaksOnWarnings(t *testing.T) {
	kr := NewRunner(devicetest.New(t), builder.Config{})
	var warnings bytes.Buffer
	kr.Warnings = &warnings

	buf, err := kr.Malloc("leaked", builder.INT32, 16)
	require.NoError(t, err)

	kr.Free()
	assert.Contains(t, warnings.String(), "runner freed with 1 live device allocations")
	assert.Contains(t, warnings.String(), "leaked")

	buf.Free()
	warnings.Reset()
	kr.Free()
	assert.Empty(t, warnings.String())
}
