package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/VecKernel/internal/devicetest"
	"github.com/notargets/VecKernel/utils"
)

func TestCreateDevice_Auto(t *testing.T) {
	device := devicetest.New(t)
	assert.NotEmpty(t, device.Mode())
}

func TestCreateDevice_Serial(t *testing.T) {
	// Serial is always compiled into OCCA, so if any backend works this one should
	devicetest.New(t)

	device, err := utils.CreateDevice(utils.DefaultBackends[len(utils.DefaultBackends)-1])
	require.NoError(t, err)
	defer device.Free()
	assert.Equal(t, "Serial", device.Mode())
}

func TestDefaultBackends(t *testing.T) {
	require.NotEmpty(t, utils.DefaultBackends)
	assert.Contains(t, utils.DefaultBackends[len(utils.DefaultBackends)-1], "Serial")
}
