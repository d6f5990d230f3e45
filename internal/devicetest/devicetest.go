// Package devicetest provides OCCA devices for tests.
package devicetest

import (
	"testing"

	"github.com/notargets/gocca"

	"github.com/notargets/VecKernel/utils"
)

// New returns a device for a test and frees it when the test ends.
// The test is skipped when no backend can be created.
func New(tb testing.TB) *gocca.OCCADevice {
	tb.Helper()
	device, err := utils.CreateDevice(utils.AutoDevice)
	if err != nil {
		tb.Skipf("no OCCA device: %v", err)
	}
	tb.Cleanup(func() { device.Free() })
	return device
}
