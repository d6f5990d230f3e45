package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notargets/gocca"
)

// AutoDevice selects the first backend in DefaultBackends that initializes
const AutoDevice = "auto"

// DefaultBackends is the device preference order used by AutoDevice:
// GPU first, then threaded CPU, then the always-available Serial mode.
var DefaultBackends = []string{
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "OpenCL", "platform_id": 0, "device_id": 0}`,
	`{"mode": "OpenMP"}`,
	`{"mode": "Serial"}`,
}

// CreateDevice creates an OCCA device from a JSON property string. An empty
// string or AutoDevice tries DefaultBackends in order.
func CreateDevice(props string) (*gocca.OCCADevice, error) {
	props = strings.TrimSpace(props)
	if props != "" && props != AutoDevice {
		device, err := gocca.NewDevice(props)
		if err != nil {
			return nil, fmt.Errorf("failed to create device %s: %w", props, err)
		}
		return device, nil
	}

	var errs []error
	for _, backend := range DefaultBackends {
		device, err := gocca.NewDevice(backend)
		if err == nil {
			return device, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", backend, err))
	}
	return nil, fmt.Errorf("no OCCA backend available: %w", errors.Join(errs...))
}

// CreateTestDevice creates a Device for testing, preferring parallel backends
func CreateTestDevice() *gocca.OCCADevice {
	device, err := CreateDevice(AutoDevice)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Created %s Device\n", device.Mode())
	return device
}
