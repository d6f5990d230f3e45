// Package accel adds int32 vectors on an OCCA device.
//
// Two entry points mirror the two ways a kernel is usually driven:
//
//   - Add owns the whole data-movement lifecycle: it allocates the three
//     device buffers, copies the inputs in, launches, waits, copies the result
//     out and frees the buffers before returning. Callers only see host memory.
//   - AddResident launches on buffers that are already on the device. Staging
//     them is the caller's job; Stage is the supported way to do it and returns
//     an allocation the caller must Free.
package accel

import (
	"errors"
	"fmt"

	"github.com/notargets/VecKernel/runner"
	"github.com/notargets/VecKernel/runner/builder"
	"github.com/notargets/VecKernel/vecadd"
	"github.com/notargets/gocca"
)

// ErrAccelerator marks failures of device allocation, copies, kernel build or
// launch. Use errors.Is to detect it.
var ErrAccelerator = errors.New("accelerator error")

// Config controls kernel generation
type Config struct {
	BlockSize int              // units per block, 0 means builder.DefaultBlockSize
	IntType   builder.DataType // type of the length argument, 0 means INT32
}

// Accelerator adds vectors with a compiled OCCA kernel
type Accelerator struct {
	runner *runner.Runner
}

// New compiles the addition kernel for device.
func New(device *gocca.OCCADevice, cfg Config) (*Accelerator, error) {
	if device == nil {
		return nil, fmt.Errorf("%w: device is nil", ErrAccelerator)
	}

	kr := runner.NewRunner(device, builder.Config{
		BlockSize: cfg.BlockSize,
		IntType:   cfg.IntType,
	})

	if _, err := kr.BuildKernel(kernelSource(kr.Builder), KernelName); err != nil {
		kr.Free()
		return nil, fmt.Errorf("%w: %w", ErrAccelerator, err)
	}

	return &Accelerator{runner: kr}, nil
}

// Add returns the elementwise sum of a and b computed on the device.
// All device memory used by the call is released before it returns, on
// success and on failure.
func (acc *Accelerator) Add(a, b []int32) ([]int32, error) {
	if len(b) != len(a) {
		return nil, fmt.Errorf("%w: a has %d elements, b has %d",
			vecadd.ErrLengthMismatch, len(a), len(b))
	}
	n := len(a)
	out := make([]int32, n)
	if n == 0 {
		return out, nil
	}
	length, err := acc.runner.IntScalar(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccelerator, err)
	}

	alloc, err := acc.runner.Allocate(
		builder.Input(paramA).Bind(a).CopyTo(),
		builder.Input(paramB).Bind(b).CopyTo(),
		builder.Output(paramC).Bind(out).CopyBack(),
		builder.Scalar(paramN).Bind(length),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccelerator, err)
	}
	defer alloc.Free()

	if err := acc.runner.ExecuteKernel(KernelName, alloc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccelerator, err)
	}

	return out, nil
}

// Stage allocates device buffers a, b and c for n = len(a) elements and copies
// the inputs to the device. c is left uninitialized. The caller owns the
// returned allocation and must Free it.
func (acc *Accelerator) Stage(a, b []int32) (*runner.Allocation, error) {
	if len(b) != len(a) {
		return nil, fmt.Errorf("%w: a has %d elements, b has %d",
			vecadd.ErrLengthMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return nil, fmt.Errorf("%w: cannot stage empty vectors", ErrAccelerator)
	}

	alloc, err := acc.runner.Allocate(
		builder.Input(paramA).Bind(a).CopyTo(),
		builder.Input(paramB).Bind(b).CopyTo(),
		builder.Output(paramC).Type(builder.INT32).Size(len(a)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccelerator, err)
	}
	if err := alloc.CopyToDevice(); err != nil {
		alloc.Free()
		return nil, fmt.Errorf("%w: %w", ErrAccelerator, err)
	}
	return alloc, nil
}

// AddResident computes c[i] = a[i] + b[i] for i < n on buffers that already
// live on the device and waits for the kernel to finish. Nothing is copied.
func (acc *Accelerator) AddResident(n int, a, b, c *runner.DeviceBuffer) error {
	length, err := acc.runner.IntScalar(n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAccelerator, err)
	}
	if n == 0 {
		return nil
	}
	for _, buf := range []*runner.DeviceBuffer{a, b, c} {
		if buf == nil || buf.IsFreed() {
			return fmt.Errorf("%w: nil or freed buffer", ErrAccelerator)
		}
		if buf.DataType != builder.INT32 {
			return fmt.Errorf("%w: buffer %s holds %v, want int32",
				ErrAccelerator, buf.Name, buf.DataType)
		}
		if buf.Length < int64(n) {
			return fmt.Errorf("%w: buffer %s holds %d elements, need %d",
				ErrAccelerator, buf.Name, buf.Length, n)
		}
	}

	if err := acc.runner.LaunchKernel(KernelName, a, b, c, length); err != nil {
		return fmt.Errorf("%w: %w", ErrAccelerator, err)
	}
	return nil
}

// Tracker exposes device allocation accounting, used for leak checks
func (acc *Accelerator) Tracker() *runner.MemoryTracker {
	return acc.runner.Tracker
}

// BlockSize returns the number of units per block the kernel was built with
func (acc *Accelerator) BlockSize() int {
	return acc.runner.BlockSize
}

// Launches returns the number of kernel launches completed
func (acc *Accelerator) Launches() int64 {
	return acc.runner.Launches()
}

// KernelSource returns the generated kernel source, preamble included
func (acc *Accelerator) KernelSource() string {
	src, _ := acc.runner.KernelSource(KernelName)
	return src
}

// Name describes the accelerator in logs
func (acc *Accelerator) Name() string {
	return "occa/" + acc.runner.Device.Mode()
}

// Close frees the compiled kernel. The device itself belongs to the caller.
func (acc *Accelerator) Close() {
	acc.runner.Free()
}
