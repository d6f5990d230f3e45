package runner

import (
	"fmt"
	"github.com/notargets/gocca"
)

// ExecuteKernel runs a compiled kernel against an allocation. It copies every
// CopyTo binding to the device, launches, waits for the device to finish and
// copies every CopyBack binding to the host. Scalar values passed here take
// precedence over bound scalars, matched in definition order.
func (kr *Runner) ExecuteKernel(name string, alloc *Allocation, scalarValues ...interface{}) error {
	kernel, exists := kr.Kernels.Load(name)
	if !exists {
		return fmt.Errorf("kernel %s not compiled - use BuildKernel first", name)
	}
	if alloc == nil || alloc.freed {
		return fmt.Errorf("kernel %s: allocation is nil or freed", name)
	}

	// Perform pre-kernel memory operations (CopyTo only)
	if err := alloc.CopyToDevice(); err != nil {
		return fmt.Errorf("pre-kernel copy failed: %w", err)
	}

	// Build kernel arguments
	args, err := kr.buildKernelArguments(alloc, scalarValues)
	if err != nil {
		return fmt.Errorf("failed to build arguments: %w", err)
	}

	if err := kr.launch(name, kernel, args); err != nil {
		return err
	}

	// Perform post-kernel memory operations (CopyBack only)
	if err := alloc.CopyFromDevice(); err != nil {
		return fmt.Errorf("post-kernel copy failed: %w", err)
	}

	return nil
}

// LaunchKernel runs a compiled kernel on arguments that are already in place
// on the device. *DeviceBuffer arguments are passed as their device memory;
// anything else is passed through unchanged. No data is moved.
func (kr *Runner) LaunchKernel(name string, args ...interface{}) error {
	kernel, exists := kr.Kernels.Load(name)
	if !exists {
		return fmt.Errorf("kernel %s not compiled - use BuildKernel first", name)
	}

	expanded := make([]interface{}, len(args))
	for i, arg := range args {
		if buf, ok := arg.(*DeviceBuffer); ok {
			if buf == nil || buf.IsFreed() {
				return fmt.Errorf("kernel %s: argument %d is a nil or freed buffer", name, i)
			}
			expanded[i] = buf.Memory
			continue
		}
		expanded[i] = arg
	}

	return kr.launch(name, kernel, expanded)
}

// launch is the single place kernels are run. The launch is asynchronous on
// GPU backends, so Finish blocks until every unit has completed.
func (kr *Runner) launch(name string, kernel *gocca.OCCAKernel, args []interface{}) error {
	if err := kernel.RunWithArgs(args...); err != nil {
		return fmt.Errorf("kernel %s execution failed: %w", name, err)
	}

	kr.Device.Finish()
	kr.launches.Add(1)

	return nil
}
