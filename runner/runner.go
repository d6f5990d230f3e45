package runner

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/notargets/VecKernel/runner/builder"
	"github.com/notargets/gocca"
	"github.com/puzpuzpuz/xsync/v4"
)

// Runner orchestrates kernel compilation, device memory and execution
type Runner struct {
	*builder.Builder
	Device  *gocca.OCCADevice
	Kernels *xsync.Map[string, *gocca.OCCAKernel]
	Tracker *MemoryTracker

	// Warnings receives diagnostics such as leaked allocations at Free.
	// Defaults to os.Stderr.
	Warnings io.Writer

	sources  *xsync.Map[string, string]
	launches atomic.Int64
}

// NewRunner creates a new Runner instance
func NewRunner(device *gocca.OCCADevice, Config builder.Config) (kr *Runner) {
	if device == nil {
		panic("NewRunner: device is nil")
	}

	kr = &Runner{
		Builder:  builder.NewBuilder(Config),
		Device:   device,
		Kernels:  xsync.NewMap[string, *gocca.OCCAKernel](),
		Tracker:  NewMemoryTracker(),
		Warnings: os.Stderr,
		sources:  xsync.NewMap[string, string](),
	}
	return
}

// BuildKernel compiles a kernel and registers it under kernelName.
// The preamble is regenerated first so defines added since the last build are
// picked up. Rebuilding an existing name replaces and frees the old kernel.
func (kr *Runner) BuildKernel(kernelSource, kernelName string) (*gocca.OCCAKernel, error) {
	kr.GeneratePreamble()

	// Combine preamble with kernel source
	fullSource := kr.KernelPreamble + "\n" + kernelSource

	var kernel *gocca.OCCAKernel
	var err error

	if kr.Device.Mode() == "OpenMP" {
		// Workaround for OCCA bug: OpenMP doesn't get default -O3 flag
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = kr.Device.BuildKernelFromString(fullSource, kernelName, props)
	} else {
		kernel, err = kr.Device.BuildKernelFromString(fullSource, kernelName, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to build kernel %s: %w", kernelName, err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("kernel build returned nil for %s", kernelName)
	}

	if old, loaded := kr.Kernels.LoadAndDelete(kernelName); loaded {
		old.Free()
	}
	kr.Kernels.Store(kernelName, kernel)
	kr.sources.Store(kernelName, fullSource)

	return kernel, nil
}

// GetKernel returns a compiled kernel by name
func (kr *Runner) GetKernel(kernelName string) (*gocca.OCCAKernel, bool) {
	return kr.Kernels.Load(kernelName)
}

// KernelSource returns the full source (preamble included) a kernel was built from
func (kr *Runner) KernelSource(kernelName string) (string, bool) {
	return kr.sources.Load(kernelName)
}

// Launches returns the number of kernel launches completed by this runner
func (kr *Runner) Launches() int64 {
	return kr.launches.Load()
}

// Free releases all kernels. Device memory belongs to allocations and buffers,
// which must be freed by their owners; anything still live is reported.
func (kr *Runner) Free() {
	kr.Kernels.Range(func(name string, kernel *gocca.OCCAKernel) bool {
		kernel.Free()
		kr.Kernels.Delete(name)
		return true
	})

	if n := kr.Tracker.LiveCount(); n > 0 {
		fmt.Fprintf(kr.Warnings, "WARNING: runner freed with %d live device allocations\n%s",
			n, kr.Tracker.Summary())
	}
}
