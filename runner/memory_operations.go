package runner

import (
	"fmt"
	"github.com/notargets/VecKernel/runner/builder"
	"github.com/notargets/gocca"
	"unsafe"
)

// DeviceBuffer is one device-resident array allocated through a Runner
type DeviceBuffer struct {
	Name     string
	Memory   *gocca.OCCAMemory
	DataType builder.DataType
	Length   int64 // elements

	tracker *MemoryTracker
	allocID uint64
	freed   bool
}

// Bytes returns the allocation size in bytes
func (b *DeviceBuffer) Bytes() int64 {
	return b.Length * b.DataType.Size()
}

// IsFreed reports whether Free has been called
func (b *DeviceBuffer) IsFreed() bool {
	return b.freed
}

// Free releases the device memory. Calling Free more than once is a no-op.
func (b *DeviceBuffer) Free() {
	if b == nil || b.freed {
		return
	}
	if b.Memory != nil {
		b.Memory.Free()
		b.Memory = nil
	}
	if b.tracker != nil {
		b.tracker.Release(b.allocID)
	}
	b.freed = true
}

// Malloc allocates an uninitialized device array of length elements
func (kr *Runner) Malloc(name string, dataType builder.DataType, length int64) (*DeviceBuffer, error) {
	if length <= 0 {
		return nil, fmt.Errorf("cannot allocate %s with length %d", name, length)
	}
	if dataType == 0 {
		return nil, fmt.Errorf("cannot allocate %s without a data type", name)
	}

	bytes := length * dataType.Size()
	mem := kr.Device.Malloc(bytes, nil, nil)
	if mem == nil {
		return nil, fmt.Errorf("device allocation of %d bytes for %s failed", bytes, name)
	}
	if err := checkAllocation(mem, name, bytes); err != nil {
		return nil, err
	}

	return &DeviceBuffer{
		Name:     name,
		Memory:   mem,
		DataType: dataType,
		Length:   length,
		tracker:  kr.Tracker,
		allocID:  kr.Tracker.Record(name, bytes),
	}, nil
}

// deviceMemory is the part of *gocca.OCCAMemory needed to vet a fresh allocation
type deviceMemory interface {
	IsInitialized() bool
	Free()
}

// checkAllocation turns a failed device allocation into an error. OCCA hands
// back a handle even when the backend could not allocate, so the handle itself
// must be checked; an uninitialized one is released.
func checkAllocation(mem deviceMemory, name string, bytes int64) error {
	if mem.IsInitialized() {
		return nil
	}
	mem.Free()
	return fmt.Errorf("device allocation of %d bytes for %s failed", bytes, name)
}

// Upload copies a host slice into the buffer (host→device)
func (b *DeviceBuffer) Upload(hostData interface{}) error {
	ptr, length, dataType, err := b.checkHost(hostData)
	if err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	b.Memory.CopyFrom(ptr, length*dataType.Size())
	return nil
}

// Download copies the buffer into a host slice (device→host)
func (b *DeviceBuffer) Download(hostData interface{}) error {
	ptr, length, dataType, err := b.checkHost(hostData)
	if err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	b.Memory.CopyTo(ptr, length*dataType.Size())
	return nil
}

// checkHost validates that a host slice matches the buffer type and fits in it
func (b *DeviceBuffer) checkHost(hostData interface{}) (unsafe.Pointer, int64, builder.DataType, error) {
	if b.freed || b.Memory == nil {
		return nil, 0, 0, fmt.Errorf("buffer %s has been freed", b.Name)
	}
	ptr, length, dataType, err := hostSlice(hostData)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("buffer %s: %w", b.Name, err)
	}
	if dataType != b.DataType {
		return nil, 0, 0, fmt.Errorf("buffer %s type mismatch: device %v, host %v",
			b.Name, b.DataType, dataType)
	}
	if length > b.Length {
		return nil, 0, 0, fmt.Errorf("buffer %s holds %d elements, host slice has %d",
			b.Name, b.Length, length)
	}
	return ptr, length, dataType, nil
}
