package runner

import (
	"fmt"
	"unsafe"
)

// ============================================================================
// Public API for copying data between host and device
// ============================================================================

// CopyArrayToHost copies a device buffer into a new host slice
func CopyArrayToHost[T Element](buf *DeviceBuffer) ([]T, error) {
	if buf == nil || buf.IsFreed() {
		return nil, fmt.Errorf("buffer is nil or freed")
	}

	// Verify type matches
	var sample T
	requestedType := GetDataTypeFromSample(sample)
	if requestedType != buf.DataType {
		return nil, fmt.Errorf("type mismatch: array is %v, requested %v",
			buf.DataType, requestedType)
	}

	result := make([]T, buf.Length)
	if buf.Length == 0 {
		return result, nil
	}
	buf.Memory.CopyTo(unsafe.Pointer(&result[0]), buf.Bytes())

	return result, nil
}

// CopyArrayToDevice copies a host slice into a new device buffer
func CopyArrayToDevice[T Element](kr *Runner, name string, data []T) (*DeviceBuffer, error) {
	var sample T
	dataType := GetDataTypeFromSample(sample)
	if dataType == 0 {
		return nil, fmt.Errorf("unsupported element type %T", sample)
	}

	buf, err := kr.Malloc(name, dataType, int64(len(data)))
	if err != nil {
		return nil, err
	}
	buf.Memory.CopyFrom(unsafe.Pointer(&data[0]), buf.Bytes())

	return buf, nil
}
