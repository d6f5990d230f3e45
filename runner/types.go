package runner

import (
	"fmt"
	"github.com/notargets/VecKernel/runner/builder"
	"reflect"
	"unsafe"
)

// Element is the set of host element types that can be bound to device arrays
type Element interface {
	int32 | int64 | float32 | float64
}

// GetDataTypeFromSample returns the DataType based on a sample value
func GetDataTypeFromSample(sample interface{}) builder.DataType {
	switch sample.(type) {
	case float32:
		return builder.Float32
	case float64:
		return builder.Float64
	case int32:
		return builder.INT32
	case int64:
		return builder.INT64
	default:
		return 0
	}
}

// hostSlice returns the base pointer, element count and type of a bound host slice.
// The pointer is nil for empty slices; callers must not copy in that case.
func hostSlice(hostData interface{}) (unsafe.Pointer, int64, builder.DataType, error) {
	switch data := hostData.(type) {
	case []float32:
		return slicePointer(data), int64(len(data)), builder.Float32, nil
	case []float64:
		return slicePointer(data), int64(len(data)), builder.Float64, nil
	case []int32:
		return slicePointer(data), int64(len(data)), builder.INT32, nil
	case []int64:
		return slicePointer(data), int64(len(data)), builder.INT64, nil
	default:
		return nil, 0, 0, fmt.Errorf("unsupported host type: %T", hostData)
	}
}

func slicePointer[T Element](data []T) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}

// scalarValue extracts the value passed to the kernel for a scalar binding
func scalarValue(binding interface{}) interface{} {
	v := reflect.ValueOf(binding)

	// Dereference pointers
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	return v.Interface()
}
