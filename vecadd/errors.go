package vecadd

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch is returned when operand or result lengths differ.
var ErrLengthMismatch = errors.New("vecadd: length mismatch")

// MismatchError reports the first index where a result differs from the sum
// of its operands.
type MismatchError struct {
	Index int
	A, B  int32
	Got   int32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("vecadd: mismatch at index %d: %d + %d = %d, got %d",
		e.Index, e.A, e.B, e.A+e.B, e.Got)
}

func lengthError(what string, want, got int) error {
	return fmt.Errorf("%w: %s has %d elements, want %d", ErrLengthMismatch, what, got, want)
}
