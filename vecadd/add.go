package vecadd

// Add returns the elementwise sum of a and b, computed sequentially.
func Add(a, b []int32) ([]int32, error) {
	out := make([]int32, len(a))
	if err := AddInto(out, a, b); err != nil {
		return nil, err
	}
	return out, nil
}

// AddInto writes the elementwise sum of a and b into dst.
func AddInto(dst, a, b []int32) error {
	if len(b) != len(a) {
		return lengthError("b", len(a), len(b))
	}
	if len(dst) != len(a) {
		return lengthError("dst", len(a), len(dst))
	}
	for i := range a {
		dst[i] = a[i] + b[i]
	}
	return nil
}
