package vecadd

// Verify checks out[i] == a[i] + b[i] for every index and returns a
// *MismatchError for the first index that fails.
func Verify(a, b, out []int32) error {
	if len(b) != len(a) {
		return lengthError("b", len(a), len(b))
	}
	if len(out) != len(a) {
		return lengthError("out", len(a), len(out))
	}
	for i := range a {
		if a[i]+b[i] != out[i] {
			return &MismatchError{Index: i, A: a[i], B: b[i], Got: out[i]}
		}
	}
	return nil
}

// MustVerify is Verify as a hard assertion: it panics on any failure.
func MustVerify(a, b, out []int32) {
	if err := Verify(a, b, out); err != nil {
		panic(err)
	}
}
