package vecadd

import "math/rand/v2"

// MaxInputValue bounds generated inputs to [0, MaxInputValue) so sums stay
// far from int32 overflow.
const MaxInputValue = 100

// RandomInputs returns n values drawn uniformly from [0, MaxInputValue).
func RandomInputs(rng *rand.Rand, n int) []int32 {
	v := make([]int32, n)
	for i := range v {
		v[i] = rng.Int32N(MaxInputValue)
	}
	return v
}

// NewRand returns a generator seeded with seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
