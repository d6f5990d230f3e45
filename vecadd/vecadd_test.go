package vecadd

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	tests := []struct {
		name string
		a, b []int32
		want []int32
	}{
		{"two elements", []int32{2, 3}, []int32{10, 20}, []int32{12, 23}},
		{"largest inputs", []int32{99}, []int32{99}, []int32{198}},
		{"empty", []int32{}, []int32{}, []int32{}},
		{"negative", []int32{-5, 7}, []int32{5, -9}, []int32{0, -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Add(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdd_LengthMismatch(t *testing.T) {
	_, err := Add([]int32{1, 2}, []int32{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	err = AddInto(make([]int32, 1), []int32{1, 2}, []int32{3, 4})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestAddInto(t *testing.T) {
	dst := []int32{-1, -1, -1}
	require.NoError(t, AddInto(dst, []int32{1, 2, 3}, []int32{4, 5, 6}))
	assert.Equal(t, []int32{5, 7, 9}, dst)
}

func TestGridSize(t *testing.T) {
	tests := []struct {
		n, block, want int
	}{
		{0, 256, 0},
		{-3, 256, 0},
		{1, 256, 1},
		{256, 256, 1},
		{257, 256, 2},
		{1024, 256, 4},
		{1025, 256, 5},
		{7, 1, 7},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d/block=%d", tt.n, tt.block), func(t *testing.T) {
			assert.Equal(t, tt.want, GridSize(tt.n, tt.block))
		})
	}

	assert.Panics(t, func() { GridSize(10, 0) })
}

func TestAddBlocks_MatchesAdd(t *testing.T) {
	rng := NewRand(42)
	for _, n := range []int{0, 1, 255, 256, 257, 1024, 1025, 4099} {
		for _, block := range []int{1, 32, 256, 1024} {
			t.Run(fmt.Sprintf("n=%d/block=%d", n, block), func(t *testing.T) {
				a := RandomInputs(rng, n)
				b := RandomInputs(rng, n)

				want, err := Add(a, b)
				require.NoError(t, err)
				got, err := AddBlocks(context.Background(), a, b, block)
				require.NoError(t, err)

				assert.Equal(t, want, got)
				assert.NoError(t, Verify(a, b, got))
			})
		}
	}
}

func TestAddBlocks_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := make([]int32, 4096)
	_, err := AddBlocks(ctx, a, a, 256)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHostAdder(t *testing.T) {
	h := HostAdder{}
	assert.Equal(t, "host", h.Name())

	got, err := h.Add([]int32{2, 3}, []int32{10, 20})
	require.NoError(t, err)
	assert.Equal(t, []int32{12, 23}, got)

	_, err = HostAdder{BlockSize: 3}.Add([]int32{1}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestVerify(t *testing.T) {
	a := []int32{1, 2, 3, 4}
	b := []int32{10, 20, 30, 40}

	t.Run("correct", func(t *testing.T) {
		assert.NoError(t, Verify(a, b, []int32{11, 22, 33, 44}))
		assert.NoError(t, Verify(nil, nil, nil))
	})

	t.Run("first mismatch reported", func(t *testing.T) {
		err := Verify(a, b, []int32{11, 0, 33, 0})
		var mismatch *MismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, 1, mismatch.Index)
		assert.Equal(t, int32(2), mismatch.A)
		assert.Equal(t, int32(20), mismatch.B)
		assert.Equal(t, int32(0), mismatch.Got)
		assert.Contains(t, err.Error(), "index 1")
		assert.Contains(t, err.Error(), "2 + 20 = 22")
	})

	t.Run("short output", func(t *testing.T) {
		assert.ErrorIs(t, Verify(a, b, []int32{11}), ErrLengthMismatch)
	})

	t.Run("MustVerify", func(t *testing.T) {
		assert.NotPanics(t, func() { MustVerify(a, b, []int32{11, 22, 33, 44}) })
		assert.Panics(t, func() { MustVerify(a, b, []int32{11, 22, 33, 45}) })
	})
}

func TestRandomInputs(t *testing.T) {
	rng := NewRand(7)
	v := RandomInputs(rng, 10000)
	require.Len(t, v, 10000)
	for i, x := range v {
		if x < 0 || x >= MaxInputValue {
			t.Fatalf("value %d at %d outside [0, %d)", x, i, MaxInputValue)
		}
	}

	// same seed, same sequence
	assert.Equal(t, RandomInputs(NewRand(3), 64), RandomInputs(NewRand(3), 64))
	assert.Empty(t, RandomInputs(rng, 0))
}
