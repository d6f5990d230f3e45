package vecadd

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultBlockSize is the number of units per block.
const DefaultBlockSize = 256

// GridSize returns the number of blocks of blockSize units needed to cover n
// elements. It panics if blockSize is not positive.
func GridSize(n, blockSize int) int {
	if blockSize <= 0 {
		panic(fmt.Sprintf("vecadd: block size must be positive, got %d", blockSize))
	}
	if n <= 0 {
		return 0
	}
	return (n + blockSize - 1) / blockSize
}

// AddBlocks computes the elementwise sum with the accelerator's execution
// model on goroutines: one task per block, each unit handling global index
// block*blockSize+unit and doing nothing past the end of the data. Blocks share
// no state beyond disjoint slices of the output.
func AddBlocks(ctx context.Context, a, b []int32, blockSize int) ([]int32, error) {
	if len(b) != len(a) {
		return nil, lengthError("b", len(a), len(b))
	}
	n := len(a)
	out := make([]int32, n)
	blocks := GridSize(n, blockSize)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for block := 0; block < blocks; block++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for unit := 0; unit < blockSize; unit++ {
				i := block*blockSize + unit
				if i < n {
					out[i] = a[i] + b[i]
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// HostAdder runs AddBlocks with a fixed block size. It stands in for the
// accelerator when no device is available.
type HostAdder struct {
	BlockSize int
}

// Add implements the adder interface used by the driver.
func (h HostAdder) Add(a, b []int32) ([]int32, error) {
	blockSize := h.BlockSize
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	return AddBlocks(context.Background(), a, b, blockSize)
}

// Name describes the adder in logs.
func (h HostAdder) Name() string {
	return "host"
}
