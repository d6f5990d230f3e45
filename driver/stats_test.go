package driver

import (
	"context"
	"io"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestRecorder_MatchesBatchStatistics(t *testing.T) {
	tests := []struct {
		name    string
		samples int
	}{
		{"single", 1},
		{"under window", 100},
		{"over window", 3*recentWindow + 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec recorder
			rec.start()

			xs := make([]float64, tt.samples)
			for i := range xs {
				d := time.Duration((i*7919)%1000+1) * time.Microsecond
				xs[i] = d.Seconds()
				rec.observe(d)
			}
			s := rec.stats()

			mean, std := stat.MeanStdDev(xs, nil)
			assert.Equal(t, tt.samples, s.Iterations)
			assert.InDelta(t, mean, s.MeanLatency.Seconds(), 1e-8)
			if tt.samples > 1 {
				assert.InDelta(t, std, s.StdDevLatency.Seconds(), 1e-8)
			} else {
				assert.Zero(t, s.StdDevLatency)
			}
			assert.LessOrEqual(t, s.P50Latency, s.P99Latency)
			assert.LessOrEqual(t, s.P99Latency, s.MaxLatency)
			assert.LessOrEqual(t, len(rec.window()), recentWindow)
		})
	}
}

func TestRecorder_Empty(t *testing.T) {
	var rec recorder
	rec.start()
	s := rec.stats()
	assert.Zero(t, s.Iterations)
	assert.Zero(t, s.MeanLatency)
	assert.Zero(t, s.P99Latency)
}

// heapSampler reads the live heap after a GC at two chosen calls.
type heapSampler struct {
	calls       int
	first, last int
	heap        [2]uint64
}

func (h *heapSampler) Add(a, b []int32) ([]int32, error) {
	h.calls++
	if h.calls == h.first || h.calls == h.last {
		runtime.GC()
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		if h.calls == h.first {
			h.heap[0] = ms.HeapAlloc
		} else {
			h.heap[1] = ms.HeapAlloc
		}
	}
	return make([]int32, len(a)), nil
}

func TestRun_HeapStaysFlat(t *testing.T) {
	if testing.Short() {
		t.Skip("long run")
	}
	const iterations = 4 << 20
	adder := &heapSampler{first: iterations / 4, last: iterations}

	d := New(adder, Config{Iterations: iterations, Length: 0, Seed: 1, Quiet: true},
		WithOutput(io.Discard), WithLogger(quietLogger(io.Discard)))
	stats, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, iterations, stats.Iterations)

	growth := int64(adder.heap[1]) - int64(adder.heap[0])
	t.Logf("heap after %d iterations: %d KB; after %d: %d KB",
		adder.first, adder.heap[0]>>10, adder.last, adder.heap[1]>>10)
	assert.Less(t, growth, int64(1<<20), "heap grew by %d bytes", growth)
}
