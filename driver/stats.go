package driver

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// recentWindow is the number of most recent latencies kept for quantiles.
const recentWindow = 1024

// Stats summarizes a run.
type Stats struct {
	Iterations        int // iterations attempted
	Verified          int // iterations whose result passed verification
	AcceleratorErrors int

	Elapsed       time.Duration
	MeanLatency   time.Duration
	StdDevLatency time.Duration
	MaxLatency    time.Duration

	// Quantiles over the last recentWindow iterations
	P50Latency time.Duration
	P99Latency time.Duration

	// Device memory still held when the run ended; both are zero unless a
	// MemoryProbe was given or something leaked.
	LiveAllocations int
	LiveBytes       int64
}

func (s Stats) String() string {
	return fmt.Sprintf("%d iterations (%d verified, %d accelerator errors) in %v; "+
		"latency mean %v stddev %v max %v p50 %v p99 %v; live device allocations %d (%d bytes)",
		s.Iterations, s.Verified, s.AcceleratorErrors, s.Elapsed.Round(time.Millisecond),
		s.MeanLatency, s.StdDevLatency, s.MaxLatency, s.P50Latency, s.P99Latency,
		s.LiveAllocations, s.LiveBytes)
}

// recorder accumulates per-iteration samples in constant space: running
// mean and M2 (Welford) for the whole run plus a ring of recent latencies.
// Latencies are in seconds.
type recorder struct {
	begin time.Time

	n    int
	mean float64
	m2   float64
	max  float64

	recent [recentWindow]float64
	next   int // ring write position

	verifiedN int
	errorsN   int
}

func (r *recorder) start() {
	r.begin = time.Now()
}

func (r *recorder) observe(d time.Duration) {
	x := d.Seconds()
	r.n++
	delta := x - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (x - r.mean)
	if r.n == 1 || x > r.max {
		r.max = x
	}

	r.recent[r.next] = x
	r.next = (r.next + 1) % recentWindow
}

func (r *recorder) verified() { r.verifiedN++ }

func (r *recorder) failed() { r.errorsN++ }

// window returns the recent latencies in ascending order.
func (r *recorder) window() []float64 {
	w := make([]float64, min(r.n, recentWindow))
	copy(w, r.recent[:len(w)])
	sort.Float64s(w)
	return w
}

func (r *recorder) stats() Stats {
	s := Stats{
		Iterations:        r.n,
		Verified:          r.verifiedN,
		AcceleratorErrors: r.errorsN,
		Elapsed:           time.Since(r.begin),
	}
	if r.n == 0 {
		return s
	}
	s.MeanLatency = seconds(r.mean)
	s.MaxLatency = seconds(r.max)
	if r.n > 1 {
		// sample variance, matching stat.MeanStdDev
		s.StdDevLatency = seconds(math.Sqrt(r.m2 / float64(r.n-1)))
	}

	w := r.window()
	s.P50Latency = seconds(stat.Quantile(0.5, stat.Empirical, w, nil))
	s.P99Latency = seconds(stat.Quantile(0.99, stat.Empirical, w, nil))
	return s
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
