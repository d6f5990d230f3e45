// Package driver runs the repeated add-and-verify loop of the vecadd demo.
package driver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/notargets/VecKernel/vecadd"
)

// Adder is an elementwise vector addition that may fail, such as an
// accelerator call that owns its own data movement.
type Adder interface {
	Add(a, b []int32) ([]int32, error)
}

// MemoryProbe reports device memory still held, for the leak check.
type MemoryProbe interface {
	LiveCount() int
	LiveBytes() int64
}

// Config controls one run.
type Config struct {
	Iterations int
	Length     int
	Seed       uint64 // 0 picks a time-based seed
	Quiet      bool   // suppress per-iteration lines
}

// Driver generates inputs, calls the adder and verifies every result.
type Driver struct {
	cfg    Config
	adder  Adder
	out    io.Writer
	log    *slog.Logger
	memory MemoryProbe
}

// Option configures a Driver.
type Option func(*Driver)

// WithOutput sets where per-iteration status lines go (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(d *Driver) { d.out = w }
}

// WithLogger sets the logger for diagnostics (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithMemoryProbe enables the end-of-run leak check.
func WithMemoryProbe(p MemoryProbe) Option {
	return func(d *Driver) { d.memory = p }
}

// New creates a Driver.
func New(adder Adder, cfg Config, opts ...Option) *Driver {
	d := &Driver{
		cfg:   cfg,
		adder: adder,
		out:   os.Stdout,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run performs cfg.Iterations independent iterations. Adder errors are logged
// and the loop moves on to the next iteration. A verification mismatch stops
// the run and is returned as a *vecadd.MismatchError. Cancelling ctx stops the
// loop between iterations.
func (d *Driver) Run(ctx context.Context) (Stats, error) {
	seed := d.cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := vecadd.NewRand(seed)

	var rec recorder
	rec.start()
	d.log.Debug("starting run",
		"iterations", d.cfg.Iterations, "length", d.cfg.Length, "seed", seed)

	finish := func(err error) (Stats, error) {
		stats := rec.stats()
		if d.memory != nil {
			stats.LiveAllocations = d.memory.LiveCount()
			stats.LiveBytes = d.memory.LiveBytes()
		}
		return stats, err
	}

	for i := 0; i < d.cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		a := vecadd.RandomInputs(rng, d.cfg.Length)
		b := vecadd.RandomInputs(rng, d.cfg.Length)

		start := time.Now()
		out, err := d.adder.Add(a, b)
		rec.observe(time.Since(start))

		if err != nil {
			rec.failed()
			d.log.Error("accelerator error", "iteration", i, "err", err)
			continue
		}

		if err := vecadd.Verify(a, b, out); err != nil {
			return finish(fmt.Errorf("iteration %d: %w", i, err))
		}
		rec.verified()

		if !d.cfg.Quiet {
			fmt.Fprintf(d.out, "iteration %d: success\n", i)
		}
	}

	stats, err := finish(nil)
	if err == nil && stats.LiveAllocations > 0 {
		d.log.Warn("device memory still allocated after run",
			"allocations", stats.LiveAllocations, "bytes", stats.LiveBytes)
	}
	return stats, err
}
