// Package main runs the vecadd demo: it adds random int32 vectors on an OCCA
// device over and over and verifies every result against the host.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/notargets/VecKernel/accel"
	"github.com/notargets/VecKernel/config"
	"github.com/notargets/VecKernel/driver"
	"github.com/notargets/VecKernel/utils"
	"github.com/notargets/VecKernel/vecadd"
)

const exitFailure = 1

var (
	cfgFile string
	cfg     = config.Default()

	// selectAdder picks the adder for a run; replaced in tests.
	selectAdder = newAdder
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
}

func newRootCmd() *cobra.Command {
	cfgFile = ""
	cfg = config.Default()

	rootCmd := &cobra.Command{
		Use:   "vecadd",
		Short: "Add int32 vectors on an OCCA device and verify every result",
		Long: `vecadd generates two random int32 vectors per iteration, adds them on the
selected OCCA device and checks every element against a host computation.

A wrong result stops the run with a diagnostic and exit status 1. Device
errors are reported on stderr and the run continues with the next iteration.`,
		Example: `  vecadd                                 # 1,000,000 iterations of 1024 elements
  vecadd -n 100 --quiet                  # short run, summary only
  vecadd --device '{"mode": "Serial"}'   # force a backend
  vecadd --host                          # no device, goroutine blocks`,
		Args:          cobra.NoArgs,
		PreRunE:       loadConfig,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&cfgFile, "config", "c", "", "YAML config file; flags override its values")
	flags.IntVarP(&cfg.Iterations, "iterations", "n", cfg.Iterations, "number of iterations")
	flags.IntVarP(&cfg.Length, "length", "l", cfg.Length, "elements per vector")
	flags.IntVarP(&cfg.BlockSize, "block-size", "b", cfg.BlockSize, "units per block")
	flags.StringVarP(&cfg.Device, "device", "d", cfg.Device, `OCCA device properties (JSON) or "auto"`)
	flags.Uint64Var(&cfg.Seed, "seed", 0, "random seed, 0 for time-based")
	flags.BoolVar(&cfg.Host, "host", false, "add on the host instead of a device")
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", false, "suppress per-iteration lines")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "debug logging, kernel source and memory report")

	return rootCmd
}

// loadConfig applies the config file, if any, then re-applies every flag the
// user set explicitly so the command line wins.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if cfgFile != "" {
		fileCfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("iterations") {
			fileCfg.Iterations = cfg.Iterations
		}
		if flags.Changed("length") {
			fileCfg.Length = cfg.Length
		}
		if flags.Changed("block-size") {
			fileCfg.BlockSize = cfg.BlockSize
		}
		if flags.Changed("device") {
			fileCfg.Device = cfg.Device
		}
		if flags.Changed("seed") {
			fileCfg.Seed = cfg.Seed
		}
		if flags.Changed("host") {
			fileCfg.Host = cfg.Host
		}
		if flags.Changed("quiet") {
			fileCfg.Quiet = cfg.Quiet
		}
		if flags.Changed("verbose") {
			fileCfg.Verbose = cfg.Verbose
		}
		cfg = fileCfg
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	return cfg.Validate()
}

func run(cmd *cobra.Command, _ []string) error {
	adder, probe, cleanup, err := selectAdder()
	if err != nil {
		return err
	}
	defer cleanup()

	opts := []driver.Option{driver.WithOutput(cmd.OutOrStdout())}
	if probe != nil {
		opts = append(opts, driver.WithMemoryProbe(probe))
	}
	d := driver.New(adder, driver.Config{
		Iterations: cfg.Iterations,
		Length:     cfg.Length,
		Seed:       cfg.Seed,
		Quiet:      cfg.Quiet,
	}, opts...)

	stats, err := d.Run(cmd.Context())
	slog.Info("run finished", "stats", stats.String())

	var mismatch *vecadd.MismatchError
	switch {
	case errors.As(err, &mismatch):
		return fmt.Errorf("verification failed: %w", err)
	case errors.Is(err, context.Canceled):
		slog.Warn("run interrupted", "iterations", stats.Iterations)
		return nil
	case err != nil:
		return err
	}
	return nil
}

// newAdder returns the adder selected by cfg, the device memory probe when a
// device is in use, and a cleanup that releases the device. With the "auto"
// device a failed device setup falls back to the host adder.
func newAdder() (driver.Adder, driver.MemoryProbe, func(), error) {
	host := vecadd.HostAdder{BlockSize: cfg.BlockSize}
	if cfg.Host {
		slog.Info("using host adder", "block_size", cfg.BlockSize)
		return host, nil, func() {}, nil
	}

	device, err := utils.CreateDevice(cfg.Device)
	if err != nil {
		if cfg.Device == utils.AutoDevice {
			slog.Warn("no OCCA device, falling back to host adder", "err", err)
			return host, nil, func() {}, nil
		}
		return nil, nil, nil, err
	}

	acc, err := accel.New(device, accel.Config{BlockSize: cfg.BlockSize})
	if err != nil {
		device.Free()
		return nil, nil, nil, err
	}
	slog.Info("using accelerator", "device", acc.Name(), "block_size", acc.BlockSize())
	slog.Debug("kernel source", "source", acc.KernelSource())

	cleanup := func() {
		slog.Debug("device memory", "summary", acc.Tracker().Summary(),
			"launches", acc.Launches())
		acc.Close()
		device.Free()
	}
	return acc, acc.Tracker(), cleanup, nil
}
