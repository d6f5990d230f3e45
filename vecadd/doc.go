// Package vecadd implements elementwise addition of int32 vectors on the host:
// a sequential reference, a block-parallel variant that mirrors the
// accelerator grid (whole blocks, per-unit bounds guard), and the verifier used
// to check any implementation against the arithmetic definition.
//
// The accelerator implementation lives in package accel.
package vecadd
