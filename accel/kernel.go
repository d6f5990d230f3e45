package accel

import (
	"github.com/notargets/VecKernel/runner/builder"
)

// KernelName is the name the addition kernel is built under
const KernelName = "vecAdd"

// Parameter names shared by the kernel signature and every launch
const (
	paramA = "a"
	paramB = "b"
	paramC = "c"
	paramN = "N"
)

// kernelParams returns the parameter layout of the addition kernel.
// Arrays come first, then the length, matching builder.OrderParams.
func kernelParams(intType builder.DataType) []builder.ParamSpec {
	return builder.Specs(
		builder.Input(paramA).Type(builder.INT32).Size(1),
		builder.Input(paramB).Type(builder.INT32).Size(1),
		builder.Output(paramC).Type(builder.INT32).Size(1),
		builder.Scalar(paramN).Type(intType),
	)
}

// kernelSource generates the addition kernel. Each unit adds one element and
// the i < N guard in the template keeps the last, partially filled block in
// bounds.
func kernelSource(kb *builder.Builder) string {
	return kb.GenerateKernelTemplate(KernelName, paramN, kernelParams(kb.IntType),
		"c[i] = a[i] + b[i];")
}
