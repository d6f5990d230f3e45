package runner

import (
	"fmt"
	"github.com/notargets/VecKernel/runner/builder"
)

// GetKernelArguments returns the ordered kernel parameters of an allocation.
// This is the same ordering GenerateKernelSignature uses.
func (kr *Runner) GetKernelArguments(alloc *Allocation) []builder.KernelParameter {
	return kr.GetKernelSignatureInfo(alloc.Specs())
}

// GetKernelSignature generates the parameter list matching an allocation
func (kr *Runner) GetKernelSignature(alloc *Allocation) string {
	return kr.GenerateKernelSignature(alloc.Specs())
}

// buildKernelArguments constructs the argument list for kernel execution
func (kr *Runner) buildKernelArguments(alloc *Allocation, scalarValues []interface{}) ([]interface{}, error) {
	ordered := builder.OrderParams(alloc.Specs())
	args := make([]interface{}, 0, len(ordered))

	scalarIdx := 0
	for _, spec := range ordered {
		binding := alloc.Binding(spec.Name)

		if !binding.IsScalar {
			if binding.Buffer == nil || binding.Buffer.Memory == nil {
				return nil, fmt.Errorf("memory for %s not found", spec.Name)
			}
			args = append(args, binding.Buffer.Memory)
			continue
		}

		// Scalars: explicit values first, then bound values
		if scalarIdx < len(scalarValues) {
			args = append(args, scalarValues[scalarIdx])
			scalarIdx++
			continue
		}
		value, err := binding.ScalarValue()
		if err != nil {
			return nil, err
		}
		args = append(args, value)
	}

	if scalarIdx < len(scalarValues) {
		return nil, fmt.Errorf("%d scalar values given, kernel takes %d",
			len(scalarValues), scalarIdx)
	}

	return args, nil
}

// DebugKernelArguments prints detailed information about kernel arguments
func (kr *Runner) DebugKernelArguments(alloc *Allocation) {
	fmt.Println("=== Kernel Arguments Debug Info ===")
	for i, karg := range kr.GetKernelArguments(alloc) {
		fmt.Printf("%2d: %-12s %-10s %-7s const=%v\n",
			i, karg.Name, karg.Type, karg.Category, karg.IsConst)

		if karg.Category == "array" && alloc.Buffer(karg.Name) == nil {
			fmt.Printf("    WARNING: no device memory for '%s'!\n", karg.Name)
		}
	}
	fmt.Println("===================================")
}
