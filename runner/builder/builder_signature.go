package builder

import (
	"fmt"
	"strings"
)

// KernelParameter describes one entry of a generated kernel signature
type KernelParameter struct {
	Type     string
	Name     string
	IsConst  bool
	Category string // "array" or "scalar"
}

// Declaration renders the parameter as it appears in the kernel signature
func (kp KernelParameter) Declaration() string {
	constStr := ""
	if kp.IsConst {
		constStr = "const "
	}
	return fmt.Sprintf("%s%s %s", constStr, kp.Type, kp.Name)
}

// OrderParams returns the parameters in kernel argument order: arrays first in
// definition order, then scalars in definition order. Signature generation and
// argument building both go through here so the two can never disagree.
func OrderParams(specs []ParamSpec) []ParamSpec {
	ordered := make([]ParamSpec, 0, len(specs))
	for _, s := range specs {
		if !s.IsScalar() {
			ordered = append(ordered, s)
		}
	}
	for _, s := range specs {
		if s.IsScalar() {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

// GetKernelSignatureInfo returns structured information about kernel parameters
func (kb *Builder) GetKernelSignatureInfo(specs []ParamSpec) []KernelParameter {
	ordered := OrderParams(specs)
	params := make([]KernelParameter, 0, len(ordered))

	for _, s := range ordered {
		if s.IsScalar() {
			params = append(params, KernelParameter{
				Type:     kb.scalarTypeName(s.DataType),
				Name:     s.Name,
				IsConst:  true,
				Category: "scalar",
			})
			continue
		}
		params = append(params, KernelParameter{
			Type:     s.DataType.CType() + "*",
			Name:     s.Name,
			IsConst:  s.IsConst(),
			Category: "array",
		})
	}

	return params
}

// scalarTypeName maps integer scalars of the configured width onto int_t
func (kb *Builder) scalarTypeName(dt DataType) string {
	if dt == kb.IntType {
		return "int_t"
	}
	return dt.CType()
}

// GenerateKernelSignature generates the parameter list for a kernel function
func (kb *Builder) GenerateKernelSignature(specs []ParamSpec) string {
	info := kb.GetKernelSignatureInfo(specs)
	params := make([]string, 0, len(info))
	for _, p := range info {
		params = append(params, p.Declaration())
	}
	return strings.Join(params, ",\n\t")
}

// GenerateKernelDeclaration generates a complete kernel function declaration
func (kb *Builder) GenerateKernelDeclaration(kernelName string, specs []ParamSpec) string {
	return fmt.Sprintf("@kernel void %s(\n\t%s\n)",
		kernelName,
		kb.GenerateKernelSignature(specs))
}

// GenerateKernelTemplate wraps a per-unit body in the block/unit loops.
// The body sees the unit's global index as i and the bound n, and only runs
// for i < n so a grid rounded up to whole blocks never touches memory past
// the end of the arrays.
func (kb *Builder) GenerateKernelTemplate(kernelName, lengthParam string,
	specs []ParamSpec, body string) string {
	var sb strings.Builder

	sb.WriteString(kb.GenerateKernelDeclaration(kernelName, specs))
	sb.WriteString(" {\n")
	sb.WriteString(fmt.Sprintf("\tfor (int block = 0; block < NUM_BLOCKS(%s); ++block; @outer) {\n",
		lengthParam))
	sb.WriteString("\t\tfor (int unit = 0; unit < BLOCK_SIZE; ++unit; @inner) {\n")
	sb.WriteString("\t\t\tconst int_t i = GLOBAL_ID(block, unit);\n")
	sb.WriteString(fmt.Sprintf("\t\t\tif (i < %s) {\n", lengthParam))

	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sb.WriteString("\t\t\t\t")
		sb.WriteString(strings.TrimSpace(line))
		sb.WriteString("\n")
	}

	sb.WriteString("\t\t\t}\n")
	sb.WriteString("\t\t}\n")
	sb.WriteString("\t}\n")
	sb.WriteString("}\n")

	return sb.String()
}

// Specs extracts the parameter specifications from a list of builders
func Specs(params ...*ParamBuilder) []ParamSpec {
	specs := make([]ParamSpec, 0, len(params))
	for _, p := range params {
		if p == nil {
			continue
		}
		specs = append(specs, p.Spec)
	}
	return specs
}
