package builder

import (
	"fmt"
	"math"
	"strings"
)

// DataType represents the element type of device data
type DataType int

const (
	Float32 DataType = iota + 1
	Float64
	INT32
	INT64
)

// String returns the Go name of the data type
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case INT32:
		return "int32"
	case INT64:
		return "int64"
	default:
		return fmt.Sprintf("DataType(%d)", int(dt))
	}
}

// CType returns the C type used for the data type inside kernels
func (dt DataType) CType() string {
	switch dt {
	case Float32:
		return "float"
	case Float64:
		return "double"
	case INT32:
		return "int"
	case INT64:
		return "long"
	default:
		return "double"
	}
}

// Size returns the size in bytes of one value
func (dt DataType) Size() int64 {
	switch dt {
	case Float32, INT32:
		return 4
	case Float64, INT64:
		return 8
	default:
		return 8
	}
}

// DefaultBlockSize is the number of units launched per block
const DefaultBlockSize = 256

// MaxBlockSize is the largest block most CUDA devices accept
const MaxBlockSize = 1024

// Config holds configuration for creating a Builder
type Config struct {
	BlockSize int
	IntType   DataType
}

// Builder generates the code shared by all kernels of a Runner
type Builder struct {
	// Launch geometry
	BlockSize int

	// Type used for int_t (lengths and indices)
	IntType DataType

	// Extra #define lines added to the preamble
	Defines map[string]string

	// Generated code
	KernelPreamble string
}

// NewBuilder creates a new Builder instance
func NewBuilder(cfg Config) *Builder {
	blockSize := cfg.BlockSize
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	if blockSize < 0 || blockSize > MaxBlockSize {
		panic(fmt.Sprintf("block size must be in [1, %d], got %d",
			MaxBlockSize, cfg.BlockSize))
	}
	intType := cfg.IntType
	if intType == 0 {
		intType = INT32
	}
	if intType != INT32 && intType != INT64 {
		panic(fmt.Sprintf("int type must be INT32 or INT64, got %v", intType))
	}
	return &Builder{
		BlockSize: blockSize,
		IntType:   intType,
		Defines:   make(map[string]string),
	}
}

// AddDefine adds a preprocessor constant to the kernel preamble
func (kb *Builder) AddDefine(name, value string) {
	kb.Defines[name] = value
}

// NumBlocks returns the number of blocks needed to cover n units
func (kb *Builder) NumBlocks(n int) int {
	return (n + kb.BlockSize - 1) / kb.BlockSize
}

// IntScalar converts a length to the Go type matching int_t on the device.
// Lengths outside the int_t range are an error rather than a silent wrap.
func (kb *Builder) IntScalar(n int) (interface{}, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative length %d", n)
	}
	if kb.IntType == INT64 {
		return int64(n), nil
	}
	if int64(n) > math.MaxInt32 {
		return nil, fmt.Errorf("length %d exceeds int_t range (%v, max %d)",
			n, kb.IntType, math.MaxInt32)
	}
	return int32(n), nil
}

// GeneratePreamble generates the kernel preamble with types and launch macros
func (kb *Builder) GeneratePreamble() string {
	var sb strings.Builder

	// 1. Type definitions
	sb.WriteString(kb.generateTypeDefinitions())

	// 2. User constants
	sb.WriteString(kb.generateDefines())

	// 3. Launch geometry macros
	sb.WriteString(kb.generateGridMacros())

	kb.KernelPreamble = sb.String()
	return kb.KernelPreamble
}

// generateTypeDefinitions creates the int_t type used for lengths and indices
func (kb *Builder) generateTypeDefinitions() string {
	return fmt.Sprintf("typedef %s int_t;\n\n", kb.IntType.CType())
}

// generateDefines emits user constants in sorted order so the source is stable
func (kb *Builder) generateDefines() string {
	if len(kb.Defines) == 0 {
		return ""
	}
	names := make([]string, 0, len(kb.Defines))
	for name := range kb.Defines {
		names = append(names, name)
	}
	sortStrings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("#define %s %s\n", name, kb.Defines[name]))
	}
	sb.WriteString("\n")
	return sb.String()
}

// generateGridMacros creates the block size constant and index helpers.
// Inner loop bounds must be compile-time constants on CUDA and OpenCL, so the
// block size lives in the preamble and only the block count is computed at
// run time.
func (kb *Builder) generateGridMacros() string {
	var sb strings.Builder

	sb.WriteString("// Launch geometry\n")
	sb.WriteString(fmt.Sprintf("#define BLOCK_SIZE %d\n", kb.BlockSize))
	sb.WriteString("#define NUM_BLOCKS(N) (((N) + BLOCK_SIZE - 1) / BLOCK_SIZE)\n")
	sb.WriteString("#define GLOBAL_ID(block, unit) ((int_t)(block) * BLOCK_SIZE + (unit))\n")
	sb.WriteString("\n")

	return sb.String()
}

// sortStrings sorts a slice of strings (simple insertion sort for small slices)
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
