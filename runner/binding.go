package runner

import (
	"fmt"
	"github.com/notargets/VecKernel/runner/builder"
)

// ActionFlags represents the memory operations to perform for a parameter
type ActionFlags int

const (
	// No action
	NoAction ActionFlags = 0
	// Copy from host to device before kernel execution
	CopyTo ActionFlags = 1 << (iota - 1)
	// Copy from device to host after kernel execution
	CopyBack
	// Bidirectional copy (CopyTo | CopyBack)
	Copy = CopyTo | CopyBack
)

// DeviceBinding represents a host↔device data binding for one kernel parameter
type DeviceBinding struct {
	Name string

	// Host data reference - original binding from user ([]T, scalar or *scalar)
	HostBinding interface{}

	DataType builder.DataType
	Size     int64 // Total number of elements

	IsScalar bool
	IsTemp   bool
	IsOutput bool // Whether parameter can be written to in kernel

	Actions ActionFlags

	// Device memory; nil for scalars
	Buffer *DeviceBuffer

	Spec builder.ParamSpec
}

// HasAction checks if a specific action is set
func (db *DeviceBinding) HasAction(action ActionFlags) bool {
	return db.Actions&action != 0
}

// ScalarValue returns the value passed by value to the kernel
func (db *DeviceBinding) ScalarValue() (interface{}, error) {
	if !db.IsScalar {
		return nil, fmt.Errorf("%s is not a scalar", db.Name)
	}
	if db.HostBinding == nil {
		return nil, fmt.Errorf("no value bound for scalar %s", db.Name)
	}
	return scalarValue(db.HostBinding), nil
}

// createBindingFromParam converts a validated ParamSpec into a DeviceBinding
func createBindingFromParam(spec builder.ParamSpec) *DeviceBinding {
	binding := &DeviceBinding{
		Name:        spec.Name,
		HostBinding: spec.HostBinding,
		DataType:    spec.DataType,
		Size:        spec.Size,
		IsScalar:    spec.IsScalar(),
		IsTemp:      spec.Direction == builder.DirectionTemp,
		IsOutput:    !spec.IsConst(),
		Spec:        spec,
	}
	if spec.NeedsCopyTo() {
		binding.Actions |= CopyTo
	}
	if spec.NeedsCopyBack() {
		binding.Actions |= CopyBack
	}
	return binding
}

// Allocation is the set of device buffers backing one kernel invocation.
// It owns every buffer it allocates; Free releases all of them.
type Allocation struct {
	runner   *Runner
	bindings []*DeviceBinding // definition order
	byName   map[string]*DeviceBinding
	freed    bool
}

// Allocate validates the parameters, allocates device memory for every
// array and returns the scoped allocation. Nothing is copied yet. If any step
// fails, buffers allocated so far are released before returning.
func (kr *Runner) Allocate(params ...*builder.ParamBuilder) (*Allocation, error) {
	alloc := &Allocation{
		runner: kr,
		byName: make(map[string]*DeviceBinding),
	}
	fail := func(err error) (*Allocation, error) {
		alloc.Free()
		return nil, err
	}

	for i, p := range params {
		if p == nil {
			return fail(fmt.Errorf("parameter %d is nil", i))
		}
		spec := p.Spec
		if err := spec.Validate(); err != nil {
			return fail(fmt.Errorf("parameter %d: %w", i, err))
		}
		if _, exists := alloc.byName[spec.Name]; exists {
			return fail(fmt.Errorf("parameter %s defined twice", spec.Name))
		}

		binding := createBindingFromParam(spec)
		if !binding.IsScalar {
			buf, err := kr.Malloc(spec.Name, spec.DataType, spec.Size)
			if err != nil {
				return fail(fmt.Errorf("failed to allocate %s: %w", spec.Name, err))
			}
			binding.Buffer = buf
		}

		alloc.bindings = append(alloc.bindings, binding)
		alloc.byName[spec.Name] = binding
	}

	return alloc, nil
}

// Binding returns the binding for a named parameter
func (a *Allocation) Binding(name string) *DeviceBinding {
	return a.byName[name]
}

// Buffer returns the device buffer for a named array parameter
func (a *Allocation) Buffer(name string) *DeviceBuffer {
	if b, ok := a.byName[name]; ok {
		return b.Buffer
	}
	return nil
}

// Specs returns the parameter specifications in definition order
func (a *Allocation) Specs() []builder.ParamSpec {
	specs := make([]builder.ParamSpec, 0, len(a.bindings))
	for _, b := range a.bindings {
		specs = append(specs, b.Spec)
	}
	return specs
}

// Bytes returns the device memory held by the allocation
func (a *Allocation) Bytes() int64 {
	var total int64
	for _, b := range a.bindings {
		if b.Buffer != nil {
			total += b.Buffer.Bytes()
		}
	}
	return total
}

// CopyToDevice performs host→device copies. With no names, every binding
// configured with CopyTo is copied; named bindings are copied regardless of
// their configured actions.
func (a *Allocation) CopyToDevice(names ...string) error {
	return a.copyBindings(names, CopyTo, func(b *DeviceBinding) error {
		return b.Buffer.Upload(b.HostBinding)
	})
}

// CopyFromDevice performs device→host copies, selected like CopyToDevice
func (a *Allocation) CopyFromDevice(names ...string) error {
	return a.copyBindings(names, CopyBack, func(b *DeviceBinding) error {
		return b.Buffer.Download(b.HostBinding)
	})
}

func (a *Allocation) copyBindings(names []string, action ActionFlags,
	do func(*DeviceBinding) error) error {
	if a.freed {
		return fmt.Errorf("allocation has been freed")
	}

	selected := a.bindings
	if len(names) > 0 {
		selected = make([]*DeviceBinding, 0, len(names))
		for _, name := range names {
			b, ok := a.byName[name]
			if !ok {
				return fmt.Errorf("binding %s not found", name)
			}
			selected = append(selected, b)
		}
	}

	for _, b := range selected {
		if len(names) == 0 && !b.HasAction(action) {
			continue
		}
		if b.IsScalar {
			continue // Scalars are passed by value
		}
		if b.HostBinding == nil {
			return fmt.Errorf("binding %s has no host data", b.Name)
		}
		if err := do(b); err != nil {
			return err
		}
	}
	return nil
}

// Free releases every device buffer in reverse allocation order.
// Calling Free more than once is a no-op.
func (a *Allocation) Free() {
	if a == nil || a.freed {
		return
	}
	for i := len(a.bindings) - 1; i >= 0; i-- {
		a.bindings[i].Buffer.Free()
	}
	a.freed = true
}
