package gpu

import (
	"fmt"
	"sort"
	"strings"
)

// FunctionConstant is one boolean specialization constant.
type FunctionConstant struct {
	Index int
	Name  string
	Value bool
}

// FunctionConstantValues is an ordered set of boolean specialization constants used to compile
// a shader variant with code paths statically enabled or disabled.
type FunctionConstantValues struct {
	constants map[int]FunctionConstant
}

// NewFunctionConstantValues creates an empty constant set.
//
// Returns:
//   - *FunctionConstantValues: the empty set
func NewFunctionConstantValues() *FunctionConstantValues {
	return &FunctionConstantValues{constants: make(map[int]FunctionConstant)}
}

// SetBool sets the constant at index, replacing any earlier value.
//
// Parameters:
//   - index: the constant index
//   - name: the identifier the shader source uses for this constant
//   - value: the constant value
func (f *FunctionConstantValues) SetBool(index int, name string, value bool) {
	f.constants[index] = FunctionConstant{Index: index, Name: name, Value: value}
}

// Bool returns the constant at index.
//
// Returns:
//   - bool: the constant value
//   - bool: false when the index was never set
func (f *FunctionConstantValues) Bool(index int) (bool, bool) {
	if f == nil {
		return false, false
	}
	c, ok := f.constants[index]
	return c.Value, ok
}

// Constants returns every constant ordered by index.
func (f *FunctionConstantValues) Constants() []FunctionConstant {
	if f == nil {
		return nil
	}
	out := make([]FunctionConstant, 0, len(f.constants))
	for _, c := range f.constants {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Merge returns a new set holding base overridden by every constant in f. Either may be nil.
//
// Parameters:
//   - base: the defaults to start from
//
// Returns:
//   - *FunctionConstantValues: the merged set
func (f *FunctionConstantValues) Merge(base *FunctionConstantValues) *FunctionConstantValues {
	out := NewFunctionConstantValues()
	for _, c := range base.Constants() {
		out.constants[c.Index] = c
	}
	for _, c := range f.Constants() {
		out.constants[c.Index] = c
	}
	return out
}

// Len returns the number of constants set.
func (f *FunctionConstantValues) Len() int {
	if f == nil {
		return 0
	}
	return len(f.constants)
}

// Key returns a stable string identifying this exact constant assignment, used to cache
// specialized functions.
func (f *FunctionConstantValues) Key() string {
	var sb strings.Builder
	for _, c := range f.Constants() {
		if c.Value {
			fmt.Fprintf(&sb, "%d=1;", c.Index)
		} else {
			fmt.Fprintf(&sb, "%d=0;", c.Index)
		}
	}
	return sb.String()
}

// WGSLPrelude renders the constants as WGSL module-scope declarations. Backends that compile
// WGSL prepend this to the library source when specializing a function.
//
// Returns:
//   - string: one `const name: bool = value;` line per constant
func (f *FunctionConstantValues) WGSLPrelude() string {
	var sb strings.Builder
	for _, c := range f.Constants() {
		fmt.Fprintf(&sb, "const %s: bool = %t;\n", c.Name, c.Value)
	}
	return sb.String()
}
