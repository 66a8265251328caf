// Package tensor implements the dense float32 tensors and CPU kernels
// the encoder computes with.
//
// Tensors are always contiguous in row-major order and hold a single
// float32 buffer; there is no dtype or device dispatch. Operations
// return fresh tensors and never alias their inputs unless documented
// (Reshape shares the backing buffer). Shape violations are programmer
// errors and panic with a message naming the operation and the
// offending dimensions.
package tensor

import (
	"fmt"
	"math/rand"
)

// Tensor is a dense float32 array with row-major layout.
type Tensor struct {
	shape   Shape
	strides []int
	data    []float32
}

// New creates a zero-filled tensor of the given shape.
// Panics if the shape has a non-positive dimension.
func New(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor.New: %v", err))
	}
	return &Tensor{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		data:    make([]float32, shape.NumElements()),
	}
}

// FromSlice creates a tensor of the given shape holding a copy of data.
// Panics if len(data) does not match the shape's element count.
func FromSlice(data []float32, shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor.FromSlice: %v", err))
	}
	if len(data) != shape.NumElements() {
		panic(fmt.Sprintf("tensor.FromSlice: data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements()))
	}
	t := New(shape)
	copy(t.data, data)
	return t
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return New(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Full creates a tensor with every element set to value.
func Full(shape Shape, value float32) *Tensor {
	t := New(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Randn creates a tensor with elements drawn from N(0, 1).
func Randn(shape Shape) *Tensor {
	t := New(shape)
	for i := range t.data {
		//nolint:gosec // math/rand is appropriate for weight initialization
		t.data[i] = float32(rand.NormFloat64())
	}
	return t
}

// Shape returns the tensor's shape. Callers must treat it as read-only.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the backing buffer in row-major order. Mutating it
// mutates the tensor; the checkpoint loader fills weights this way.
func (t *Tensor) Data() []float32 {
	return t.data
}

// At returns the element at the given multi-dimensional index.
func (t *Tensor) At(indices ...int) float32 {
	return t.data[t.flatIndex(indices)]
}

// Set stores value at the given multi-dimensional index.
func (t *Tensor) Set(value float32, indices ...int) {
	t.data[t.flatIndex(indices)] = value
}

func (t *Tensor) flatIndex(indices []int) int {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("tensor: expected %d indices for shape %v, got %d", len(t.shape), t.shape, len(indices)))
	}
	flat := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range [0, %d) at dimension %d", idx, t.shape[i], i))
		}
		flat += idx * t.strides[i]
	}
	return flat
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := New(t.shape)
	copy(c.data, t.data)
	return c
}

// Reshape returns a view of the tensor with a new shape. The element
// count must be unchanged; the backing buffer is shared, not copied.
func (t *Tensor) Reshape(dims ...int) *Tensor {
	shape := Shape(dims)
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("Reshape: %v", err))
	}
	if shape.NumElements() != len(t.data) {
		panic(fmt.Sprintf("Reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.shape, len(t.data), shape, shape.NumElements()))
	}
	return &Tensor{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		data:    t.data,
	}
}
