// Package tensor provides the public API for the float32 tensors used
// throughout the encoder.
//
// Tensors are contiguous, row-major and CPU-resident. Operations return
// fresh tensors; Reshape returns a view sharing the buffer. Shape
// violations panic, file and format problems are returned as errors by
// the loader package.
//
// Example:
//
//	x := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	y := tensor.Ones(tensor.Shape{2, 2})
//	z := x.MatMul(y)
package tensor

import (
	"github.com/quill-ml/quill/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is a dense float32 tensor.
type Tensor = tensor.Tensor

// New creates a zero-initialized tensor of the given shape.
func New(shape Shape) *Tensor {
	return tensor.New(shape)
}

// FromSlice creates a tensor that copies data, in row-major order.
func FromSlice(data []float32, shape Shape) *Tensor {
	return tensor.FromSlice(data, shape)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return tensor.Ones(shape)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float32) *Tensor {
	return tensor.Full(shape, value)
}

// Randn creates a tensor with standard normal values.
func Randn(shape Shape) *Tensor {
	return tensor.Randn(shape)
}
