package tensor

import "fmt"

// Add returns the elementwise sum of two same-shape tensors.
func (t *Tensor) Add(other *Tensor) *Tensor {
	if !t.shape.Equal(other.shape) {
		panic(fmt.Sprintf("Add: shape mismatch %v vs %v", t.shape, other.shape))
	}
	out := New(t.shape)
	for i := range t.data {
		out.data[i] = t.data[i] + other.data[i]
	}
	return out
}

// Mul returns the elementwise product of two same-shape tensors.
func (t *Tensor) Mul(other *Tensor) *Tensor {
	if !t.shape.Equal(other.shape) {
		panic(fmt.Sprintf("Mul: shape mismatch %v vs %v", t.shape, other.shape))
	}
	out := New(t.shape)
	for i := range t.data {
		out.data[i] = t.data[i] * other.data[i]
	}
	return out
}

// MulScalar returns the tensor with every element multiplied by s.
func (t *Tensor) MulScalar(s float32) *Tensor {
	out := New(t.shape)
	for i := range t.data {
		out.data[i] = t.data[i] * s
	}
	return out
}

// Transpose returns a copy with dimensions permuted according to axes.
// With no axes given, all dimensions are reversed. axes must be a
// permutation of [0, ndim).
//
// Example:
//
//	x := tensor.New(tensor.Shape{2, 4, 3, 8}) // [batch, seq, heads, dim]
//	y := x.Transpose(0, 2, 1, 3)              // [batch, heads, seq, dim]
func (t *Tensor) Transpose(axes ...int) *Tensor {
	ndim := len(t.shape)

	// Default: reverse all dimensions.
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("Transpose: axes length %d must match tensor rank %d", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	newShape := make(Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("Transpose: axis %d out of range [0, %d)", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("Transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
		newShape[i] = t.shape[ax]
	}

	out := New(newShape)
	oldStrides := t.strides

	idx := make([]int, ndim)
	for i := range out.data {
		// Decompose the destination flat index into coordinates.
		tmp := i
		for j := ndim - 1; j >= 0; j-- {
			idx[j] = tmp % newShape[j]
			tmp /= newShape[j]
		}

		// Map coordinates back through the permutation.
		srcFlat := 0
		for j := 0; j < ndim; j++ {
			srcFlat += idx[j] * oldStrides[axes[j]]
		}
		out.data[i] = t.data[srcFlat]
	}
	return out
}
