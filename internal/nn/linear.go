package nn

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// Linear is a bias-free affine projection y = x @ W^T.
//
// The weight is stored as [out_features, in_features], the layout used by
// transformer checkpoints, so Forward multiplies against the transpose
// without materializing it.
type Linear struct {
	Weight *tensor.Tensor // shape [out_features, in_features]
}

// NewLinear creates a projection from inFeatures to outFeatures with
// Xavier-initialized weights.
func NewLinear(inFeatures, outFeatures int) *Linear {
	return &Linear{
		Weight: xavierUniform(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}),
	}
}

// InFeatures returns the expected input width.
func (l *Linear) InFeatures() int {
	return l.Weight.Shape()[1]
}

// OutFeatures returns the output width.
func (l *Linear) OutFeatures() int {
	return l.Weight.Shape()[0]
}

// Forward projects a batch of row vectors.
//
// Shapes:
//
//	x:      [rows, in_features]
//	output: [rows, out_features]
//
// Callers with higher-rank inputs reshape to 2D around the call.
// Panics if x is not 2D or its width does not match the weight.
func (l *Linear) Forward(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Linear: expected 2D input, got shape %v", shape))
	}
	if shape[1] != l.InFeatures() {
		panic(fmt.Sprintf("Linear: expected input width %d, got %d", l.InFeatures(), shape[1]))
	}
	return x.MatMulT(l.Weight)
}
