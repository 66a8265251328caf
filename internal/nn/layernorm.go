package nn

import (
	"fmt"
	"math"

	"github.com/quill-ml/quill/internal/parallel"
	"github.com/quill-ml/quill/internal/tensor"
)

var rowCfg = parallel.DefaultConfig()

// LayerNorm normalizes the last dimension of its input to zero mean and
// unit variance, then applies a learned affine transform.
//
// Formula:
//
//	y = (x - mean) / sqrt(variance + eps) * gamma + beta
//
// where mean and variance are computed per row over the last dimension.
// The variance is the biased estimator (divide by dim, not dim-1).
type LayerNorm struct {
	Gamma *tensor.Tensor // learned scale, shape [dim]
	Beta  *tensor.Tensor // learned shift, shape [dim]
	Eps   float32
}

// NewLayerNorm creates a LayerNorm over vectors of the given width.
// Gamma starts at ones and Beta at zeros, so a fresh instance only
// normalizes.
func NewLayerNorm(dim int, eps float32) *LayerNorm {
	return &LayerNorm{
		Gamma: tensor.Ones(tensor.Shape{dim}),
		Beta:  tensor.Zeros(tensor.Shape{dim}),
		Eps:   eps,
	}
}

// Dim returns the width of the normalized dimension.
func (l *LayerNorm) Dim() int {
	return l.Gamma.Shape()[0]
}

// Forward normalizes x along its last dimension.
//
// Shapes:
//
//	x:      [..., dim]
//	output: [..., dim]
//
// Panics if the last dimension of x does not match the layer width.
func (l *LayerNorm) Forward(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	dim := l.Dim()
	if len(shape) == 0 || shape[len(shape)-1] != dim {
		panic(fmt.Sprintf("LayerNorm: expected last dimension %d, got shape %v", dim, shape))
	}

	out := tensor.New(shape)
	src := x.Data()
	dst := out.Data()
	gamma := l.Gamma.Data()
	beta := l.Beta.Data()

	rows := x.NumElements() / dim
	parallel.For(rows, func(row int) {
		base := row * dim

		var mean float32
		for i := 0; i < dim; i++ {
			mean += src[base+i]
		}
		mean /= float32(dim)

		var variance float32
		for i := 0; i < dim; i++ {
			d := src[base+i] - mean
			variance += d * d
		}
		variance /= float32(dim)

		inv := float32(1 / math.Sqrt(float64(variance)+float64(l.Eps)))
		for i := 0; i < dim; i++ {
			dst[base+i] = (src[base+i]-mean)*inv*gamma[i] + beta[i]
		}
	}, rowCfg)

	return out
}
