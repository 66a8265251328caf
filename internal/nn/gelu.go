package nn

import (
	"math"

	"github.com/quill-ml/quill/internal/tensor"
)

// GELU applies the Gaussian error linear unit elementwise.
//
// Formula:
//
//	GELU(x) = 0.5 * x * (1 + erf(x / sqrt(2)))
//
// This is the exact Gaussian CDF form, not the tanh approximation, so the
// output matches checkpoints trained with exact GELU bit-for-bit within
// float32 rounding.
func GELU(x *tensor.Tensor) *tensor.Tensor {
	out := tensor.New(x.Shape())
	src := x.Data()
	dst := out.Data()
	for i, v := range src {
		f := float64(v)
		dst[i] = float32(0.5 * f * (1 + math.Erf(f/math.Sqrt2)))
	}
	return out
}
