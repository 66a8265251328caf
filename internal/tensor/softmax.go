package tensor

import (
	"fmt"
	"math"

	"github.com/quill-ml/quill/internal/parallel"
)

var softmaxCfg = parallel.DefaultConfig()

// Softmax normalizes the tensor to probabilities along the given
// dimension (negative dim counts from the end). Each row is shifted by
// its maximum before exponentiation for numerical stability.
//
// A row whose maximum is -Inf (every entry masked) produces NaN; that
// degenerate case is the caller's contract to avoid.
func (t *Tensor) Softmax(dim int) *Tensor {
	ndim := len(t.shape)
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("Softmax: dimension %d out of range for tensor of rank %d", dim, ndim))
	}

	out := New(t.shape)
	src, dst := t.data, out.data

	dimSize := t.shape[dim]
	dimStride := t.strides[dim]

	// Rows are the element groups that share one normalization.
	numRows := len(t.data) / dimSize

	parallel.For(numRows, func(row int) {
		// Base flat index of this row: walk every non-dim coordinate.
		baseIdx := 0
		remaining := row
		for i := ndim - 1; i >= 0; i-- {
			if i == dim {
				continue
			}
			coord := remaining % t.shape[i]
			remaining /= t.shape[i]
			baseIdx += coord * t.strides[i]
		}

		// Max for numerical stability.
		maxVal := float32(math.Inf(-1))
		for i := 0; i < dimSize; i++ {
			v := src[baseIdx+i*dimStride]
			if v > maxVal {
				maxVal = v
			}
		}

		// exp(x - max) and running sum.
		var sum float32
		for i := 0; i < dimSize; i++ {
			idx := baseIdx + i*dimStride
			expVal := float32(math.Exp(float64(src[idx] - maxVal)))
			dst[idx] = expVal
			sum += expVal
		}

		// Normalize.
		for i := 0; i < dimSize; i++ {
			dst[baseIdx+i*dimStride] /= sum
		}
	}, softmaxCfg)

	return out
}
