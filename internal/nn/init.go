package nn

import (
	"math"
	"math/rand"

	"github.com/quill-ml/quill/internal/tensor"
)

// xavierUniform creates a tensor initialized with Xavier/Glorot uniform
// values in [-limit, limit] where limit = sqrt(6 / (fan_in + fan_out)).
//
// Fresh modules start from this distribution so that activations keep a
// stable variance before a checkpoint overwrites the weights.
//
//nolint:gosec // math/rand is appropriate for weight initialization
func xavierUniform(fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	t := tensor.New(shape)
	data := t.Data()
	for i := range data {
		data[i] = float32((rand.Float64()*2 - 1) * limit)
	}
	return t
}
