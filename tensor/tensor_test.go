package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quill-ml/quill/tensor"
)

// TestPublicAPI exercises the exported constructors and methods end to
// end through the facade.
func TestPublicAPI(t *testing.T) {
	x := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	y := tensor.Ones(tensor.Shape{2, 2})

	sum := x.Add(y)
	assert.Equal(t, []float32{2, 3, 4, 5}, sum.Data())

	prod := x.MatMul(y)
	assert.Equal(t, []float32{3, 3, 7, 7}, prod.Data())

	assert.Equal(t, 4, tensor.New(tensor.Shape{2, 2}).NumElements())
	assert.Equal(t, []float32{5, 5}, tensor.Full(tensor.Shape{2}, 5).Data())
	assert.True(t, tensor.Randn(tensor.Shape{3}).Shape().Equal(tensor.Shape{3}))
	assert.Equal(t, []float32{0, 0}, tensor.Zeros(tensor.Shape{2}).Data())
}
