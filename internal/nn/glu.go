package nn

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// GLU is the gated feed-forward block used between attention layers.
//
// Formula:
//
//	z      = LayerNorm_in(x)
//	gate   = GELU(z @ Wg^T)
//	value  = z @ Wv^T
//	hidden = LayerNorm_hidden(gate ⊙ value)
//	y      = hidden @ Wo^T
//
// The gate and value projections expand embed_dim to glu_dim; the output
// projection brings glu_dim back to embed_dim. None of the projections
// carry a bias. Note the second normalization runs over the wide glu_dim
// activations, before the down projection.
type GLU struct {
	InputNorm  *LayerNorm // over embed_dim
	GateProj   *Linear    // embed_dim -> glu_dim, GELU branch
	ValueProj  *Linear    // embed_dim -> glu_dim
	HiddenNorm *LayerNorm // over glu_dim
	OutProj    *Linear    // glu_dim -> embed_dim
}

// NewGLU creates a gated feed-forward block with the given embedding and
// hidden widths.
func NewGLU(embedDim, gluDim int, eps float32) *GLU {
	return &GLU{
		InputNorm:  NewLayerNorm(embedDim, eps),
		GateProj:   NewLinear(embedDim, gluDim),
		ValueProj:  NewLinear(embedDim, gluDim),
		HiddenNorm: NewLayerNorm(gluDim, eps),
		OutProj:    NewLinear(gluDim, embedDim),
	}
}

// Forward applies the block position-wise.
//
// Shapes:
//
//	x:      [..., embed_dim]
//	output: [..., embed_dim]
func (g *GLU) Forward(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	embedDim := g.GateProj.InFeatures()
	if len(shape) < 2 || shape[len(shape)-1] != embedDim {
		panic(fmt.Sprintf("GLU: expected input [..., %d], got shape %v", embedDim, shape))
	}

	rows := x.NumElements() / embedDim
	z := g.InputNorm.Forward(x).Reshape(rows, embedDim)

	gate := GELU(g.GateProj.Forward(z))
	value := g.ValueProj.Forward(z)

	hidden := g.HiddenNorm.Forward(gate.Mul(value))
	return g.OutProj.Forward(hidden).Reshape(shape...)
}
