package nn

import "github.com/quill-ml/quill/internal/tensor"

// EncoderLayer is one transformer encoder block: pre-norm self-attention
// followed by a GLU feed-forward, each wrapped in a residual connection.
//
// Algorithm:
//  1. h = x + PostAttnNorm(SelfAttn(PreAttnNorm(x), mask))
//  2. y = h + GLU(h)
//
// The post-attention normalization sits inside the first residual branch,
// before the add. This is the BART encoder layout, not the standard
// pre-norm block.
type EncoderLayer struct {
	PreAttnNorm  *LayerNorm
	SelfAttn     *SelfAttention
	PostAttnNorm *LayerNorm
	FeedForward  *GLU
}

// NewEncoderLayer creates an encoder block with the given widths.
func NewEncoderLayer(embedDim, headCount, gluDim int, eps float32) *EncoderLayer {
	return &EncoderLayer{
		PreAttnNorm:  NewLayerNorm(embedDim, eps),
		SelfAttn:     NewSelfAttention(embedDim, headCount),
		PostAttnNorm: NewLayerNorm(embedDim, eps),
		FeedForward:  NewGLU(embedDim, gluDim, eps),
	}
}

// Forward runs the block over a batch of sequences.
//
// Shapes:
//
//	x:      [batch, seq, embed_dim]
//	mask:   [batch][seq] or nil
//	output: [batch, seq, embed_dim]
func (l *EncoderLayer) Forward(x *tensor.Tensor, mask [][]bool) *tensor.Tensor {
	residual := x
	h := l.PreAttnNorm.Forward(x)
	h = l.SelfAttn.Forward(h, mask)
	h = l.PostAttnNorm.Forward(h)
	h = residual.Add(h)

	residual = h
	h = l.FeedForward.Forward(h)
	return residual.Add(h)
}
