// Package nn provides the public API for the text encoder modules.
//
// Example:
//
//	cfg := nn.Config{
//		LayerCount:       12,
//		EmbedDim:         1024,
//		HeadCount:        16,
//		VocabSize:        50264,
//		MaxPositionCount: 64,
//		GLUDim:           2730,
//	}
//	enc := nn.NewTextEncoder(cfg)
//	out := enc.Encode([][]int{{0, 5924, 10, 2}})
package nn

import (
	"github.com/quill-ml/quill/internal/nn"
	"github.com/quill-ml/quill/internal/tensor"
)

// PadTokenID is the token id reserved for padding.
const PadTokenID = nn.PadTokenID

// Config holds the text encoder hyperparameters.
type Config = nn.Config

// TextEncoder maps token id sequences to contextual embeddings.
type TextEncoder = nn.TextEncoder

// NewTextEncoder creates an encoder with freshly initialized weights.
// Panics if cfg fails validation.
func NewTextEncoder(cfg Config) *TextEncoder {
	return nn.NewTextEncoder(cfg)
}

// PadMask derives the attention mask from token ids: true exactly where
// the token is not PadTokenID.
func PadMask(tokens [][]int) [][]bool {
	return nn.PadMask(tokens)
}

// Modules

// LayerNorm normalizes the last dimension with a learned affine.
type LayerNorm = nn.LayerNorm

// NewLayerNorm creates a LayerNorm over vectors of the given width.
func NewLayerNorm(dim int, eps float32) *LayerNorm {
	return nn.NewLayerNorm(dim, eps)
}

// Linear is a bias-free projection with weight stored [out, in].
type Linear = nn.Linear

// NewLinear creates a projection with Xavier-initialized weights.
func NewLinear(inFeatures, outFeatures int) *Linear {
	return nn.NewLinear(inFeatures, outFeatures)
}

// Embedding is a lookup table mapping ids to vectors.
type Embedding = nn.Embedding

// NewEmbedding creates a table of numEmbeddings vectors of width embedDim.
func NewEmbedding(numEmbeddings, embedDim int) *Embedding {
	return nn.NewEmbedding(numEmbeddings, embedDim)
}

// SelfAttention is masked multi-head self-attention.
type SelfAttention = nn.SelfAttention

// NewSelfAttention creates self-attention with headCount heads.
// Panics if embedDim is not divisible by headCount.
func NewSelfAttention(embedDim, headCount int) *SelfAttention {
	return nn.NewSelfAttention(embedDim, headCount)
}

// GLU is the gated feed-forward block used between attention layers.
type GLU = nn.GLU

// NewGLU creates a gated feed-forward block.
func NewGLU(embedDim, gluDim int, eps float32) *GLU {
	return nn.NewGLU(embedDim, gluDim, eps)
}

// EncoderLayer is one transformer encoder block.
type EncoderLayer = nn.EncoderLayer

// NewEncoderLayer creates an encoder block with the given widths.
func NewEncoderLayer(embedDim, headCount, gluDim int, eps float32) *EncoderLayer {
	return nn.NewEncoderLayer(embedDim, headCount, gluDim, eps)
}

// Functional ops

// GELU applies the exact Gaussian error linear unit elementwise.
func GELU(x *tensor.Tensor) *tensor.Tensor {
	return nn.GELU(x)
}

// ScaledDotProductAttention computes masked attention for pre-split
// heads, returning the attended values and the attention weights.
func ScaledDotProductAttention(query, key, value *tensor.Tensor, mask [][]bool) (output, weights *tensor.Tensor) {
	return nn.ScaledDotProductAttention(query, key, value, mask)
}
