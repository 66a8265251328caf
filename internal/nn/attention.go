// Package nn provides the neural network modules that make up the text
// encoder: layer normalization, bias-free linear projections, embeddings,
// masked multi-head self-attention, and the GLU feed-forward block.
//
// Modules are plain structs holding their weight tensors. Forward methods
// are pure: they never mutate inputs or weights, and every call allocates
// fresh output tensors. Weights are exported fields so the checkpoint
// loader can fill them in place.
package nn

import (
	"fmt"
	"math"

	"github.com/quill-ml/quill/internal/tensor"
)

// ScaledDotProductAttention computes attention for pre-split heads.
//
// Formula:
//
//	Attention(Q, K, V) = softmax(Q * scale @ K^T) @ V
//
// where scale = 1/sqrt(head_dim). The scale is folded into the query
// before the score product.
//
// Shapes:
//
//	query:   [batch, heads, seq_q, head_dim]
//	key:     [batch, heads, seq_k, head_dim]
//	value:   [batch, heads, seq_k, head_dim]
//	mask:    [batch][seq_k] or nil
//	output:  [batch, heads, seq_q, head_dim]
//	weights: [batch, heads, seq_q, seq_k]
//
// Where mask[b][k] is false, every query in batch b is forbidden from
// attending to key position k: the score is set to -Inf so softmax assigns
// it exactly zero weight. A mask row with no true entry produces NaN
// weights; callers guarantee at least one attendable position.
func ScaledDotProductAttention(query, key, value *tensor.Tensor, mask [][]bool) (output, weights *tensor.Tensor) {
	qs, ks, vs := query.Shape(), key.Shape(), value.Shape()
	if len(qs) != 4 || len(ks) != 4 || len(vs) != 4 {
		panic(fmt.Sprintf("ScaledDotProductAttention: expected 4D inputs, got q=%v k=%v v=%v", qs, ks, vs))
	}
	if qs[0] != ks[0] || qs[1] != ks[1] || qs[3] != ks[3] {
		panic(fmt.Sprintf("ScaledDotProductAttention: query %v incompatible with key %v", qs, ks))
	}
	if !ks.Equal(vs) {
		panic(fmt.Sprintf("ScaledDotProductAttention: key %v incompatible with value %v", ks, vs))
	}

	headDim := qs[3]
	scale := float32(1 / math.Sqrt(float64(headDim)))

	// 1. Scaled scores: (Q * scale) @ K^T -> [batch, heads, seq_q, seq_k]
	scores := query.MulScalar(scale).BatchMatMul(key.Transpose(0, 1, 3, 2))

	// 2. Forbid masked key positions before normalization.
	if mask != nil {
		maskScores(scores, mask)
	}

	// 3. Normalize over the key axis.
	weights = scores.Softmax(-1)

	// 4. Weighted sum of values.
	output = weights.BatchMatMul(value)
	return output, weights
}

// maskScores writes -Inf into every score column whose key position is
// masked out, in place.
func maskScores(scores *tensor.Tensor, mask [][]bool) {
	shape := scores.Shape()
	batch, heads, seqQ, seqK := shape[0], shape[1], shape[2], shape[3]
	if len(mask) != batch {
		panic(fmt.Sprintf("ScaledDotProductAttention: mask has %d rows, scores have batch %d", len(mask), batch))
	}

	negInf := float32(math.Inf(-1))
	data := scores.Data()
	for b, row := range mask {
		if len(row) != seqK {
			panic(fmt.Sprintf("ScaledDotProductAttention: mask row %d has %d entries, scores have %d key positions", b, len(row), seqK))
		}
		for k, keep := range row {
			if keep {
				continue
			}
			for h := 0; h < heads; h++ {
				base := ((b*heads+h)*seqQ)*seqK + k
				for q := 0; q < seqQ; q++ {
					data[base+q*seqK] = negInf
				}
			}
		}
	}
}

// SelfAttention is masked multi-head self-attention over a sequence.
//
// Algorithm:
//  1. Project the input to queries, keys, and values with bias-free
//     linears.
//  2. Split each projection into heads: [batch, seq, embed] ->
//     [batch, heads, seq, head_dim].
//  3. Apply scaled dot-product attention per head with the shared
//     key-padding mask.
//  4. Merge heads back and apply the output projection.
//
// All four projections map embed_dim to embed_dim.
type SelfAttention struct {
	QProj   *Linear
	KProj   *Linear
	VProj   *Linear
	OutProj *Linear

	EmbedDim  int
	HeadCount int
	HeadDim   int
}

// NewSelfAttention creates self-attention with headCount heads over
// embedDim-wide states. Panics if embedDim is not divisible by headCount.
func NewSelfAttention(embedDim, headCount int) *SelfAttention {
	if headCount <= 0 {
		panic(fmt.Sprintf("SelfAttention: head_count must be > 0, got %d", headCount))
	}
	if embedDim%headCount != 0 {
		panic(fmt.Sprintf("SelfAttention: embed_dim (%d) must be divisible by head_count (%d)", embedDim, headCount))
	}
	return &SelfAttention{
		QProj:     NewLinear(embedDim, embedDim),
		KProj:     NewLinear(embedDim, embedDim),
		VProj:     NewLinear(embedDim, embedDim),
		OutProj:   NewLinear(embedDim, embedDim),
		EmbedDim:  embedDim,
		HeadCount: headCount,
		HeadDim:   embedDim / headCount,
	}
}

// Forward attends each position of x to the unmasked positions.
//
// Shapes:
//
//	x:      [batch, seq, embed_dim]
//	mask:   [batch][seq] or nil
//	output: [batch, seq, embed_dim]
func (a *SelfAttention) Forward(x *tensor.Tensor, mask [][]bool) *tensor.Tensor {
	out, _ := a.ForwardWithWeights(x, mask)
	return out
}

// ForwardWithWeights is Forward, additionally returning the attention
// weights of shape [batch, heads, seq, seq] for inspection.
func (a *SelfAttention) ForwardWithWeights(x *tensor.Tensor, mask [][]bool) (output, weights *tensor.Tensor) {
	shape := x.Shape()
	if len(shape) != 3 || shape[2] != a.EmbedDim {
		panic(fmt.Sprintf("SelfAttention: expected input [batch, seq, %d], got shape %v", a.EmbedDim, shape))
	}
	batch, seq := shape[0], shape[1]

	q := a.projectHeads(a.QProj, x, batch, seq)
	k := a.projectHeads(a.KProj, x, batch, seq)
	v := a.projectHeads(a.VProj, x, batch, seq)

	attended, weights := ScaledDotProductAttention(q, k, v, mask)

	// [batch, heads, seq, head_dim] -> [batch*seq, embed_dim]
	merged := attended.Transpose(0, 2, 1, 3).Reshape(batch*seq, a.EmbedDim)
	output = a.OutProj.Forward(merged).Reshape(batch, seq, a.EmbedDim)
	return output, weights
}

// projectHeads applies proj to x and splits the result into heads:
// [batch, seq, embed_dim] -> [batch, heads, seq, head_dim].
func (a *SelfAttention) projectHeads(proj *Linear, x *tensor.Tensor, batch, seq int) *tensor.Tensor {
	flat := proj.Forward(x.Reshape(batch*seq, a.EmbedDim))
	return flat.Reshape(batch, seq, a.HeadCount, a.HeadDim).Transpose(0, 2, 1, 3)
}
