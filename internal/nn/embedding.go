package nn

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// Embedding is a lookup table mapping integer ids to dense vectors.
type Embedding struct {
	Weight *tensor.Tensor // shape [num_embeddings, embed_dim]
}

// NewEmbedding creates a table of numEmbeddings vectors of width embedDim,
// initialized from a standard normal distribution.
func NewEmbedding(numEmbeddings, embedDim int) *Embedding {
	return &Embedding{
		Weight: tensor.Randn(tensor.Shape{numEmbeddings, embedDim}),
	}
}

// NumEmbeddings returns the table size.
func (e *Embedding) NumEmbeddings() int {
	return e.Weight.Shape()[0]
}

// EmbedDim returns the vector width.
func (e *Embedding) EmbedDim() int {
	return e.Weight.Shape()[1]
}

// Forward gathers the rows for a batch of id sequences.
//
// Shapes:
//
//	ids:    [batch][seq]
//	output: [batch, seq, embed_dim]
//
// Every row of ids must have the same length. Panics on ragged input or
// on an id outside [0, num_embeddings).
func (e *Embedding) Forward(ids [][]int) *tensor.Tensor {
	if len(ids) == 0 || len(ids[0]) == 0 {
		panic("Embedding: empty id batch")
	}
	batch := len(ids)
	seq := len(ids[0])
	count := e.NumEmbeddings()
	dim := e.EmbedDim()

	out := tensor.New(tensor.Shape{batch, seq, dim})
	dst := out.Data()
	table := e.Weight.Data()

	for b, row := range ids {
		if len(row) != seq {
			panic(fmt.Sprintf("Embedding: ragged batch, row 0 has %d ids but row %d has %d", seq, b, len(row)))
		}
		for s, id := range row {
			if id < 0 || id >= count {
				panic(fmt.Sprintf("Embedding: id %d out of range [0, %d)", id, count))
			}
			copy(dst[(b*seq+s)*dim:(b*seq+s+1)*dim], table[id*dim:(id+1)*dim])
		}
	}
	return out
}
