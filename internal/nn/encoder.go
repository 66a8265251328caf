package nn

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// PadTokenID is the token id reserved for padding. Positions holding it
// are excluded from attention and the tokenizer pads with it.
const PadTokenID = 1

// layerNormEps is the epsilon the published checkpoints were trained with.
const layerNormEps = 1e-5

// Config holds the text encoder hyperparameters. The JSON field names
// match the config.json shipped alongside checkpoints.
type Config struct {
	LayerCount       int `json:"layer_count"`
	EmbedDim         int `json:"embed_dim"`
	HeadCount        int `json:"head_count"`
	VocabSize        int `json:"vocab_size"`
	MaxPositionCount int `json:"max_position_count"`
	GLUDim           int `json:"glu_embed_dim"`
}

// Validate reports the first violated constraint, or nil if the
// configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.LayerCount <= 0:
		return fmt.Errorf("layer_count must be > 0, got %d", c.LayerCount)
	case c.EmbedDim <= 0:
		return fmt.Errorf("embed_dim must be > 0, got %d", c.EmbedDim)
	case c.HeadCount <= 0:
		return fmt.Errorf("head_count must be > 0, got %d", c.HeadCount)
	case c.EmbedDim%c.HeadCount != 0:
		return fmt.Errorf("embed_dim (%d) must be divisible by head_count (%d)", c.EmbedDim, c.HeadCount)
	case c.VocabSize <= PadTokenID:
		return fmt.Errorf("vocab_size must be > %d, got %d", PadTokenID, c.VocabSize)
	case c.MaxPositionCount <= 0:
		return fmt.Errorf("max_position_count must be > 0, got %d", c.MaxPositionCount)
	case c.GLUDim <= 0:
		return fmt.Errorf("glu_embed_dim must be > 0, got %d", c.GLUDim)
	}
	return nil
}

// TextEncoder maps token id sequences to contextual embeddings.
//
// Algorithm:
//  1. Sum token and position embeddings, normalize the sum.
//  2. Run the stack of encoder layers under a key-padding mask derived
//     from the tokens.
//  3. Apply the final normalization.
//
// Padding positions (PadTokenID) flow through the stack like any other
// position; they only lose their ability to be attended to. Their output
// vectors are well defined.
type TextEncoder struct {
	TokenEmbed *Embedding
	PosEmbed   *Embedding
	EmbedNorm  *LayerNorm
	Layers     []*EncoderLayer
	FinalNorm  *LayerNorm

	cfg Config
}

// NewTextEncoder creates an encoder with freshly initialized weights.
// Panics if cfg fails validation; callers building from untrusted input
// run cfg.Validate first.
func NewTextEncoder(cfg Config) *TextEncoder {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("TextEncoder: invalid config: %v", err))
	}
	layers := make([]*EncoderLayer, cfg.LayerCount)
	for i := range layers {
		layers[i] = NewEncoderLayer(cfg.EmbedDim, cfg.HeadCount, cfg.GLUDim, layerNormEps)
	}
	return &TextEncoder{
		TokenEmbed: NewEmbedding(cfg.VocabSize, cfg.EmbedDim),
		PosEmbed:   NewEmbedding(cfg.MaxPositionCount, cfg.EmbedDim),
		EmbedNorm:  NewLayerNorm(cfg.EmbedDim, layerNormEps),
		Layers:     layers,
		FinalNorm:  NewLayerNorm(cfg.EmbedDim, layerNormEps),
		cfg:        cfg,
	}
}

// Config returns the hyperparameters the encoder was built with.
func (e *TextEncoder) Config() Config {
	return e.cfg
}

// Encode runs the forward pass over a batch of token id sequences.
//
// Shapes:
//
//	tokens: [batch][seq]
//	output: [batch, seq, embed_dim]
//
// All rows must share one length seq with 0 < seq <= max_position_count,
// and every id must lie in [0, vocab_size). Violations panic. Rows are
// independent: position b of the output depends only on tokens[b].
func (e *TextEncoder) Encode(tokens [][]int) *tensor.Tensor {
	e.checkTokens(tokens)

	seq := len(tokens[0])
	positions := make([][]int, len(tokens))
	for b := range positions {
		row := make([]int, seq)
		for s := range row {
			row[s] = s
		}
		positions[b] = row
	}

	hidden := e.TokenEmbed.Forward(tokens).Add(e.PosEmbed.Forward(positions))
	hidden = e.EmbedNorm.Forward(hidden)

	mask := PadMask(tokens)
	for _, layer := range e.Layers {
		hidden = layer.Forward(hidden, mask)
	}
	return e.FinalNorm.Forward(hidden)
}

func (e *TextEncoder) checkTokens(tokens [][]int) {
	if len(tokens) == 0 || len(tokens[0]) == 0 {
		panic("TextEncoder: empty token batch")
	}
	seq := len(tokens[0])
	if seq > e.cfg.MaxPositionCount {
		panic(fmt.Sprintf("TextEncoder: sequence length %d exceeds max_position_count %d", seq, e.cfg.MaxPositionCount))
	}
	for b, row := range tokens {
		if len(row) != seq {
			panic(fmt.Sprintf("TextEncoder: ragged batch, row 0 has %d tokens but row %d has %d", seq, b, len(row)))
		}
		for s, id := range row {
			if id < 0 || id >= e.cfg.VocabSize {
				panic(fmt.Sprintf("TextEncoder: token %d at [%d][%d] out of range [0, %d)", id, b, s, e.cfg.VocabSize))
			}
		}
	}
}

// PadMask derives the attention mask from token ids: true exactly where
// the token is not PadTokenID.
func PadMask(tokens [][]int) [][]bool {
	mask := make([][]bool, len(tokens))
	for b, row := range tokens {
		m := make([]bool, len(row))
		for s, id := range row {
			m[s] = id != PadTokenID
		}
		mask[b] = m
	}
	return mask
}
