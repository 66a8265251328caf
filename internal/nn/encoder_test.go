package nn

import (
	"math"
	"testing"

	"github.com/quill-ml/quill/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		LayerCount:       1,
		EmbedDim:         8,
		HeadCount:        2,
		VocabSize:        16,
		MaxPositionCount: 8,
		GLUDim:           16,
	}
}

// TestConfig_Validate tests the constraint checks field by field.
func TestConfig_Validate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero layers", func(c *Config) { c.LayerCount = 0 }},
		{"negative embed", func(c *Config) { c.EmbedDim = -8 }},
		{"zero heads", func(c *Config) { c.HeadCount = 0 }},
		{"indivisible heads", func(c *Config) { c.HeadCount = 3 }},
		{"vocab too small", func(c *Config) { c.VocabSize = 1 }},
		{"zero positions", func(c *Config) { c.MaxPositionCount = 0 }},
		{"zero glu", func(c *Config) { c.GLUDim = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// TestNewTextEncoder_InvalidConfig tests the constructor panic.
func TestNewTextEncoder_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.EmbedDim = 10
	cfg.HeadCount = 4
	assert.Panics(t, func() { NewTextEncoder(cfg) })
}

// TestNewTextEncoder_Structure tests the assembled module dimensions.
func TestNewTextEncoder_Structure(t *testing.T) {
	cfg := testConfig()
	cfg.LayerCount = 3
	enc := NewTextEncoder(cfg)

	assert.Equal(t, cfg, enc.Config())
	assert.Len(t, enc.Layers, 3)
	assert.Equal(t, cfg.VocabSize, enc.TokenEmbed.NumEmbeddings())
	assert.Equal(t, cfg.MaxPositionCount, enc.PosEmbed.NumEmbeddings())
	assert.Equal(t, cfg.EmbedDim, enc.TokenEmbed.EmbedDim())
	assert.Equal(t, cfg.EmbedDim, enc.EmbedNorm.Dim())
	assert.Equal(t, cfg.EmbedDim, enc.FinalNorm.Dim())
	assert.Equal(t, cfg.GLUDim, enc.Layers[0].FeedForward.GateProj.OutFeatures())
}

// TestPadMask tests mask derivation from token ids.
func TestPadMask(t *testing.T) {
	mask := PadMask([][]int{{5, 9, 1, 1}, {1, 0, 2, 1}})
	expected := [][]bool{
		{true, true, false, false},
		{false, true, true, false},
	}
	assert.Equal(t, expected, mask)
}

// TestTextEncoder_Encode tests the forward pass on a padded batch: output
// shape, finite activations at every position including padding.
func TestTextEncoder_Encode(t *testing.T) {
	enc := NewTextEncoder(testConfig())
	out := enc.Encode([][]int{{5, 9, 1, 1}})

	want := tensor.Shape{1, 4, 8}
	require.True(t, out.Shape().Equal(want), "expected shape %v, got %v", want, out.Shape())

	for i, v := range out.Data() {
		f := float64(v)
		require.False(t, math.IsNaN(f) || math.IsInf(f, 0), "element %d is not finite: %v", i, v)
	}
}

// TestTextEncoder_PadColumnsGetZeroWeight tests that the derived pad
// mask reaches the attention weights: for tokens [5 9 1 1] the pad key
// columns 2 and 3 carry exactly zero probability in every head, for
// every query position, and the remaining mass sums to one.
func TestTextEncoder_PadColumnsGetZeroWeight(t *testing.T) {
	enc := NewTextEncoder(testConfig())
	tokens := [][]int{{5, 9, 1, 1}}

	// Rebuild the first layer's input the same way Encode does.
	hidden := enc.TokenEmbed.Forward(tokens).Add(enc.PosEmbed.Forward([][]int{{0, 1, 2, 3}}))
	hidden = enc.EmbedNorm.Forward(hidden)

	layer := enc.Layers[0]
	_, weights := layer.SelfAttn.ForwardWithWeights(layer.PreAttnNorm.Forward(hidden), PadMask(tokens))

	shape := weights.Shape()
	require.True(t, shape.Equal(tensor.Shape{1, 2, 4, 4}), "unexpected weights shape %v", shape)

	for h := 0; h < shape[1]; h++ {
		for q := 0; q < shape[2]; q++ {
			assert.Zero(t, weights.At(0, h, q, 2), "head %d query %d key 2", h, q)
			assert.Zero(t, weights.At(0, h, q, 3), "head %d query %d key 3", h, q)

			sum := weights.At(0, h, q, 0) + weights.At(0, h, q, 1)
			assert.InDelta(t, 1.0, float64(sum), 1e-5, "head %d query %d row sum", h, q)
		}
	}
}

// TestTextEncoder_PaddingDoesNotLeak tests that appending pad tokens
// leaves the encodings of the real positions unchanged.
func TestTextEncoder_PaddingDoesNotLeak(t *testing.T) {
	enc := NewTextEncoder(testConfig())

	padded := enc.Encode([][]int{{5, 9, 1, 1}}).Data()
	bare := enc.Encode([][]int{{5, 9}}).Data()

	// First two positions cover 2 * embed_dim floats.
	for i, exp := range bare {
		assert.InDelta(t, exp, padded[i], 1e-4, "position %d/%d", i/8, i%8)
	}
}

// TestTextEncoder_Deterministic tests that repeated calls produce
// identical output.
func TestTextEncoder_Deterministic(t *testing.T) {
	enc := NewTextEncoder(testConfig())
	tokens := [][]int{{5, 9, 1, 1}, {2, 4, 6, 1}}

	first := enc.Encode(tokens).Data()
	second := enc.Encode(tokens).Data()

	for i := range first {
		assert.Equal(t, first[i], second[i], "element %d", i)
	}
}

// TestTextEncoder_BatchIndependence tests that each batch row encodes the
// same alone as in a batch.
func TestTextEncoder_BatchIndependence(t *testing.T) {
	enc := NewTextEncoder(testConfig())
	rows := [][]int{{5, 9, 1, 1}, {7, 3, 2, 1}}

	together := enc.Encode(rows)
	dim := together.NumElements() / len(rows)

	for b, row := range rows {
		alone := enc.Encode([][]int{row}).Data()
		batched := together.Data()[b*dim : (b+1)*dim]
		for i, exp := range alone {
			assert.InDelta(t, exp, batched[i], 1e-4, "row %d element %d", b, i)
		}
	}
}

// TestTextEncoder_InputPanics tests the input validation.
func TestTextEncoder_InputPanics(t *testing.T) {
	enc := NewTextEncoder(testConfig())

	tests := []struct {
		name   string
		tokens [][]int
	}{
		{"empty batch", [][]int{}},
		{"empty row", [][]int{{}}},
		{"ragged rows", [][]int{{1, 2, 3}, {1, 2}}},
		{"token past vocab", [][]int{{5, 16, 1, 1}}},
		{"negative token", [][]int{{-1, 2, 1, 1}}},
		{"sequence too long", [][]int{{1, 2, 3, 4, 5, 6, 7, 8, 9}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { enc.Encode(tt.tokens) })
		})
	}
}

func BenchmarkTextEncoder_Encode(b *testing.B) {
	enc := NewTextEncoder(Config{
		LayerCount:       2,
		EmbedDim:         64,
		HeadCount:        4,
		VocabSize:        256,
		MaxPositionCount: 64,
		GLUDim:           128,
	})
	tokens := make([][]int, 4)
	for i := range tokens {
		row := make([]int, 32)
		for j := range row {
			if j < 24 {
				row[j] = (i*31+j*7)%250 + 2
			} else {
				row[j] = PadTokenID
			}
		}
		tokens[i] = row
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		enc.Encode(tokens)
	}
}
